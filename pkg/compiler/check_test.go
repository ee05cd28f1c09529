package compiler

import (
	"testing"
)

func TestFindCalls(t *testing.T) {
	stmts := parseFunctionBody(t, "fi a(b(1), #x : c()) rinyv dosnud d() situv e() eksa #y")
	var calls []*FunctionCall
	for _, s := range stmts {
		findCallsStmt(s, &calls)
	}
	var names string
	for _, c := range calls {
		names += c.Name
	}
	if names != "abcde" {
		t.Errorf("calls found in order %q, want %q", names, "abcde")
	}
}

func TestCheckCalls(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"Matching arity", "cersva f(a, b) rinyv situv cersva g() rinyv dosnud f(1, 2) situv", false},
		{"Forward reference", "cersva g() rinyv dosnud f() situv cersva f() rinyv situv", false},
		{"Recursion", "cersva f(n) rinyv dosnud f(#n) situv", false},
		{"Import takes anything", "kue ext cersva g() rinyv dosnud ext(1, 2, 3) ekc ext() situv", false},
		{"Import after use", "cersva g() rinyv dosnud ext() situv kue ext", false},
		{"Export is not a definition", "xok ext cersva g() rinyv dosnud ext() situv", true},
		{"Arity in global initializer", "anax v el f(1) cersva f() rinyv situv", true},
		{"Arity in assignment target index", "anax t : 2 cersva f(a) rinyv #t : f() el 1 situv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := parseSource(t, tt.src)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			err = checkCalls(stmts)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkCalls() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEliminateDeadFunctions(t *testing.T) {
	stmts, err := parseSource(t, `
cersva a() rinyv dosnud b() situv
cersva b() rinyv situv
cersva c() rinyv dosnud a() situv
cersva d() rinyv situv
xok d
`)
	if err != nil {
		t.Fatal(err)
	}

	kept := eliminateDeadFunctions(stmts, "a")
	var names []string
	for _, s := range kept {
		if fn, ok := s.(*FunctionDecl); ok {
			names = append(names, fn.Name)
		}
	}
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "d" {
		t.Errorf("kept functions %v, want [a b d]", names)
	}
	if len(kept) != 4 {
		t.Errorf("the xok line should be kept, got %s", stmtList(kept))
	}
}
