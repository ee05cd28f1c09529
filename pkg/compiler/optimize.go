package compiler

// eliminateDeadFunctions removes functions that can never run. The roots are
// the entry point, every xok export and every function a global initializer
// calls; anything they reach transitively is kept.
func eliminateDeadFunctions(stmts []Stmt, entry string) []Stmt {
	funcs := make(map[string]*FunctionDecl)
	for _, s := range stmts {
		if f, ok := s.(*FunctionDecl); ok {
			funcs[f.Name] = f
		}
	}

	reachable := make(map[string]bool)
	var worklist []string

	addReachable := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}

	addReachable(entry)
	for _, s := range stmts {
		switch n := s.(type) {
		case *ExportDecl:
			addReachable(n.Name)
		case *VariableDecl:
			var calls []*FunctionCall
			findCallsExpr(n.Init, &calls)
			for _, call := range calls {
				addReachable(call.Name)
			}
		}
	}

	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]

		fn, exists := funcs[curr]
		if !exists {
			// kue import
			continue
		}

		var calls []*FunctionCall
		findCallsStmt(fn, &calls)
		for _, call := range calls {
			addReachable(call.Name)
		}
	}

	var optimized []Stmt
	for _, s := range stmts {
		if f, ok := s.(*FunctionDecl); ok && !reachable[f.Name] {
			continue
		}
		optimized = append(optimized, s)
	}
	return optimized
}
