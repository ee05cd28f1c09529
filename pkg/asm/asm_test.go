package asm

import (
	"strings"
	"testing"

	"github.com/jurliyuuri/tinka/pkg/cpu"
)

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"fasal", true},
		{"fi_situv_1", true},
		{"1abc", true},
		{"123", false},
		{"", false},
		{"f0", false},
		{"xx", false},
		{"f3+4@", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	if got := stripComments("krz f0 f1 ; move"); got != "krz f0 f1 " {
		t.Errorf("stripComments = %q", got)
	}

	countTests := []struct {
		mnemonic string
		want     int
		ok       bool
	}{
		{"krz", 2, true},
		{"malkrz", 2, true},
		{"lat", 3, true},
		{"fi", 3, true},
		{"inj", 3, true},
		{"nll", 1, true},
		{"l'", 1, true},
		{"hlt", 0, false},
	}
	for _, tc := range countTests {
		got, ok := operandCount(tc.mnemonic)
		if got != tc.want || ok != tc.ok {
			t.Errorf("operandCount(%q) = %d, %v; want %d, %v", tc.mnemonic, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseOperand(t *testing.T) {
	a := NewAssembler()
	a.labels["top"] = 7

	tests := []struct {
		input string
		want  cpu.Operand
	}{
		{"f0", cpu.Operand{Kind: cpu.Reg, Reg: cpu.F0}},
		{"xx", cpu.Operand{Kind: cpu.Reg, Reg: cpu.XX}},
		{"42", cpu.Operand{Kind: cpu.Imm, Value: 42}},
		{"top", cpu.Operand{Kind: cpu.Imm, Value: 7, Label: "top"}},
		{"f5@", cpu.Operand{Kind: cpu.Mem, Reg: cpu.F5}},
		{"f3+4294967292@", cpu.Operand{Kind: cpu.Mem, Reg: cpu.F3, Value: 4294967292}},
		{"f0+f1@", cpu.Operand{Kind: cpu.Mem, Reg: cpu.F0, Index: cpu.F1, HasIndex: true}},
	}
	for _, tc := range tests {
		got, err := a.parseOperand(tc.input, 1)
		if err != nil {
			t.Errorf("parseOperand(%q) error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseOperand(%q) = %+v; want %+v", tc.input, got, tc.want)
		}
	}
}

func TestAssembleInstructions(t *testing.T) {
	code := `'i'c
nta 4 f5 krz f2 f5@ ; two instructions on one line
nll loop
ata 1 f0
fi f0 10 xylo malkrz loop xx
lat f1 f0 f0
`
	prog, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	wantOps := []cpu.Opcode{cpu.OpNTA, cpu.OpKRZ, cpu.OpATA, cpu.OpFI, cpu.OpMALKRZ, cpu.OpLAT}
	if len(prog.Code) != len(wantOps) {
		t.Fatalf("got %d instructions, want %d", len(prog.Code), len(wantOps))
	}
	for i, op := range wantOps {
		if prog.Code[i].Op != op {
			t.Errorf("instruction %d: got %s, want %s", i, prog.Code[i].Op, op)
		}
	}

	if prog.Labels["loop"] != 2 {
		t.Errorf("loop = %d, want 2", prog.Labels["loop"])
	}
	if prog.Code[3].Cond != cpu.CondXYLO {
		t.Errorf("fi condition = %d, want xylo", prog.Code[3].Cond)
	}
	if got := prog.Code[4].Args[0]; got.Value != 2 || got.Label != "loop" {
		t.Errorf("malkrz source = %+v", got)
	}
	if prog.Code[1].Line != 2 || prog.Code[5].Line != 6 {
		t.Errorf("line numbers: %d, %d", prog.Code[1].Line, prog.Code[5].Line)
	}
}

func TestLabelForms(t *testing.T) {
	code := `
krz 1 f0 l' first
nll second
krz 2 f0
xok second
kue outside
`
	prog, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if prog.Labels["first"] != 0 || prog.Labels["second"] != 1 {
		t.Errorf("labels = %v", prog.Labels)
	}
	if len(prog.Exports) != 1 || prog.Exports[0] != "second" {
		t.Errorf("exports = %v", prog.Exports)
	}
	if len(prog.Imports) != 1 || prog.Imports[0] != "outside" {
		t.Errorf("imports = %v", prog.Imports)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"unknown instruction", "hlt", "unknown instruction"},
		{"missing operand", "krz f0", "expects 2 operand"},
		{"duplicate label", "nll a krz 1 f0 nll a krz 2 f0", "duplicate label"},
		{"undefined label", "krz nowhere xx", "undefined label"},
		{"imported label", "kue ext inj ext xx f5@", "imported by kue"},
		{"immediate destination", "krz f0 5", "cannot write"},
		{"bad comparison", "fi f0 f1 gt", "unknown comparison"},
		{"bad memory operand", "krz q@ f0", "invalid memory operand"},
		{"l' first", "l' a krz 1 f0", "no preceding instruction"},
		{"undefined export", "xok main krz 1 f0", "not defined"},
		{"big endian", "'c'i krz 1 f0", "not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.code)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}
