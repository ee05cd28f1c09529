package cpu

import (
	"testing"

	"github.com/pkg/errors"
)

func imm(v uint32) Operand { return Operand{Kind: Imm, Value: v} }

func reg(r Register) Operand { return Operand{Kind: Reg, Reg: r} }

func mem(r Register, d uint32) Operand { return Operand{Kind: Mem, Reg: r, Value: d} }

func memIdx(r, i Register) Operand { return Operand{Kind: Mem, Reg: r, Index: i, HasIndex: true} }

func ins(op Opcode, args ...Operand) Instruction {
	return Instruction{Op: op, Args: args}
}

// loadProgram builds a CPU over code and labels it "main" at 0.
func loadProgram(code ...Instruction) *CPU {
	return NewCPU(&Program{Code: code, Labels: map[string]uint32{"main": 0}})
}

// ret is the instruction that returns to the loader.
var ret = ins(OpKRZ, mem(F5, 0), reg(XX))

func TestALU(t *testing.T) {
	tests := []struct {
		name string
		op   Opcode
		a, b uint32
		want uint32
	}{
		{"ata", OpATA, 10, 20, 30},
		{"ata wraps", OpATA, 1, 0xFFFFFFFF, 0},
		{"nta", OpNTA, 3, 10, 7},
		{"nta below zero", OpNTA, 1, 0, 0xFFFFFFFF},
		{"ada", OpADA, 0x0F, 0xFF, 0x0F},
		{"ekc", OpEKC, 0xF0, 0x0F, 0xFF},
		{"dal zero is not", OpDAL, 0, 5, ^uint32(5)},
		{"dal equal is all ones", OpDAL, 7, 7, 0xFFFFFFFF},
		{"dro", OpDRO, 2, 3, 12},
		{"dro 32", OpDRO, 32, 3, 0},
		{"dto", OpDTO, 1, 0x80000000, 0x40000000},
		{"dtosna", OpDTOSNA, 1, 0x80000000, 0xC0000000},
		{"dtosna 40", OpDTOSNA, 40, 0x80000000, 0xFFFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := loadProgram(
				ins(OpKRZ, imm(tt.b), reg(F0)),
				ins(tt.op, imm(tt.a), reg(F0)),
				ret,
			)
			if err := c.RunUntilDone(); err != nil {
				t.Fatalf("run: %v", err)
			}
			if c.Regs[F0] != tt.want {
				t.Errorf("f0 = %#x, want %#x", c.Regs[F0], tt.want)
			}
		})
	}
}

func TestCompareAndConditionalMove(t *testing.T) {
	neg := uint32(0xFFFFFFFE) // -2
	tests := []struct {
		cond Cond
		a, b uint32
		want bool
	}{
		{CondXTLO, 3, 5, true},
		{CondXTLO, 5, 5, true},
		{CondXYLO, 5, 5, false},
		{CondXYLO, neg, 1, true},
		{CondXYLONYS, neg, 1, false},
		{CondCLO, 4, 4, true},
		{CondNIV, 4, 4, false},
		{CondLLO, 6, 5, true},
		{CondXOLO, 5, 5, true},
		{CondLLONYS, neg, 1, true},
		{CondXTLONYS, 1, neg, true},
		{CondXOLONYS, 1, neg, false},
	}
	for _, tt := range tests {
		c := loadProgram(
			ins(OpKRZ, imm(0), reg(F2)),
			Instruction{Op: OpFI, Args: []Operand{imm(tt.a), imm(tt.b)}, Cond: tt.cond},
			ins(OpMALKRZ, imm(1), reg(F2)),
			ret,
		)
		if err := c.RunUntilDone(); err != nil {
			t.Fatalf("run: %v", err)
		}
		if got := c.Regs[F2] == 1; got != tt.want {
			t.Errorf("cond %d (%d, %d) = %v, want %v", tt.cond, int32(tt.a), int32(tt.b), got, tt.want)
		}
	}
}

func TestMemoryOperands(t *testing.T) {
	c := loadProgram(
		ins(OpKRZ, imm(100), reg(F3)),
		ins(OpKRZ, imm(7), mem(F3, 0xFFFFFFFC)), // [96] = 7
		ins(OpKRZ, imm(8), reg(F1)),
		ins(OpKRZ, imm(9), memIdx(F3, F1)), // [108] = 9
		ins(OpKRZ, mem(F3, 0xFFFFFFFC), reg(F0)),
		ins(OpATA, memIdx(F3, F1), reg(F0)),
		ret,
	)
	if err := c.RunUntilDone(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if c.ReadCell(96) != 7 || c.ReadCell(108) != 9 {
		t.Errorf("memory = %v", c.Memory)
	}
	if c.Regs[F0] != 16 {
		t.Errorf("f0 = %d, want 16", c.Regs[F0])
	}
}

func TestCallAndReturn(t *testing.T) {
	// 0: nta 4 f5
	// 1: inj 5 xx f5@     ; call 5, return address 2
	// 2: ata 4 f5
	// 3: krz f5@ xx       ; back to the loader
	// 4: krz 99 f1        ; skipped
	// 5: krz 42 f0
	// 6: krz f5@ xx       ; return
	c := loadProgram(
		ins(OpNTA, imm(4), reg(F5)),
		ins(OpINJ, imm(5), reg(XX), mem(F5, 0)),
		ins(OpATA, imm(4), reg(F5)),
		ret,
		ins(OpKRZ, imm(99), reg(F1)),
		ins(OpKRZ, imm(42), reg(F0)),
		ret,
	)
	if err := c.RunUntilDone(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !c.Halted {
		t.Fatal("expected halt")
	}
	if c.Regs[F0] != 42 || c.Regs[F1] != 0 {
		t.Errorf("f0 = %d, f1 = %d", c.Regs[F0], c.Regs[F1])
	}
	if c.Regs[F5] != DefaultStackTop {
		t.Errorf("f5 = %#x, want %#x", c.Regs[F5], DefaultStackTop)
	}
	if c.Steps != 6 {
		t.Errorf("steps = %d, want 6", c.Steps)
	}
}

func TestInjSwapsThroughMemory(t *testing.T) {
	c := loadProgram(
		ins(OpNTA, imm(4), reg(F5)),
		ins(OpKRZ, imm(11), mem(F5, 0)),
		ins(OpKRZ, imm(22), reg(F0)),
		ins(OpINJ, mem(F5, 0), reg(F0), reg(F1)), // f1 = 22, f0 = 11
		ins(OpATA, imm(4), reg(F5)),
		ret,
	)
	if err := c.RunUntilDone(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if c.Regs[F0] != 11 || c.Regs[F1] != 22 {
		t.Errorf("f0 = %d, f1 = %d; want 11, 22", c.Regs[F0], c.Regs[F1])
	}
}

func TestEntry(t *testing.T) {
	c := NewCPU(&Program{
		Code:   []Instruction{ins(OpKRZ, imm(1), reg(F0)), ins(OpKRZ, imm(2), reg(F0)), ret},
		Labels: map[string]uint32{"second": 1},
	})
	if err := c.Entry("second"); err != nil {
		t.Fatal(err)
	}
	if err := c.RunUntilDone(); err != nil {
		t.Fatal(err)
	}
	if c.Regs[F0] != 2 {
		t.Errorf("f0 = %d, want 2", c.Regs[F0])
	}
	if err := c.Entry("missing"); err == nil {
		t.Error("expected error for missing label")
	}
}

func TestRunErrors(t *testing.T) {
	loop := loadProgram(ins(OpKRZ, imm(0), reg(XX)))
	err := loop.Run(100)
	if errors.Cause(err) != ErrStepLimit {
		t.Errorf("expected ErrStepLimit, got %v", err)
	}
	if loop.Steps != 100 {
		t.Errorf("steps = %d, want 100", loop.Steps)
	}

	fallOff := loadProgram(ins(OpKRZ, imm(1), reg(F0)))
	if err := fallOff.RunUntilDone(); err == nil {
		t.Error("expected error when xx leaves the program")
	}

	badWrite := loadProgram(ins(OpKRZ, imm(1), imm(2)))
	if err := badWrite.RunUntilDone(); err == nil {
		t.Error("expected error writing to an immediate")
	}
}

func TestStrings(t *testing.T) {
	if OpDTOSNA.String() != "dtosna" || XX.String() != "xx" || F3.String() != "f3" {
		t.Error("unexpected names")
	}
	if got := memIdx(F0, F1).String(); got != "f0+f1@" {
		t.Errorf("operand = %q", got)
	}
	if got := mem(F3, 4).String(); got != "f3+4@" {
		t.Errorf("operand = %q", got)
	}
	if got := (Operand{Kind: Imm, Value: 3, Label: "top"}).String(); got != "top" {
		t.Errorf("operand = %q", got)
	}
}
