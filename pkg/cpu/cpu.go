package cpu

import (
	"fmt"

	"github.com/pkg/errors"
)

// Opcode identifies a 2003lk instruction.
type Opcode uint8

const (
	OpKRZ    Opcode = iota // krz A B: B = A
	OpMALKRZ               // malkrz A B: B = A when the flag is set
	OpATA                  // ata A B: B += A
	OpNTA                  // nta A B: B -= A
	OpADA                  // ada A B: B &= A
	OpEKC                  // ekc A B: B |= A
	OpDAL                  // dal A B: B = ^(B ^ A)
	OpDTO                  // dto A B: B >>= A (logical)
	OpDRO                  // dro A B: B <<= A
	OpDTOSNA               // dtosna A B: B >>= A (arithmetic)
	OpLAT                  // lat A B C: unsigned A*B, high word to B, low word to C
	OpLATSNA               // latsna A B C: signed A*B, high word to B, low word to C
	OpFI                   // fi A B cond: flag = A cond B
	OpINJ                  // inj A B C: C = B, B = A
)

var opNames = [...]string{
	OpKRZ:    "krz",
	OpMALKRZ: "malkrz",
	OpATA:    "ata",
	OpNTA:    "nta",
	OpADA:    "ada",
	OpEKC:    "ekc",
	OpDAL:    "dal",
	OpDTO:    "dto",
	OpDRO:    "dro",
	OpDTOSNA: "dtosna",
	OpLAT:    "lat",
	OpLATSNA: "latsna",
	OpFI:     "fi",
	OpINJ:    "inj",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Register is f0..f7 or xx, the instruction pointer.
type Register uint8

const (
	F0 Register = iota
	F1
	F2 // global base
	F3 // frame base
	F4
	F5 // stack pointer
	F6
	F7
	XX
)

func (r Register) String() string {
	if r == XX {
		return "xx"
	}
	return fmt.Sprintf("f%d", int(r))
}

// Cond is the comparison tested by fi.
type Cond uint8

const (
	CondXTLO    Cond = iota // <=
	CondXYLO                // <
	CondCLO                 // ==
	CondNIV                 // !=
	CondLLO                 // >
	CondXOLO                // >=
	CondXTLONYS             // unsigned <=
	CondXYLONYS             // unsigned <
	CondLLONYS              // unsigned >
	CondXOLONYS             // unsigned >=
)

// Conds maps the source spelling of each comparison to its Cond.
var Conds = map[string]Cond{
	"xtlo":    CondXTLO,
	"xylo":    CondXYLO,
	"clo":     CondCLO,
	"niv":     CondNIV,
	"llo":     CondLLO,
	"xolo":    CondXOLO,
	"xtlonys": CondXTLONYS,
	"xylonys": CondXYLONYS,
	"llonys":  CondLLONYS,
	"xolonys": CondXOLONYS,
}

func (c Cond) holds(a, b uint32) bool {
	sa, sb := int32(a), int32(b)
	switch c {
	case CondXTLO:
		return sa <= sb
	case CondXYLO:
		return sa < sb
	case CondCLO:
		return a == b
	case CondNIV:
		return a != b
	case CondLLO:
		return sa > sb
	case CondXOLO:
		return sa >= sb
	case CondXTLONYS:
		return a <= b
	case CondXYLONYS:
		return a < b
	case CondLLONYS:
		return a > b
	case CondXOLONYS:
		return a >= b
	}
	return false
}

type OperandKind uint8

const (
	Imm OperandKind = iota // constant or resolved label
	Reg                    // register
	Mem                    // reg@, reg+imm@ or reg+reg@
)

// Operand is one decoded instruction operand.
type Operand struct {
	Kind     OperandKind
	Reg      Register // the register, or the base of a memory operand
	Index    Register // second register of reg+reg@
	HasIndex bool
	Value    uint32 // immediate, label address, or displacement
	Label    string // label name when Value came from one
}

func (o Operand) String() string {
	switch o.Kind {
	case Reg:
		return o.Reg.String()
	case Mem:
		switch {
		case o.HasIndex:
			return fmt.Sprintf("%s+%s@", o.Reg, o.Index)
		case o.Value != 0:
			return fmt.Sprintf("%s+%d@", o.Reg, o.Value)
		}
		return o.Reg.String() + "@"
	}
	if o.Label != "" {
		return o.Label
	}
	return fmt.Sprintf("%d", o.Value)
}

// Instruction is one decoded instruction.
type Instruction struct {
	Op   Opcode
	Args []Operand
	Cond Cond // fi only
	Line int  // source line, for diagnostics
}

// Program is an assembled 2003lk unit. Labels resolve to instruction indices.
type Program struct {
	Code    []Instruction
	Labels  map[string]uint32
	Exports []string
	Imports []string
}

const (
	// HaltAddress is the return address the loader leaves on the stack.
	// Jumping to it stops the machine.
	HaltAddress uint32 = 0xFFFFFFFF

	DefaultStackTop uint32 = 0x7FFFF000
	DefaultMaxSteps        = 1000000
)

// ErrStepLimit is returned by Run when the step budget runs out.
var ErrStepLimit = errors.New("step limit exceeded")

// CPU executes a Program. Memory is sparse and addressed in bytes, one
// 32-bit cell per address used; unwritten cells read as zero.
type CPU struct {
	Regs [8]uint32
	PC   uint32 // xx
	Flag bool

	Memory  map[uint32]uint32
	Program *Program

	Halted bool
	Steps  int
}

// NewCPU loads prog with f5 at DefaultStackTop and HaltAddress on top of
// the stack, so the program's final "krz f5@ xx" stops the machine.
func NewCPU(prog *Program) *CPU {
	c := &CPU{Program: prog, Memory: make(map[uint32]uint32)}
	c.Regs[F5] = DefaultStackTop
	c.Memory[DefaultStackTop] = HaltAddress
	return c
}

// Entry starts execution at an exported or internal label instead of 0.
func (c *CPU) Entry(label string) error {
	addr, ok := c.Program.Labels[label]
	if !ok {
		return errors.Errorf("no label %q", label)
	}
	c.PC = addr
	return nil
}

func (c *CPU) reg(r Register) uint32 {
	if r == XX {
		return c.PC
	}
	return c.Regs[r]
}

func (c *CPU) setReg(r Register, v uint32) {
	if r == XX {
		c.PC = v
		return
	}
	c.Regs[r] = v
}

func (c *CPU) address(o Operand) uint32 {
	if o.HasIndex {
		return c.reg(o.Reg) + c.reg(o.Index)
	}
	return c.reg(o.Reg) + o.Value
}

// Read returns the current value of o.
func (c *CPU) Read(o Operand) uint32 {
	switch o.Kind {
	case Reg:
		return c.reg(o.Reg)
	case Mem:
		return c.Memory[c.address(o)]
	}
	return o.Value
}

// Write stores v into o.
func (c *CPU) Write(o Operand, v uint32) error {
	switch o.Kind {
	case Reg:
		c.setReg(o.Reg, v)
	case Mem:
		c.Memory[c.address(o)] = v
	default:
		return errors.Errorf("cannot write to immediate %s", o)
	}
	return nil
}

// ReadCell returns the memory cell at addr.
func (c *CPU) ReadCell(addr uint32) uint32 {
	return c.Memory[addr]
}

func shiftRight(v, n uint32) uint32 {
	if n >= 32 {
		return 0
	}
	return v >> n
}

func shiftLeft(v, n uint32) uint32 {
	if n >= 32 {
		return 0
	}
	return v << n
}

func shiftRightArith(v, n uint32) uint32 {
	if n >= 32 {
		n = 31
	}
	return uint32(int32(v) >> n)
}

// Step executes one instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if c.PC == HaltAddress {
		c.Halted = true
		return nil
	}
	if int(c.PC) >= len(c.Program.Code) {
		return errors.Errorf("xx = %d is outside the program (%d instructions)", c.PC, len(c.Program.Code))
	}

	ins := c.Program.Code[c.PC]
	c.PC++
	c.Steps++

	args := ins.Args
	var err error
	switch ins.Op {
	case OpKRZ:
		err = c.Write(args[1], c.Read(args[0]))
	case OpMALKRZ:
		if c.Flag {
			err = c.Write(args[1], c.Read(args[0]))
		}
	case OpATA:
		err = c.Write(args[1], c.Read(args[1])+c.Read(args[0]))
	case OpNTA:
		err = c.Write(args[1], c.Read(args[1])-c.Read(args[0]))
	case OpADA:
		err = c.Write(args[1], c.Read(args[1])&c.Read(args[0]))
	case OpEKC:
		err = c.Write(args[1], c.Read(args[1])|c.Read(args[0]))
	case OpDAL:
		err = c.Write(args[1], ^(c.Read(args[1]) ^ c.Read(args[0])))
	case OpDTO:
		err = c.Write(args[1], shiftRight(c.Read(args[1]), c.Read(args[0])))
	case OpDRO:
		err = c.Write(args[1], shiftLeft(c.Read(args[1]), c.Read(args[0])))
	case OpDTOSNA:
		err = c.Write(args[1], shiftRightArith(c.Read(args[1]), c.Read(args[0])))
	case OpLAT, OpLATSNA:
		a, b := c.Read(args[0]), c.Read(args[1])
		var product uint64
		if ins.Op == OpLAT {
			product = uint64(a) * uint64(b)
		} else {
			product = uint64(int64(int32(a)) * int64(int32(b)))
		}
		if err = c.Write(args[1], uint32(product>>32)); err == nil {
			err = c.Write(args[2], uint32(product))
		}
	case OpFI:
		c.Flag = ins.Cond.holds(c.Read(args[0]), c.Read(args[1]))
	case OpINJ:
		a, b := c.Read(args[0]), c.Read(args[1])
		if err = c.Write(args[2], b); err == nil {
			err = c.Write(args[1], a)
		}
	default:
		err = errors.Errorf("unknown opcode %s", ins.Op)
	}
	if err != nil {
		return errors.Wrapf(err, "line %d: %s", ins.Line, ins.Op)
	}

	if c.PC == HaltAddress {
		c.Halted = true
	}
	return nil
}

// Run steps until the machine halts, an instruction fails, or maxSteps
// instructions have run.
func (c *CPU) Run(maxSteps int) error {
	for !c.Halted {
		if c.Steps >= maxSteps {
			return errors.Wrapf(ErrStepLimit, "after %d steps at xx = %d", c.Steps, c.PC)
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntilDone runs with DefaultMaxSteps.
func (c *CPU) RunUntilDone() error {
	return c.Run(DefaultMaxSteps)
}
