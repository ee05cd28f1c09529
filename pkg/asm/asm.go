package asm

import (
	"strconv"
	"strings"

	"github.com/jurliyuuri/tinka/pkg/cpu"
	"github.com/pkg/errors"
)

// Header is the mode line that starts every program.
const Header = "'i'c"

var twoOperandOps = map[string]cpu.Opcode{
	"krz":    cpu.OpKRZ,
	"malkrz": cpu.OpMALKRZ,
	"ata":    cpu.OpATA,
	"nta":    cpu.OpNTA,
	"ada":    cpu.OpADA,
	"ekc":    cpu.OpEKC,
	"dal":    cpu.OpDAL,
	"dto":    cpu.OpDTO,
	"dro":    cpu.OpDRO,
	"dtosna": cpu.OpDTOSNA,
}

var threeOperandOps = map[string]cpu.Opcode{
	"lat":    cpu.OpLAT,
	"latsna": cpu.OpLATSNA,
	"fi":     cpu.OpFI,
	"inj":    cpu.OpINJ,
}

// directives take one name and emit no instruction.
var directives = map[string]bool{
	"nll": true,
	"l'":  true,
	"xok": true,
	"kue": true,
}

var registers = map[string]cpu.Register{
	"f0": cpu.F0,
	"f1": cpu.F1,
	"f2": cpu.F2,
	"f3": cpu.F3,
	"f4": cpu.F4,
	"f5": cpu.F5,
	"f6": cpu.F6,
	"f7": cpu.F7,
	"xx": cpu.XX,
}

type Assembler struct {
	labels  map[string]uint32
	imports map[string]bool
	exports []string
}

// word is one whitespace-separated item of the source with its line.
type word struct {
	text   string
	lineNo int
}

// parsedInstruction is an instruction whose operands are still text.
type parsedInstruction struct {
	lineNo   int
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels:  make(map[string]uint32),
		imports: make(map[string]bool),
	}
}

func Assemble(code string) (*cpu.Program, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*cpu.Program, error) {
	words, err := splitWords(code)
	if err != nil {
		return nil, err
	}

	parsed, err := a.pass1(words)
	if err != nil {
		return nil, err
	}

	return a.pass2(parsed)
}

// splitWords drops comments and the mode header and returns the rest.
func splitWords(code string) ([]word, error) {
	var words []word
	for i, raw := range strings.Split(code, "\n") {
		for _, f := range strings.Fields(stripComments(raw)) {
			if f == Header {
				continue
			}
			if f == "'c'i" {
				return nil, errors.Errorf("line %d: big-endian mode 'c'i is not supported", i+1)
			}
			words = append(words, word{text: f, lineNo: i + 1})
		}
	}
	return words, nil
}

// pass1 groups words into instructions and assigns every label its
// instruction index. nll labels the next instruction, l' the previous one.
func (a *Assembler) pass1(words []word) ([]parsedInstruction, error) {
	var parsed []parsedInstruction
	var pending []word

	define := func(name word, addr int) error {
		if !isIdentifier(name.text) {
			return errors.Errorf("line %d: invalid label '%s'", name.lineNo, name.text)
		}
		if _, exists := a.labels[name.text]; exists {
			return errors.Errorf("line %d: duplicate label '%s'", name.lineNo, name.text)
		}
		a.labels[name.text] = uint32(addr)
		return nil
	}

	for i := 0; i < len(words); {
		w := words[i]
		mnemonic := strings.ToLower(w.text)

		n, ok := operandCount(mnemonic)
		if !ok {
			return nil, errors.Errorf("line %d: unknown instruction '%s'", w.lineNo, w.text)
		}
		if i+n >= len(words) {
			return nil, errors.Errorf("line %d: %s expects %d operand(s)", w.lineNo, mnemonic, n)
		}
		operands := make([]string, n)
		for j := 0; j < n; j++ {
			operands[j] = words[i+1+j].text
		}
		i += 1 + n

		if directives[mnemonic] {
			name := word{text: operands[0], lineNo: w.lineNo}
			switch mnemonic {
			case "nll":
				pending = append(pending, name)
			case "l'":
				if len(parsed) == 0 {
					return nil, errors.Errorf("line %d: l' %s has no preceding instruction", w.lineNo, name.text)
				}
				if err := define(name, len(parsed)-1); err != nil {
					return nil, err
				}
			case "xok":
				a.exports = append(a.exports, name.text)
			case "kue":
				a.imports[name.text] = true
			}
			continue
		}

		for _, lbl := range pending {
			if err := define(lbl, len(parsed)); err != nil {
				return nil, err
			}
		}
		pending = pending[:0]
		parsed = append(parsed, parsedInstruction{lineNo: w.lineNo, mnemonic: mnemonic, operands: operands})
	}

	// Labels after the last instruction point one past the end.
	for _, lbl := range pending {
		if err := define(lbl, len(parsed)); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

func (a *Assembler) pass2(parsed []parsedInstruction) (*cpu.Program, error) {
	prog := &cpu.Program{
		Code:    make([]cpu.Instruction, 0, len(parsed)),
		Labels:  a.labels,
		Exports: a.exports,
	}
	for name := range a.imports {
		prog.Imports = append(prog.Imports, name)
	}

	for _, name := range a.exports {
		if _, ok := a.labels[name]; !ok {
			return nil, errors.Errorf("xok %s: label is not defined", name)
		}
	}

	for _, p := range parsed {
		ins := cpu.Instruction{Line: p.lineNo}
		if op, ok := twoOperandOps[p.mnemonic]; ok {
			ins.Op = op
		} else {
			ins.Op = threeOperandOps[p.mnemonic]
		}

		operands := p.operands
		if ins.Op == cpu.OpFI {
			cond, ok := cpu.Conds[strings.ToLower(operands[2])]
			if !ok {
				return nil, errors.Errorf("line %d: unknown comparison '%s'", p.lineNo, operands[2])
			}
			ins.Cond = cond
			operands = operands[:2]
		}

		for j, text := range operands {
			o, err := a.parseOperand(text, p.lineNo)
			if err != nil {
				return nil, err
			}
			if j > 0 && ins.Op != cpu.OpFI && o.Kind == cpu.Imm {
				return nil, errors.Errorf("line %d: %s cannot write to '%s'", p.lineNo, p.mnemonic, text)
			}
			ins.Args = append(ins.Args, o)
		}
		prog.Code = append(prog.Code, ins)
	}
	return prog, nil
}

func stripComments(line string) string {
	if semicolon := strings.Index(line, ";"); semicolon >= 0 {
		return line[:semicolon]
	}
	return line
}

func operandCount(mnemonic string) (int, bool) {
	if _, ok := twoOperandOps[mnemonic]; ok {
		return 2, true
	}
	if _, ok := threeOperandOps[mnemonic]; ok {
		return 3, true
	}
	if directives[mnemonic] {
		return 1, true
	}
	return 0, false
}

func parseRegister(token string) (cpu.Register, bool) {
	r, ok := registers[strings.ToLower(token)]
	return r, ok
}

// parseOperand decodes f0, 12, label, f5@, f3+4294967292@ or f0+f1@.
func (a *Assembler) parseOperand(token string, lineNo int) (cpu.Operand, error) {
	if strings.HasSuffix(token, "@") {
		inner := strings.TrimSuffix(token, "@")
		baseText, rest, hasDisp := strings.Cut(inner, "+")
		base, ok := parseRegister(baseText)
		if !ok {
			return cpu.Operand{}, errors.Errorf("line %d: invalid memory operand '%s'", lineNo, token)
		}
		o := cpu.Operand{Kind: cpu.Mem, Reg: base}
		if !hasDisp {
			return o, nil
		}
		if idx, ok := parseRegister(rest); ok {
			o.Index = idx
			o.HasIndex = true
			return o, nil
		}
		v, label, err := a.parseImmediate(rest, lineNo)
		if err != nil {
			return cpu.Operand{}, err
		}
		o.Value, o.Label = v, label
		return o, nil
	}

	if r, ok := parseRegister(token); ok {
		return cpu.Operand{Kind: cpu.Reg, Reg: r}, nil
	}

	v, label, err := a.parseImmediate(token, lineNo)
	if err != nil {
		return cpu.Operand{}, err
	}
	return cpu.Operand{Kind: cpu.Imm, Value: v, Label: label}, nil
}

// parseImmediate accepts a decimal number or a label. Labels resolve to the
// index of the instruction they name.
func (a *Assembler) parseImmediate(token string, lineNo int) (uint32, string, error) {
	if isNumber(token) {
		value, err := strconv.ParseUint(token, 10, 32)
		if err != nil {
			return 0, "", errors.Errorf("line %d: immediate out of range: %s", lineNo, token)
		}
		return uint32(value), "", nil
	}

	if addr, ok := a.labels[token]; ok {
		return addr, token, nil
	}

	if a.imports[token] {
		return 0, "", errors.Errorf("line %d: label '%s' is imported by kue and not defined here", lineNo, token)
	}
	if isIdentifier(token) {
		return 0, "", errors.Errorf("line %d: undefined label '%s'", lineNo, token)
	}
	return 0, "", errors.Errorf("line %d: invalid operand '%s'", lineNo, token)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isIdentifier reports whether s can name a label: not a number, not a
// register, and free of the operand punctuation.
func isIdentifier(s string) bool {
	if s == "" || isNumber(s) || strings.ContainsAny(s, "@+;") {
		return false
	}
	_, isReg := parseRegister(s)
	return !isReg
}
