package compiler

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// CodeGen walks an AST and emits 2003lk assembly text.
//
// Register use: f0 is the primary result register and f1 the secondary,
// f5 is the stack pointer, f3 the frame base and f2 the global base.
// Operands are written source first, destination last.
type CodeGen struct {
	syms      *SymbolTable
	out       strings.Builder
	nextLabel int
	entry     string
}

func newCodeGen(syms *SymbolTable, opts Options) *CodeGen {
	return &CodeGen{syms: syms, entry: opts.EntryPoint}
}

// newLabel returns the next block number; labels built from it are unique
// across the whole translation unit.
func (cg *CodeGen) newLabel() int {
	cg.nextLabel++
	return cg.nextLabel
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

// mnemonics maps binary operators to the instruction that applies them as
// "op f1 f0".
var mnemonics = map[TokenType]string{
	ATA:    "ata",
	NTA:    "nta",
	ADA:    "ada",
	EKC:    "ekc",
	DAL:    "dal",
	DTO:    "dto",
	DRO:    "dro",
	DTOSNA: "dtosna",
	LAT:    "lat",
	LATSNA: "latsna",
}

// isLeaf reports whether e loads with one instruction and touches no
// other register.
func isLeaf(e Expr) bool {
	switch e.(type) {
	case *Literal, *VarRef:
		return true
	}
	return false
}

func (cg *CodeGen) lookup(ref *VarRef, sc *Scope) (Symbol, error) {
	sym, ok := sc.Lookup(ref.Name)
	if !ok {
		return Symbol{}, newError(SemanticError, ref.Pos, "Not found variable name : #%s", ref.Name)
	}
	return sym, nil
}

// arrayBase resolves the variable on the left of ":".
func (cg *CodeGen) arrayBase(n *BinaryExpr, sc *Scope) (*VarRef, Symbol, error) {
	ref, ok := n.Left.(*VarRef)
	if !ok {
		return nil, Symbol{}, newError(SemanticError, n.Pos, "Invalid arguments: %s(Left: %s) is not a variable", COLON, n.Left)
	}
	sym, err := cg.lookup(ref, sc)
	return ref, sym, err
}

// genExpr evaluates e into reg. Anything but a leaf is computed in f0; when
// reg is f1 the caller's f0 is kept in a pushed stack cell meanwhile.
func (cg *CodeGen) genExpr(e Expr, reg string, sc *Scope) error {
	if reg != "f0" && !isLeaf(e) {
		cg.line("nta 4 f5 krz f0 f5@")
		if err := cg.genExpr(e, "f0", sc); err != nil {
			return err
		}
		cg.line("krz f0 %s krz f5@ f0 ata 4 f5", reg)
		return nil
	}

	switch n := e.(type) {
	case *Literal:
		cg.line("krz %d %s", n.Value, reg)

	case *VarRef:
		sym, err := cg.lookup(n, sc)
		if err != nil {
			return err
		}
		cg.line("krz %s %s ; #%s", sym.Addr(), reg, n.Name)

	case *UnaryExpr:
		if err := cg.genExpr(n.Right, "f0", sc); err != nil {
			return err
		}
		switch n.Op {
		case SNA:
			cg.line("dal 0 f0 ata 1 f0 ; sna")
		case NAC:
			cg.line("dal 0 f0 ; nac")
		default:
			return errors.Errorf("codegen: unknown unary operator %s", n.Op)
		}

	case *BinaryExpr:
		switch {
		case n.Op == COLON:
			return cg.genIndex(n, sc)
		case n.Op.IsCompare():
			return cg.genCompare(n, sc)
		default:
			return cg.genArith(n, sc)
		}

	case *FunctionCall:
		return cg.genCall(n, sc)

	default:
		return errors.Errorf("codegen: unknown expression %T", e)
	}
	return nil
}

func (cg *CodeGen) genArith(n *BinaryExpr, sc *Scope) error {
	op, ok := mnemonics[n.Op]
	if !ok {
		return newError(SemanticError, n.Pos, "Invalid operator: %s", n.Op)
	}
	if err := cg.genExpr(n.Left, "f0", sc); err != nil {
		return err
	}
	if err := cg.genExpr(n.Right, "f1", sc); err != nil {
		return err
	}
	if n.Op == LAT || n.Op == LATSNA {
		cg.line("%s f1 f0 f0", op)
	} else {
		cg.line("%s f1 f0", op)
	}
	return nil
}

// genCompare leaves 0 or 1 in f0 through a stack cell that starts at 0 and
// is overwritten with 1 when the comparison holds.
func (cg *CodeGen) genCompare(n *BinaryExpr, sc *Scope) error {
	if err := cg.genExpr(n.Left, "f0", sc); err != nil {
		return err
	}
	if isLeaf(n.Right) {
		if err := cg.genExpr(n.Right, "f1", sc); err != nil {
			return err
		}
		cg.line("nta 4 f5 krz 0 f5@")
	} else {
		cg.line("nta 4 f5 krz f0 f5@")
		if err := cg.genExpr(n.Right, "f0", sc); err != nil {
			return err
		}
		cg.line("inj f5@ f0 f1 krz 0 f5@")
	}
	cg.line("fi f0 f1 %s malkrz 1 f5@", n.Op.Spelling())
	cg.line("krz f5@ f0 ata 4 f5")
	return nil
}

// genIndex loads an array element: the address of the base variable goes to
// f0, the scaled index to f1.
func (cg *CodeGen) genIndex(n *BinaryExpr, sc *Scope) error {
	ref, sym, err := cg.arrayBase(n, sc)
	if err != nil {
		return err
	}
	cg.line("krz %s f0 ata %s f0 ; #%s", sym.Base(), offsetOperand(sym.Offset), ref.Name)
	if err := cg.genExpr(n.Right, "f1", sc); err != nil {
		return err
	}
	cg.line("dro 2 f1")
	cg.line("krz f0+f1@ f0 ; #%s:%s", ref.Name, n.Right)
	return nil
}

// genCall reserves a return slot plus one slot per argument. Arguments are
// stored left to right, the last one next to the return slot.
func (cg *CodeGen) genCall(n *FunctionCall, sc *Scope) error {
	slots := len(n.Args) + 1
	cg.line("nta %d f5 ; fenxe %s", cellSize*slots, n.Name)
	for i, arg := range n.Args {
		if err := cg.genExpr(arg, "f0", sc); err != nil {
			return err
		}
		cg.line("krz f0 f5+%d@", cellSize*(slots-1-i))
	}
	cg.line("inj %s xx f5@ ata %d f5", n.Name, cellSize*slots)
	return nil
}

// genStore writes f0 into target.
func (cg *CodeGen) genStore(target Expr, sc *Scope) error {
	switch t := target.(type) {
	case *VarRef:
		sym, err := cg.lookup(t, sc)
		if err != nil {
			return err
		}
		cg.line("krz f0 %s ; #%s el f0", sym.Addr(), t.Name)
		return nil

	case *BinaryExpr:
		if t.Op != COLON {
			break
		}
		ref, sym, err := cg.arrayBase(t, sc)
		if err != nil {
			return err
		}
		if err := cg.genExpr(t.Right, "f1", sc); err != nil {
			return err
		}
		cg.line("dro 2 f1")
		cg.line("ata %s f1", offsetOperand(sym.Offset))
		cg.line("krz f0 %s+f1@ ; #%s:%s el f0", sym.Base(), ref.Name, t.Right)
		return nil
	}
	return errors.Errorf("codegen: cannot assign to %s", target)
}

func (cg *CodeGen) genReturn() {
	cg.line("krz f3 f5 ; restore stack pointer")
	cg.line("krz f5@ f3 ata 4 f5")
	cg.line("krz f5@ xx ; dosnud")
}

// directCells counts the cells declared directly in body, not in nested blocks.
func directCells(body []Stmt) int {
	n := 0
	for _, s := range body {
		if decl, ok := s.(*VariableDecl); ok {
			n += decl.Length
		}
	}
	return n
}

// countCells counts the cells declared anywhere in body.
func countCells(body []Stmt) int {
	n := 0
	for _, s := range body {
		switch st := s.(type) {
		case *VariableDecl:
			n += st.Length
		case *IfStmt:
			n += countCells(st.Body)
		case *WhileStmt:
			n += countCells(st.Body)
		}
	}
	return n
}

func (cg *CodeGen) genBody(body []Stmt, sc *Scope) error {
	for _, s := range body {
		if err := cg.genStmt(s, sc); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genStmt(s Stmt, sc *Scope) error {
	switch n := s.(type) {
	case *VariableDecl:
		if n.Init != nil && n.Length != 1 {
			return newError(SemanticError, n.Pos, "Invalid operation: anax %s : %d has an initializer", n.Name, n.Length)
		}
		if n.Init != nil {
			if err := cg.genExpr(n.Init, "f0", sc); err != nil {
				return err
			}
		}
		sym, err := sc.Declare(n)
		if err != nil {
			return err
		}
		if n.Init != nil {
			cg.line("krz f0 %s ; anax #%s el f0", sym.Addr(), n.Name)
		}

	case *Assignment:
		if err := cg.genExpr(n.Value, "f0", sc); err != nil {
			return err
		}
		return cg.genStore(n.Target, sc)

	case *ReturnStmt:
		if n.Expr != nil {
			if err := cg.genExpr(n.Expr, "f0", sc); err != nil {
				return err
			}
		}
		cg.genReturn()

	case *IfStmt:
		id := cg.newLabel()
		exit := fmt.Sprintf("fi_situv_%d", id)
		size := cellSize * directCells(n.Body)

		cg.line("nta %d f5 ; fi", size)
		if err := cg.genExpr(n.Condition, "f0", sc); err != nil {
			return err
		}
		cg.line("fi f0 0 clo malkrz %s xx", exit)
		if err := cg.genBody(n.Body, sc.Enter()); err != nil {
			return err
		}
		cg.line("nll %s", exit)
		cg.line("ata %d f5", size)

	case *WhileStmt:
		id := cg.newLabel()
		top := fmt.Sprintf("fal_rinyv_%d", id)
		exit := fmt.Sprintf("fal_situv_%d", id)
		size := cellSize * directCells(n.Body)

		cg.line("nta %d f5 ; fal", size)
		cg.line("nll %s", top)
		if err := cg.genExpr(n.Condition, "f0", sc); err != nil {
			return err
		}
		cg.line("fi f0 0 clo malkrz %s xx", exit)
		if err := cg.genBody(n.Body, sc.Enter()); err != nil {
			return err
		}
		cg.line("krz %s xx", top)
		cg.line("nll %s", exit)
		cg.line("ata %d f5", size)

	default:
		return errors.Errorf("codegen: unknown statement %T", s)
	}
	return nil
}

func (cg *CodeGen) genFunction(fn *FunctionDecl) error {
	cells := countCells(fn.Body)
	sc := cg.syms.EnterFunction(fn.Name, cells)

	cg.line("nll %s ; cersva %s", fn.Name, fn.Name)
	cg.line("nta 4 f5 krz f3 f5@ ; allocate variables")
	cg.line("krz f5 f3")
	cg.line("nta %d f5", cellSize*cells)

	if err := sc.BindParams(fn.Params); err != nil {
		return err
	}
	if err := cg.genBody(fn.Body, sc); err != nil {
		return err
	}
	if len(fn.Body) == 0 {
		cg.genReturn()
	} else if _, ok := fn.Body[len(fn.Body)-1].(*ReturnStmt); !ok {
		cg.genReturn()
	}
	cg.line("")
	return nil
}

// Generate emits the program for a parsed translation unit. It checks call
// arity first, optionally drops unreachable functions, then lays out the globals, writes the prologue that runs the
// global initializers and calls the entry function, and finally emits every
// top-level declaration in source order.
func Generate(stmts []Stmt, syms *SymbolTable, opts Options) (string, error) {
	if err := checkCalls(stmts); err != nil {
		return "", err
	}
	if opts.DropUnused {
		stmts = eliminateDeadFunctions(stmts, opts.EntryPoint)
	}

	cg := newCodeGen(syms, opts)

	// PRE-PASS: every global gets its cells before any code refers to it.
	var globals []*VariableDecl
	for _, s := range stmts {
		if decl, ok := s.(*VariableDecl); ok {
			if _, err := syms.DefineGlobal(decl); err != nil {
				return "", err
			}
			globals = append(globals, decl)
		}
	}

	cg.line("'i'c")
	cg.line("nta 4 f5 krz f2 f5@ ; (global) allocate variables")
	cg.line("krz f5 f2")
	cg.line("nta %d f5", cellSize*syms.GlobalCells())

	gs := syms.GlobalScope()
	for _, decl := range globals {
		if decl.Init == nil {
			continue
		}
		if decl.Length != 1 {
			return "", newError(SemanticError, decl.Pos, "Invalid operation: anax %s : %d has an initializer", decl.Name, decl.Length)
		}
		if err := cg.genExpr(decl.Init, "f0", gs); err != nil {
			return "", err
		}
		sym, _ := gs.Lookup(decl.Name)
		cg.line("krz f0 %s ; anax #%s el f0", sym.Addr(), decl.Name)
	}

	cg.line("nta 4 f5 inj %s xx f5@ ata 4 f5 ; (global) call %s", cg.entry, cg.entry)
	cg.line("krz f2 f5 ; (global) restore stack pointer")
	cg.line("krz f5@ f2 ata 4 f5")
	cg.line("krz f5@ xx ; (global) application end")
	cg.line("")

	for _, s := range stmts {
		switch n := s.(type) {
		case *ExportDecl:
			cg.line("xok %s", n.Name)
		case *ImportDecl:
			cg.line("kue %s", n.Name)
		case *FunctionDecl:
			if err := cg.genFunction(n); err != nil {
				return "", err
			}
		case *VariableDecl:
			// laid out by the prologue
		default:
			return "", errors.Errorf("codegen: unexpected top-level %T", s)
		}
	}
	return cg.out.String(), nil
}
