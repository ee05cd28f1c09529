package compiler

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/lexer"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
// genExpr leaves the result in the register it is asked for (f0 or f1).
type Expr interface {
	exprNode()
	String() string
}

// Literal is an integer constant.
//
//	dosnud 10
//	       ^^  Literal{Value: 10}
type Literal struct {
	Value uint32
}

func (*Literal) exprNode()        {}
func (l *Literal) String() string { return fmt.Sprintf("%d", l.Value) }

// VarRef is a read of a named variable, written with the sigil.
//
//	dosnud #x
//	       ^^  VarRef{Name: "x"}
type VarRef struct {
	Name string
	Pos  lexer.Position
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return "#" + v.Name }

// BinaryExpr represents Left Op Right. Op COLON is element access: Left is
// the array variable and Right the index.
//
//	#a : 2 + 1
//	^^ ^ ^
//	|  | |
//	|  | Right
//	|  Op
//	Left
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
	Pos   lexer.Position // position of the operator word
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryExpr represents Op Right for sna and nac.
type UnaryExpr struct {
	Op    TokenType
	Right Expr
}

func (*UnaryExpr) exprNode()        {}
func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s %s)", u.Op, u.Right) }

// FunctionCall represents name(args). A bare identifier in an expression is
// always a call.
type FunctionCall struct {
	Name string
	Args []Expr
	Pos  lexer.Position
}

func (*FunctionCall) exprNode() {}
func (c *FunctionCall) String() string {
	return fmt.Sprintf("FunctionCall(%s, args=%v)", c.Name, c.Args)
}

//  Statement nodes

// Stmt is implemented by every statement and top-level declaration.
type Stmt interface {
	stmtNode()
	String() string
}

// ExportDecl is "xok name".
type ExportDecl struct {
	Name string
	Pos  lexer.Position
}

func (*ExportDecl) stmtNode()        {}
func (e *ExportDecl) String() string { return fmt.Sprintf("Export(%s)", e.Name) }

// ImportDecl is "kue name".
type ImportDecl struct {
	Name string
	Pos  lexer.Position
}

func (*ImportDecl) stmtNode()        {}
func (i *ImportDecl) String() string { return fmt.Sprintf("Import(%s)", i.Name) }

// VariableDecl declares a scalar (Length 1) or an array.
//
//	anax buf : 4
//	     ^^^   ^  VariableDecl{Name: "buf", Length: 4}
//	anax x el 5
//	     ^    ^   VariableDecl{Name: "x", Length: 1, Init: Literal{5}}
type VariableDecl struct {
	Name   string
	Length int
	Init   Expr // nil when there is no initializer
	Pos    lexer.Position
}

func (*VariableDecl) stmtNode() {}
func (v *VariableDecl) String() string {
	if v.Init != nil {
		return fmt.Sprintf("VariableDecl(%s[%d] = %s)", v.Name, v.Length, v.Init)
	}
	return fmt.Sprintf("VariableDecl(%s[%d])", v.Name, v.Length)
}

// Assignment stores Value into Target. Both "el" and "eksa" produce it;
// Target is always a VarRef or a COLON BinaryExpr.
type Assignment struct {
	Target Expr
	Value  Expr
	Pos    lexer.Position
}

func (*Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("Assign(%s = %s)", a.Target, a.Value)
}

// ReturnStmt is "dosnud [expr]".
type ReturnStmt struct {
	Expr Expr // nil for a bare dosnud
}

func (*ReturnStmt) stmtNode() {}
func (r *ReturnStmt) String() string {
	if r.Expr == nil {
		return "Return"
	}
	return fmt.Sprintf("Return(%s)", r.Expr)
}

// IfStmt runs Body at most once.
type IfStmt struct {
	Condition Expr
	Body      []Stmt
}

func (*IfStmt) stmtNode() {}
func (i *IfStmt) String() string {
	return fmt.Sprintf("If(%s, %s)", i.Condition, stmtList(i.Body))
}

// WhileStmt re-tests Condition before every run of Body.
type WhileStmt struct {
	Condition Expr
	Body      []Stmt
}

func (*WhileStmt) stmtNode() {}
func (w *WhileStmt) String() string {
	return fmt.Sprintf("While(%s, %s)", w.Condition, stmtList(w.Body))
}

// FunctionDecl is "cersva name(params) rinyv body situv".
type FunctionDecl struct {
	Name   string
	Params []*VariableDecl
	Body   []Stmt
	Pos    lexer.Position
}

func (*FunctionDecl) stmtNode() {}
func (f *FunctionDecl) String() string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return fmt.Sprintf("Function(%s(%s), %s)", f.Name, strings.Join(names, ", "), stmtList(f.Body))
}

func stmtList(stmts []Stmt) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
