package compiler

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes stmts back to w as canonical source text. Parsing the output
// yields the same tree.
func Fprint(w io.Writer, stmts []Stmt) error {
	p := &printer{w: w}
	for i, s := range stmts {
		if _, ok := s.(*FunctionDecl); ok && i > 0 {
			p.printf("\n")
		}
		p.stmt(s)
	}
	return p.err
}

// Sprint is Fprint into a string.
func Sprint(stmts []Stmt) string {
	var sb strings.Builder
	_ = Fprint(&sb, stmts)
	return sb.String()
}

type printer struct {
	w      io.Writer
	indent int
	err    error // first write error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) linef(format string, args ...any) {
	p.printf("%s%s\n", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

func (p *printer) stmt(s Stmt) {
	switch n := s.(type) {
	case *ExportDecl:
		p.linef("xok %s", n.Name)
	case *ImportDecl:
		p.linef("kue %s", n.Name)
	case *VariableDecl:
		text := "anax " + n.Name
		if n.Length != 1 {
			text += fmt.Sprintf(" : %d", n.Length)
		}
		if n.Init != nil {
			text += " el " + exprString(n.Init)
		}
		p.linef("%s", text)
	case *Assignment:
		p.linef("%s el %s", exprString(n.Target), exprString(n.Value))
	case *ReturnStmt:
		if n.Expr == nil {
			p.linef("dosnud")
		} else {
			p.linef("dosnud %s", exprString(n.Expr))
		}
	case *IfStmt:
		p.block("fi "+exprString(n.Condition), n.Body)
	case *WhileStmt:
		p.block("fal "+exprString(n.Condition), n.Body)
	case *FunctionDecl:
		names := make([]string, len(n.Params))
		for i, param := range n.Params {
			names[i] = param.Name
		}
		p.block(fmt.Sprintf("cersva %s(%s)", n.Name, strings.Join(names, ", ")), n.Body)
	}
}

func (p *printer) block(head string, body []Stmt) {
	p.linef("%s rinyv", head)
	p.indent++
	for _, s := range body {
		p.stmt(s)
	}
	p.indent--
	p.linef("situv")
}

// exprString renders e without grouping; the parser's precedence levels
// rebuild the same tree.
func exprString(e Expr) string {
	switch n := e.(type) {
	case *Literal:
		return fmt.Sprintf("%d", n.Value)
	case *VarRef:
		return "#" + n.Name
	case *UnaryExpr:
		return n.Op.Spelling() + " " + exprString(n.Right)
	case *BinaryExpr:
		return exprString(n.Left) + " " + n.Op.Spelling() + " " + exprString(n.Right)
	case *FunctionCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
	}
	return ""
}
