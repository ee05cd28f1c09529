package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by Lex and builds an AST.
// Parsing is fail-fast: the first violation aborts with an *Error.
//
// Grammar:
//
//	program    = (export | import | function | varDecl)* EOF
//	export     = "xok" IDENTIFIER
//	import     = "kue" IDENTIFIER
//	function   = "cersva" IDENTIFIER "(" [IDENTIFIER ("," IDENTIFIER)*] ")" "rinyv" statement* "situv"
//	varDecl    = "anax" IDENTIFIER [":" INTEGER] ["el" expression]
//	statement  = "dosnud" [expression] | varDecl | control | assignment
//	control    = ("fi" | "fal") expression "rinyv" statement* "situv"
//	assignment = expression "el" expression | expression "eksa" expression
//	expression = bit (compareOp bit)*
//	bit        = shift (("ada" | "ekc" | "dal") shift)*
//	shift      = additive (("dto" | "dro" | "dtosna") additive)*
//	additive   = multiplicative (("+" | "|") multiplicative)*
//	multiplicative = unary (("lat" | "latsna") unary)*
//	unary      = ("sna" | "nac") unary | index
//	index      = primary [":" index]
//	primary    = INTEGER | "#" IDENTIFIER | IDENTIFIER "(" [expression ("," expression)*] ")"
type Parser struct {
	tokens  []Token
	pos     int
	sources map[string][]string // file name -> source lines, for snippets
}

// NewParser prepares a parser over tokens. sources maps each input file name
// to its text and is only used to quote the offending line in diagnostics.
func NewParser(tokens []Token, sources map[string]string) *Parser {
	p := &Parser{tokens: tokens, sources: make(map[string][]string, len(sources))}
	for name, src := range sources {
		p.sources[name] = strings.Split(src, "\n")
	}
	return p
}

// fmtError builds a syntax error at tok, quoting the source line.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	return p.errorAt(SyntaxError, tok, format, args...)
}

func (p *Parser) errorAt(kind ErrorKind, tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Pos.Line - 1
	if lines, ok := p.sources[tok.Pos.Filename]; ok && lineIdx >= 0 && lineIdx < len(lines) {
		msg = fmt.Sprintf("%s\n  |> %s", msg, strings.TrimSpace(lines[lineIdx]))
	}
	return newError(kind, tok.Pos, "%s", msg)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	return p.peekAt(0)
}

// peekAt returns the token at the given offset from the current position.
// Past the end it returns EOF positioned at the last token.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		eof := Token{Type: EOF}
		if len(p.tokens) > 0 {
			eof.Pos = p.tokens[len(p.tokens)-1].Pos
		}
		return eof
	}
	return p.tokens[p.pos+offset]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt. Otherwise it fails
// with "Not found '<word>': <construct>".
func (p *Parser) expect(tt TokenType, construct string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "Not found '%s': %s, got %s", tt.Spelling(), construct, tok.describe())
	}
	return p.advance(), nil
}

// declName consumes the identifier being declared by keyword. All-digit
// names are rejected because they read as integer literals.
func (p *Parser) declName(keyword string) (Token, error) {
	tok := p.advance()
	switch tok.Type {
	case IDENTIFIER:
		return tok, nil
	case INTEGER:
		return tok, p.errorAt(SemanticError, tok, "Invalid identifier: %s %s", keyword, tok.Lexeme)
	default:
		return tok, p.fmtError(tok, "Invalid value: %s %s", keyword, tok.describe())
	}
}

// startsExpression reports whether tt can begin an expression.
func startsExpression(tt TokenType) bool {
	switch tt {
	case INTEGER, SHARP, IDENTIFIER, SNA, NAC:
		return true
	}
	return false
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseCompare()
}

// parseCompare handles xtlo, xylo, clo, niv, llo, xolo and the nys forms.
func (p *Parser) parseCompare() (Expr, error) {
	expr, err := p.parseBit()
	if err != nil {
		return nil, err
	}
	for p.peek().Type.IsCompare() {
		opTok := p.advance()
		right, err := p.parseBit()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: opTok.Type, Left: expr, Right: right, Pos: opTok.Pos}
	}
	return expr, nil
}

// parseBit handles ada, ekc and dal.
func (p *Parser) parseBit() (Expr, error) {
	expr, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == ADA || p.peek().Type == EKC || p.peek().Type == DAL {
		opTok := p.advance()
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: opTok.Type, Left: expr, Right: right, Pos: opTok.Pos}
	}
	return expr, nil
}

// parseShift handles dto, dro and dtosna.
func (p *Parser) parseShift() (Expr, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == DTO || p.peek().Type == DRO || p.peek().Type == DTOSNA {
		opTok := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: opTok.Type, Left: expr, Right: right, Pos: opTok.Pos}
	}
	return expr, nil
}

// parseAdditive handles + and |.
func (p *Parser) parseAdditive() (Expr, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == ATA || p.peek().Type == NTA {
		opTok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: opTok.Type, Left: expr, Right: right, Pos: opTok.Pos}
	}
	return expr, nil
}

// parseMultiplicative handles lat and latsna. kak and kaksna are words of
// the language without an instruction behind them.
func (p *Parser) parseMultiplicative() (Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.peek().Type
		if tt == KAK || tt == KAKSNA {
			return nil, p.fmtError(p.peek(), "Unsupported operator: %s", tt.Spelling())
		}
		if tt != LAT && tt != LATSNA {
			return expr, nil
		}
		opTok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: opTok.Type, Left: expr, Right: right, Pos: opTok.Pos}
	}
}

// parseUnary handles sna and nac, which nest to the right.
func (p *Parser) parseUnary() (Expr, error) {
	if tt := p.peek().Type; tt == SNA || tt == NAC {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: tt, Right: right}, nil
	}
	return p.parseIndex()
}

// parseIndex handles the right-associative ":" chain.
func (p *Parser) parseIndex() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != COLON {
		return expr, nil
	}
	opTok := p.advance()
	if _, ok := expr.(*Literal); ok {
		return nil, p.errorAt(SemanticError, opTok, "Invalid arguments: %s(Left: %s)", COLON, expr)
	}
	right, err := p.parseIndex()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Op: COLON, Left: expr, Right: right, Pos: opTok.Pos}, nil
}

// parsePrimary handles integers, #variables and calls.
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.advance()
		val, err := strconv.ParseUint(tok.Lexeme, 10, 32)
		if err != nil {
			return nil, p.fmtError(tok, "integer %q out of 32-bit range", tok.Lexeme)
		}
		return &Literal{Value: uint32(val)}, nil

	case SHARP:
		p.advance()
		name := p.advance()
		if name.Type != IDENTIFIER {
			return nil, p.fmtError(name, "Invalid token: # %s", name.describe())
		}
		return &VarRef{Name: name.Lexeme, Pos: tok.Pos}, nil

	case IDENTIFIER:
		p.advance()
		construct := "fenxe " + tok.Lexeme
		if _, err := p.expect(LPAREN, construct); err != nil {
			return nil, err
		}
		args, err := p.parseCallArgs(construct)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{Name: tok.Lexeme, Args: args, Pos: tok.Pos}, nil

	default:
		return nil, p.fmtError(tok, "expected expression, got %s", tok.describe())
	}
}

// parseCallArgs parses arguments after "(" up to and including ")".
func (p *Parser) parseCallArgs(construct string) ([]Expr, error) {
	var args []Expr
	if p.peek().Type == RPAREN {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.peek().Type {
		case COMMA:
			p.advance()
		case RPAREN:
			p.advance()
			return args, nil
		default:
			return nil, p.fmtError(p.peek(), "Not found ')': %s, got %s", construct, p.peek().describe())
		}
	}
}

// parseVarDecl parses a declaration after "anax".
func (p *Parser) parseVarDecl() (*VariableDecl, error) {
	nameTok, err := p.declName("anax")
	if err != nil {
		return nil, err
	}
	decl := &VariableDecl{Name: nameTok.Lexeme, Length: 1, Pos: nameTok.Pos}

	if p.peek().Type == COLON {
		p.advance()
		lenTok := p.advance()
		if lenTok.Type != INTEGER {
			return nil, p.errorAt(SemanticError, lenTok, "Array length is only constant value: anax %s", decl.Name)
		}
		n, err := strconv.ParseUint(lenTok.Lexeme, 10, 31)
		if err != nil || n == 0 {
			return nil, p.errorAt(SemanticError, lenTok, "Invalid array length %s: anax %s", lenTok.Lexeme, decl.Name)
		}
		decl.Length = int(n)
	}

	if p.peek().Type == EL {
		p.advance()
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	return decl, nil
}

// isAssignable reports whether e can be stored into.
func isAssignable(e Expr) bool {
	switch n := e.(type) {
	case *VarRef:
		return true
	case *BinaryExpr:
		return n.Op == COLON
	}
	return false
}

// parseAssignment parses "target el value" or "value eksa target".
func (p *Parser) parseAssignment() (Stmt, error) {
	start := p.peek()
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	opTok := p.peek()
	if opTok.Type != EL && opTok.Type != EKSA {
		return nil, p.fmtError(start, "Invalid statement: %s", left)
	}
	p.advance()

	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	target, value := left, right
	if opTok.Type == EKSA {
		target, value = right, left
	}
	if !isAssignable(target) {
		return nil, p.fmtError(opTok, "Invalid arguments: %s(Left: %s, Right: %s)", opTok.Type, left, right)
	}
	return &Assignment{Target: target, Value: value, Pos: opTok.Pos}, nil
}

// parseReturn parses "dosnud" with an optional value.
func (p *Parser) parseReturn() (Stmt, error) {
	p.advance()
	if !startsExpression(p.peek().Type) {
		return &ReturnStmt{}, nil
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ReturnStmt{Expr: expr}, nil
}

// parseControl parses fi and fal blocks.
func (p *Parser) parseControl() (Stmt, error) {
	kw := p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	construct := fmt.Sprintf("%s %s", kw.Type.Spelling(), cond)

	if _, err := p.expect(RINYV, construct); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SITUV, construct); err != nil {
		return nil, err
	}

	if kw.Type == FI {
		return &IfStmt{Condition: cond, Body: body}, nil
	}
	return &WhileStmt{Condition: cond, Body: body}, nil
}

// parseBody parses statements up to, not including, "situv".
func (p *Parser) parseBody() ([]Stmt, error) {
	var stmts []Stmt
	for p.peek().Type != SITUV && p.peek().Type != EOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (Stmt, error) {
	switch p.peek().Type {
	case DOSNUD:
		return p.parseReturn()
	case ANAX:
		p.advance()
		return p.parseVarDecl()
	case FI, FAL:
		return p.parseControl()
	default:
		return p.parseAssignment()
	}
}

// parseFunctionDecl parses a definition after "cersva".
func (p *Parser) parseFunctionDecl() (Stmt, error) {
	nameTok, err := p.declName("cersva")
	if err != nil {
		return nil, err
	}
	fn := &FunctionDecl{Name: nameTok.Lexeme, Pos: nameTok.Pos}
	construct := "cersva " + fn.Name

	if _, err := p.expect(LPAREN, construct); err != nil {
		return nil, err
	}
	if p.peek().Type != RPAREN {
		for {
			paramTok, err := p.declName("anax")
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, &VariableDecl{Name: paramTok.Lexeme, Length: 1, Pos: paramTok.Pos})
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN, construct); err != nil {
		return nil, err
	}
	if _, err := p.expect(RINYV, construct); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SITUV, construct); err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

// parseTopLevel parses one file-scope declaration.
func (p *Parser) parseTopLevel() (Stmt, error) {
	tok := p.advance()
	switch tok.Type {
	case XOK:
		name, err := p.declName("xok")
		if err != nil {
			return nil, err
		}
		return &ExportDecl{Name: name.Lexeme, Pos: name.Pos}, nil
	case KUE:
		name, err := p.declName("kue")
		if err != nil {
			return nil, err
		}
		return &ImportDecl{Name: name.Lexeme, Pos: name.Pos}, nil
	case CERSVA:
		return p.parseFunctionDecl()
	case ANAX:
		return p.parseVarDecl()
	default:
		return nil, p.fmtError(tok, "%s found outside of function body", tok.describe())
	}
}

// Parse builds the AST of a whole translation unit.
func Parse(tokens []Token, sources map[string]string) ([]Stmt, error) {
	p := NewParser(tokens, sources)
	var stmts []Stmt
	for p.peek().Type != EOF {
		s, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}
