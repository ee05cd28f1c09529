package compiler

import (
	"fmt"

	"github.com/alecthomas/participle/lexer"
	"github.com/pkg/errors"
)

// ErrorKind classifies a fatal translation error.
type ErrorKind int

const (
	LexicalError  ErrorKind = iota // unterminated comment
	SyntaxError                    // unexpected token, malformed construct
	SemanticError                  // unresolved or duplicate names, arity, operand shape
)

func (k ErrorKind) String() string {
	switch k {
	case LexicalError:
		return "lexical error"
	case SyntaxError:
		return "syntax error"
	case SemanticError:
		return "semantic error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single fatal condition raised by every stage of the pipeline.
// Use errors.Cause to recover it from a wrapped error.
type Error struct {
	Kind ErrorKind
	Pos  lexer.Position // zero when the construct has no source position
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s: %s: %s", formatPos(e.Pos), e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind ErrorKind, pos lexer.Position, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// formatPos renders a position as file:line:col, or line:col for unnamed input.
func formatPos(pos lexer.Position) string {
	if pos.Filename == "" {
		return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename, pos.Line, pos.Column)
}
