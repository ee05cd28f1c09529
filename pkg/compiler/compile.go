package compiler

import (
	"io"

	"github.com/pkg/errors"
)

// Source is one input text of a translation unit.
type Source struct {
	Name string // used in positions; may be empty
	Text string
}

// Options configures a translation.
type Options struct {
	EntryPoint string // function the program prologue calls
	DropUnused bool   // omit functions unreachable from the entry point and exports
}

func DefaultOptions() Options {
	return Options{EntryPoint: "fasal"}
}

// LexAll lexes every source on its own and concatenates the token streams,
// so declarations in one file are visible from the others.
func LexAll(sources []Source) ([]Token, error) {
	var tokens []Token
	for _, src := range sources {
		toks, err := Lex(src.Name, src.Text)
		if err != nil {
			return nil, errors.Wrapf(err, "lex %s", src.Name)
		}
		tokens = append(tokens, toks...)
	}
	return tokens, nil
}

// Translate runs the whole pipeline and returns the assembly text together
// with the symbol table the generator filled in.
func Translate(sources []Source, opts Options) (string, *SymbolTable, error) {
	tokens, err := LexAll(sources)
	if err != nil {
		return "", nil, err
	}

	texts := make(map[string]string, len(sources))
	for _, src := range sources {
		texts[src.Name] = src.Text
	}
	stmts, err := Parse(tokens, texts)
	if err != nil {
		return "", nil, errors.Wrap(err, "parse")
	}

	syms := NewSymbolTable()
	assembly, err := Generate(stmts, syms, opts)
	if err != nil {
		return "", syms, errors.Wrap(err, "generate")
	}
	return assembly, syms, nil
}

// Compile translates sources and writes the program to w. Nothing is
// written when translation fails.
func Compile(sources []Source, w io.Writer, opts Options) error {
	assembly, _, err := Translate(sources, opts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, assembly); err != nil {
		return errors.Wrap(err, "write output")
	}
	return nil
}
