package compiler

import (
	"io"
	"unicode"

	"github.com/alecthomas/participle/lexer"
	"github.com/pkg/errors"
)

// Word classes produced by the splitter.
const (
	WordType  rune = iota + 1 // run of ordinary characters
	PunctType                 // one of : ( ) , + | #
)

// Splitter is the word splitter as a participle lexer definition. It breaks
// source text into words on whitespace and on the one-character punctuation
// words, and drops "--" comments up to the end of the line.
var Splitter lexer.Definition = splitterDefinition{}

type splitterDefinition struct{}

func (splitterDefinition) Symbols() map[string]rune {
	return map[string]rune{
		"EOF":   lexer.EOF,
		"Word":  WordType,
		"Punct": PunctType,
	}
}

func (splitterDefinition) Lex(r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}
	name := ""
	if named, ok := r.(interface{ Name() string }); ok {
		name = named.Name()
	}
	return newWordSplitter(name, string(data)), nil
}

func isPunct(r rune) bool {
	switch r {
	case ':', '(', ')', ',', '+', '|', '#':
		return true
	}
	return false
}

// wordSplitter is a single forward pass over one source text.
type wordSplitter struct {
	filename string
	src      []rune
	pos      int
	line     int
	col      int
}

func newWordSplitter(filename, src string) *wordSplitter {
	return &wordSplitter{filename: filename, src: []rune(src), line: 1, col: 1}
}

func (s *wordSplitter) peek() rune {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *wordSplitter) peek2() rune {
	if s.pos+1 >= len(s.src) {
		return 0
	}
	return s.src[s.pos+1]
}

func (s *wordSplitter) advance() rune {
	if s.pos >= len(s.src) {
		return 0
	}
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *wordSplitter) position() lexer.Position {
	return lexer.Position{Filename: s.filename, Offset: s.pos, Line: s.line, Column: s.col}
}

func (s *wordSplitter) atEnd() bool {
	return s.pos >= len(s.src)
}

func (s *wordSplitter) atComment() bool {
	return s.peek() == '-' && s.peek2() == '-'
}

// skipComment discards a "--" comment through the line break. Reaching the
// end of input first is fatal.
func (s *wordSplitter) skipComment() error {
	start := s.position()
	s.advance() // -
	s.advance() // -
	for {
		if s.atEnd() {
			return newError(LexicalError, start, "End of file in comment")
		}
		r := s.advance()
		if r == '\r' || r == '\n' {
			return nil
		}
	}
}

// Next returns the next word, or a token of type lexer.EOF at the end.
func (s *wordSplitter) Next() (lexer.Token, error) {
	for !s.atEnd() {
		if unicode.IsSpace(s.peek()) {
			s.advance()
			continue
		}
		if s.atComment() {
			if err := s.skipComment(); err != nil {
				return lexer.Token{}, err
			}
			continue
		}
		break
	}

	pos := s.position()
	if s.atEnd() {
		return lexer.Token{Type: lexer.EOF, Pos: pos}, nil
	}

	if r := s.peek(); isPunct(r) {
		s.advance()
		return lexer.Token{Type: PunctType, Value: string(r), Pos: pos}, nil
	}

	start := s.pos
	for !s.atEnd() {
		r := s.peek()
		if unicode.IsSpace(r) || isPunct(r) || s.atComment() {
			break
		}
		s.advance()
	}
	return lexer.Token{Type: WordType, Value: string(s.src[start:s.pos]), Pos: pos}, nil
}

// SplitWords runs the splitter over src and collects every word.
func SplitWords(filename, src string) ([]lexer.Token, error) {
	s := newWordSplitter(filename, src)
	var words []lexer.Token
	for {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == lexer.EOF {
			return words, nil
		}
		words = append(words, tok)
	}
}
