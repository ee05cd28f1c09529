package compiler

import (
	"strings"

	"github.com/alecthomas/participle/lexer"
)

// keywords maps a lower-cased word to its TokenType.
var keywords = map[string]TokenType{
	"xok":     XOK,
	"kue":     KUE,
	"cersva":  CERSVA,
	"dosnud":  DOSNUD,
	"anax":    ANAX,
	"el":      EL,
	"eksa":    EKSA,
	"fi":      FI,
	"fal":     FAL,
	"rinyv":   RINYV,
	"situv":   SITUV,
	"(":       LPAREN,
	")":       RPAREN,
	",":       COMMA,
	":":       COLON,
	"#":       SHARP,
	"+":       ATA,
	"|":       NTA,
	"lat":     LAT,
	"latsna":  LATSNA,
	"kak":     KAK,
	"kaksna":  KAKSNA,
	"ada":     ADA,
	"ekc":     EKC,
	"dal":     DAL,
	"nac":     NAC,
	"sna":     SNA,
	"dto":     DTO,
	"dro":     DRO,
	"dtosna":  DTOSNA,
	"xtlo":    XTLO,
	"xylo":    XYLO,
	"clo":     CLO,
	"niv":     NIV,
	"llo":     LLO,
	"xolo":    XOLO,
	"xtlonys": XTLONYS,
	"xylonys": XYLONYS,
	"llonys":  LLONYS,
	"xolonys": XOLONYS,
}

// spellings is the inverse of keywords.
var spellings = func() map[TokenType]string {
	m := make(map[TokenType]string, len(keywords))
	for word, tt := range keywords {
		m[tt] = word
	}
	return m
}()

func isAllDigits(s string) bool {
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

// classify maps one word to its token.
func classify(word lexer.Token) Token {
	tok := Token{Type: IDENTIFIER, Lexeme: word.Value, Pos: word.Pos}
	if word.Type == lexer.EOF {
		tok.Type = EOF
	} else if tt, ok := keywords[strings.ToLower(word.Value)]; ok {
		tok.Type = tt
	} else if isAllDigits(word.Value) {
		tok.Type = INTEGER
	}
	return tok
}

// Tokenize classifies split words. The result is not EOF-terminated.
func Tokenize(words []lexer.Token) []Token {
	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, classify(w))
	}
	return tokens
}

// Lex splits and classifies one source text.
func Lex(filename, src string) ([]Token, error) {
	words, err := SplitWords(filename, src)
	if err != nil {
		return nil, err
	}
	return Tokenize(words), nil
}
