package compiler

import (
	"fmt"

	"github.com/alecthomas/participle/lexer"
)

// TokenType identifies the category of a classified word.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Leaves
	IDENTIFIER // function / variable name
	INTEGER    // all-digit word

	// Declarations and statements
	XOK    // "xok"    export
	KUE    // "kue"    import
	CERSVA // "cersva" function definition
	DOSNUD // "dosnud" return
	ANAX   // "anax"   variable declaration
	EL     // "el"     target el value
	EKSA   // "eksa"   value eksa target
	FI     // "fi"     if
	FAL    // "fal"    while
	RINYV  // "rinyv"  body open
	SITUV  // "situv"  body close

	// Punctuation
	LPAREN // (
	RPAREN // )
	COMMA  // ,
	COLON  // : array index / array length
	SHARP  // # variable sigil

	// Arithmetic
	ATA    // +
	NTA    // |
	LAT    // "lat"    unsigned multiply
	LATSNA // "latsna" signed multiply
	KAK    // "kak"    reserved, no code generation
	KAKSNA // "kaksna" reserved, no code generation

	// Bitwise
	ADA // "ada" and
	EKC // "ekc" or
	DAL // "dal" xnor
	NAC // "nac" not (unary)
	SNA // "sna" negate (unary)

	// Shifts
	DTO    // "dto"    logical right
	DRO    // "dro"    left
	DTOSNA // "dtosna" arithmetic right

	// Comparisons
	XTLO    // "xtlo"    <=
	XYLO    // "xylo"    <
	CLO     // "clo"     ==
	NIV     // "niv"     !=
	LLO     // "llo"     >
	XOLO    // "xolo"    >=
	XTLONYS // "xtlonys" unsigned <=
	XYLONYS // "xylonys" unsigned <
	LLONYS  // "llonys"  unsigned >
	XOLONYS // "xolonys" unsigned >=
)

var tokenNames = [...]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	INTEGER:    "INTEGER",
	XOK:        "XOK",
	KUE:        "KUE",
	CERSVA:     "CERSVA",
	DOSNUD:     "DOSNUD",
	ANAX:       "ANAX",
	EL:         "EL",
	EKSA:       "EKSA",
	FI:         "FI",
	FAL:        "FAL",
	RINYV:      "RINYV",
	SITUV:      "SITUV",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COMMA:      "COMMA",
	COLON:      "COLON",
	SHARP:      "SHARP",
	ATA:        "ATA",
	NTA:        "NTA",
	LAT:        "LAT",
	LATSNA:     "LATSNA",
	KAK:        "KAK",
	KAKSNA:     "KAKSNA",
	ADA:        "ADA",
	EKC:        "EKC",
	DAL:        "DAL",
	NAC:        "NAC",
	SNA:        "SNA",
	DTO:        "DTO",
	DRO:        "DRO",
	DTOSNA:     "DTOSNA",
	XTLO:       "XTLO",
	XYLO:       "XYLO",
	CLO:        "CLO",
	NIV:        "NIV",
	LLO:        "LLO",
	XOLO:       "XOLO",
	XTLONYS:    "XTLONYS",
	XYLONYS:    "XYLONYS",
	LLONYS:     "LLONYS",
	XOLONYS:    "XOLONYS",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Spelling returns the canonical source word for a keyword, operator or
// punctuation type. Leaves and EOF have no fixed spelling.
func (tt TokenType) Spelling() string {
	if s, ok := spellings[tt]; ok {
		return s
	}
	return ""
}

// IsCompare reports whether tt is one of the comparison operators.
func (tt TokenType) IsCompare() bool {
	return tt >= XTLO && tt <= XOLONYS
}

// Token is a single classified word.
type Token struct {
	Type   TokenType
	Lexeme string         // the word exactly as written
	Pos    lexer.Position // where the word starts
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q %s", t.Type, t.Lexeme, formatPos(t.Pos))
}

// describe renders the token for "got ..." parts of diagnostics.
func (t Token) describe() string {
	if t.Type == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%s (%q)", t.Type, t.Lexeme)
}
