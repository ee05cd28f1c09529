package compiler

import (
	"testing"
)

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"Empty", "", []TokenType{}},
		{
			name:  "Declarations",
			input: "xok fasal kue puts cersva anax dosnud",
			want:  []TokenType{XOK, IDENTIFIER, KUE, IDENTIFIER, CERSVA, ANAX, DOSNUD},
		},
		{
			name:  "Statements",
			input: "el eksa fi fal rinyv situv",
			want:  []TokenType{EL, EKSA, FI, FAL, RINYV, SITUV},
		},
		{
			name:  "Punctuation",
			input: "( ) , : # + |",
			want:  []TokenType{LPAREN, RPAREN, COMMA, COLON, SHARP, ATA, NTA},
		},
		{
			name:  "Arithmetic and bitwise",
			input: "lat latsna kak kaksna ada ekc dal nac sna dto dro dtosna",
			want:  []TokenType{LAT, LATSNA, KAK, KAKSNA, ADA, EKC, DAL, NAC, SNA, DTO, DRO, DTOSNA},
		},
		{
			name:  "Comparisons",
			input: "xtlo xylo clo niv llo xolo xtlonys xylonys llonys xolonys",
			want:  []TokenType{XTLO, XYLO, CLO, NIV, LLO, XOLO, XTLONYS, XYLONYS, LLONYS, XOLONYS},
		},
		{
			name:  "Case insensitive keywords",
			input: "ANAX Cersva DosNud XTLO",
			want:  []TokenType{ANAX, CERSVA, DOSNUD, XTLO},
		},
		{
			name:  "Integers and identifiers",
			input: "0 42 4294967296 x1 1x _ anaxx",
			want:  []TokenType{INTEGER, INTEGER, INTEGER, IDENTIFIER, IDENTIFIER, IDENTIFIER, IDENTIFIER},
		},
		{
			name:  "Negative numbers are identifiers",
			input: "-1",
			want:  []TokenType{IDENTIFIER},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex("", tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tt.input, err)
			}
			got := tokenTypes(tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("Lex(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d of %q = %v, want %v", i, tt.input, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLex_KeepsLexemeAndPosition(t *testing.T) {
	tokens, err := Lex("a.tinka", "ANAX\n #count")
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens", len(tokens))
	}
	if tokens[0].Lexeme != "ANAX" || tokens[0].Type != ANAX {
		t.Errorf("token 0 = %v", tokens[0])
	}
	if tokens[2].Lexeme != "count" || tokens[2].Pos.Line != 2 || tokens[2].Pos.Column != 3 {
		t.Errorf("token 2 = %v", tokens[2])
	}
	if got := formatPos(tokens[2].Pos); got != "a.tinka:2:3" {
		t.Errorf("formatPos = %q", got)
	}
}

func TestTokenType_Names(t *testing.T) {
	if XOLONYS.String() != "XOLONYS" || EOF.String() != "EOF" {
		t.Error("unexpected token names")
	}
	if TokenType(999).String() != "TokenType(999)" {
		t.Errorf("out of range name = %q", TokenType(999).String())
	}
	cases := map[TokenType]string{
		ATA: "+", NTA: "|", COLON: ":", LAT: "lat", XTLONYS: "xtlonys", RINYV: "rinyv",
		IDENTIFIER: "", INTEGER: "", EOF: "",
	}
	for tt, want := range cases {
		if got := tt.Spelling(); got != want {
			t.Errorf("%v.Spelling() = %q, want %q", tt, got, want)
		}
	}
	for tt := EOF; tt <= XOLONYS; tt++ {
		want := tt >= XTLO
		if tt.IsCompare() != want {
			t.Errorf("%v.IsCompare() = %v", tt, !want)
		}
	}
}
