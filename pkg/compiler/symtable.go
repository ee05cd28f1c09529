package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/lexer"
)

// cellSize is the width in bytes of one scalar or one array element.
const cellSize = 4

type ScopeType int

const (
	ScopeGlobal ScopeType = iota // offset from f2
	ScopeParam                   // positive offset from f3
	ScopeLocal                   // negative offset from f3
)

type Symbol struct {
	Name   string
	Offset int // byte offset from the base register; arrays grow upward from it
	Length int // cells
	Scope  ScopeType
}

// Base is the register the offset is relative to.
func (s Symbol) Base() string {
	if s.Scope == ScopeGlobal {
		return "f2"
	}
	return "f3"
}

// offsetOperand renders a byte offset as the unsigned 32-bit value the
// assembler expects, so -4 becomes 4294967292.
func offsetOperand(n int) string {
	return strconv.FormatUint(uint64(uint32(int32(n))), 10)
}

// Addr is the memory operand of the symbol's first cell, e.g. "f3+4294967292@".
func (s Symbol) Addr() string {
	return fmt.Sprintf("%s+%s@", s.Base(), offsetOperand(s.Offset))
}

// SymbolTable holds the global variables of a translation unit and the
// frames of every function generated so far.
// Globals and locals take offsets from a running cell counter: a variable of
// length L declared after U cells gets offset -4(U+L).
type SymbolTable struct {
	globals     map[string]Symbol
	globalCells int
	frames      []*Frame
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{globals: make(map[string]Symbol)}
}

// DefineGlobal allocates cells for a file-scope variable.
func (s *SymbolTable) DefineGlobal(decl *VariableDecl) (Symbol, error) {
	if _, ok := s.globals[decl.Name]; ok {
		return Symbol{}, newError(SemanticError, decl.Pos, "Duplication variable name: %s", decl.Name)
	}
	s.globalCells += decl.Length
	sym := Symbol{Name: decl.Name, Offset: -cellSize * s.globalCells, Length: decl.Length, Scope: ScopeGlobal}
	s.globals[decl.Name] = sym
	return sym, nil
}

// GlobalCells is the number of cells reserved below f2.
func (s *SymbolTable) GlobalCells() int {
	return s.globalCells
}

// Frames returns the frames of all functions generated so far, in order.
func (s *SymbolTable) Frames() []*Frame {
	return s.frames
}

// GlobalScope is the scope of file-scope initializers: only globals resolve.
func (s *SymbolTable) GlobalScope() *Scope {
	return &Scope{table: s, syms: make(map[string]Symbol)}
}

// EnterFunction starts a new frame and returns its outermost scope.
func (s *SymbolTable) EnterFunction(name string, cells int) *Scope {
	f := &Frame{Name: name, Cells: cells, names: make(map[string]bool)}
	s.frames = append(s.frames, f)
	return &Scope{table: s, frame: f, syms: make(map[string]Symbol)}
}

// Frame is the stack layout of one function. Entries is append-only: block
// locals keep their cells after the block ends, so sibling blocks never share.
type Frame struct {
	Name    string
	Cells   int // 4*Cells bytes are reserved by the prologue
	Entries []Symbol

	used  int
	names map[string]bool
}

// Size is the byte size reserved for locals.
func (f *Frame) Size() int {
	return cellSize * f.Cells
}

// Scope is one level of the lexical chain inside a function: the function
// body or an fi/fal block. Lookups walk outward and then to the globals.
type Scope struct {
	table  *SymbolTable
	frame  *Frame
	parent *Scope
	syms   map[string]Symbol
}

// Enter opens a nested block scope on the same frame.
func (sc *Scope) Enter() *Scope {
	return &Scope{table: sc.table, frame: sc.frame, parent: sc, syms: make(map[string]Symbol)}
}

// Frame returns the frame the scope belongs to.
func (sc *Scope) Frame() *Frame {
	return sc.frame
}

func (sc *Scope) checkFresh(name string, pos lexer.Position) error {
	if sc.frame.names[name] {
		return newError(SemanticError, pos, "Duplication variable name: %s in cersva %s", name, sc.frame.Name)
	}
	if _, ok := sc.table.globals[name]; ok {
		return newError(SemanticError, pos, "Duplication variable name: %s (global)", name)
	}
	return nil
}

// BindParams assigns positive offsets to params. The caller stores them left
// to right with the last one next to the return address, so the last
// parameter is at 8 and the first at 4+4n.
func (sc *Scope) BindParams(params []*VariableDecl) error {
	n := len(params)
	for i, p := range params {
		if err := sc.checkFresh(p.Name, p.Pos); err != nil {
			return err
		}
		sym := Symbol{Name: p.Name, Offset: cellSize*(n-i) + cellSize, Length: 1, Scope: ScopeParam}
		sc.frame.names[p.Name] = true
		sc.frame.Entries = append(sc.frame.Entries, sym)
		sc.syms[p.Name] = sym
	}
	return nil
}

// Declare allocates the next cells of the frame for a local variable.
func (sc *Scope) Declare(decl *VariableDecl) (Symbol, error) {
	if err := sc.checkFresh(decl.Name, decl.Pos); err != nil {
		return Symbol{}, err
	}
	sc.frame.used += decl.Length
	sym := Symbol{Name: decl.Name, Offset: -cellSize * sc.frame.used, Length: decl.Length, Scope: ScopeLocal}
	sc.frame.names[decl.Name] = true
	sc.frame.Entries = append(sc.frame.Entries, sym)
	sc.syms[decl.Name] = sym
	return sym, nil
}

// Lookup resolves name through the open scopes, then the globals.
func (sc *Scope) Lookup(name string) (Symbol, bool) {
	for s := sc; s != nil; s = s.parent {
		if sym, ok := s.syms[name]; ok {
			return sym, true
		}
	}
	sym, ok := sc.table.globals[name]
	return sym, ok
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	if len(s.globals) > 0 {
		fmt.Fprintf(&sb, "Globals (%d cells):\n", s.globalCells)
		names := make([]string, 0, len(s.globals))
		for name := range s.globals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sym := s.globals[name]
			fmt.Fprintf(&sb, "  %-20s  Offset: %d (Length: %d)\n", name, sym.Offset, sym.Length)
		}
	} else {
		sb.WriteString("Globals: (empty)\n")
	}

	for _, f := range s.frames {
		fmt.Fprintf(&sb, "Frame %s (%d cells):\n", f.Name, f.Cells)
		for _, sym := range f.Entries {
			kind := "local"
			if sym.Scope == ScopeParam {
				kind = "param"
			}
			fmt.Fprintf(&sb, "  %-20s  Offset: %d (Length: %d, %s)\n", sym.Name, sym.Offset, sym.Length, kind)
		}
	}
	return sb.String()
}
