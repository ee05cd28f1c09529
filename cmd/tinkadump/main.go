package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/jurliyuuri/tinka/pkg/compiler"
	"github.com/logrusorgru/aurora"
)

const testSource = `anax x el 10
anax y el 20
xok fasal
cersva fasal() rinyv
  dosnud #x + #y
situv
`

func main() {
	src := testSource
	name := "test.tinka"
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, aurora.Red("read error:"), err)
			os.Exit(1)
		}
		src = string(data)
		name = os.Args[1]
	}

	fmt.Printf("%s\n%s\n", aurora.Cyan("Source"), src)

	// Split
	words, err := compiler.SplitWords(name, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red("split error:"), err)
		os.Exit(1)
	}
	fmt.Println(aurora.Cyan(fmt.Sprintf("Words (%d)", len(words))))
	for _, w := range words {
		fmt.Printf("  %q", w.Value)
	}
	fmt.Println()
	fmt.Println()

	// Lex
	tokens := compiler.Tokenize(words)
	fmt.Println(aurora.Cyan(fmt.Sprintf("Tokens (%d)", len(tokens))))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	stmts, err := compiler.Parse(tokens, map[string]string{name: src})
	if err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red("parse error:"), err)
		os.Exit(1)
	}

	fmt.Println(aurora.Cyan("AST"))
	for _, s := range stmts {
		fmt.Println(" ", s)
	}
	fmt.Println()
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	cfg.Dump(stmts)
	fmt.Println()

	fmt.Println(aurora.Cyan("Canonical"))
	fmt.Print(compiler.Sprint(stmts))
	fmt.Println()

	// Code generation
	syms := compiler.NewSymbolTable()
	asm, err := compiler.Generate(stmts, syms, compiler.DefaultOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red("codegen error:"), err)
		os.Exit(1)
	}

	fmt.Println(aurora.Cyan("Generated Assembly"))
	fmt.Print(asm)
	fmt.Println()
	fmt.Print(syms)
}
