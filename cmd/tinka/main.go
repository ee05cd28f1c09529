package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/jurliyuuri/tinka/pkg/compiler"
	"github.com/logrusorgru/aurora"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func main() {
	outPath := flag.String("o", "a.lk", "output file")
	entry := flag.String("entry", compiler.DefaultOptions().EntryPoint, "function the program prologue calls")
	verbose := flag.Bool("v", false, "log each pipeline stage")
	noColor := flag.Bool("no-color", false, "disable coloured output")
	dropUnused := flag.Bool("drop-unused", false, "omit functions unreachable from the entry point and xok exports")
	emitWords := flag.Bool("emit-words", false, "print the split words and exit")
	emitTokens := flag.Bool("emit-tokens", false, "print the classified tokens and exit")
	emitAST := flag.Bool("emit-ast", false, "print the syntax tree and exit")
	flag.Bool("lua64", false, "accepted for compatibility, ignored")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.tinka...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	au := aurora.NewAurora(!*noColor)
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	sources, err := readSources(flag.Args())
	if err != nil {
		fail(au, err)
	}

	switch {
	case *emitWords:
		err = dumpWords(os.Stdout, sources)
	case *emitTokens:
		err = dumpTokens(os.Stdout, sources)
	case *emitAST:
		err = dumpAST(os.Stdout, sources)
	default:
		opts := compiler.Options{EntryPoint: *entry, DropUnused: *dropUnused}
		err = compileTo(*outPath, sources, opts)
	}
	if err != nil {
		fail(au, err)
	}
}

func fail(au aurora.Aurora, err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", au.Red("error:"), err)
	os.Exit(1)
}

func readSources(paths []string) ([]compiler.Source, error) {
	sources := make([]compiler.Source, 0, len(paths))
	for _, path := range paths {
		log.Printf("reading %s\n", path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, compiler.Source{Name: path, Text: string(data)})
	}
	return sources, nil
}

// compileTo only creates the output file once translation has succeeded.
func compileTo(path string, sources []compiler.Source, opts compiler.Options) error {
	log.Printf("translating %d file(s), entry %s\n", len(sources), opts.EntryPoint)
	var buf bytes.Buffer
	if err := compiler.Compile(sources, &buf, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	log.Printf("%d bytes written to %s\n", buf.Len(), path)
	return nil
}

// symbolNames inverts Splitter.Symbols for printing word classes.
func symbolNames() map[rune]string {
	names := make(map[rune]string)
	for name, r := range compiler.Splitter.Symbols() {
		names[r] = name
	}
	return names
}

func dumpWords(w io.Writer, sources []compiler.Source) error {
	names := symbolNames()
	for _, src := range sources {
		words, err := compiler.SplitWords(src.Name, src.Text)
		if err != nil {
			return err
		}
		for _, word := range words {
			fmt.Fprintf(w, "%-6s %-16q %s:%d:%d\n", names[word.Type], word.Value, word.Pos.Filename, word.Pos.Line, word.Pos.Column)
		}
	}
	return nil
}

func dumpTokens(w io.Writer, sources []compiler.Source) error {
	tokens, err := compiler.LexAll(sources)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		fmt.Fprintln(w, tok)
	}
	return nil
}

func dumpAST(w io.Writer, sources []compiler.Source) error {
	tokens, err := compiler.LexAll(sources)
	if err != nil {
		return err
	}
	texts := make(map[string]string, len(sources))
	for _, src := range sources {
		texts[src.Name] = src.Text
	}
	stmts, err := compiler.Parse(tokens, texts)
	if err != nil {
		return err
	}
	dumper.Fdump(w, stmts)
	return nil
}
