//go:build !js

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jurliyuuri/tinka/pkg/asm"
	"github.com/jurliyuuri/tinka/pkg/compiler"
	"github.com/jurliyuuri/tinka/pkg/cpu"
	"github.com/jurliyuuri/tinka/pkg/utils"
	"github.com/logrusorgru/aurora"
)

func main() {
	inPath := flag.String("in", "", "input file: .tinka is translated first, anything else is read as 2003lk")
	outPath := flag.String("out", "", "where to write the translated assembly (default: input with .lk extension)")
	runProgram := flag.Bool("run", false, "run the program on the interpreter")
	entry := flag.String("entry", compiler.DefaultOptions().EntryPoint, "function the prologue calls (.tinka input)")
	start := flag.String("start", "", "label to start execution at instead of the prologue")
	maxSteps := flag.Int("max-steps", cpu.DefaultMaxSteps, "instruction budget for -run")
	verbose := flag.Bool("v", false, "log each step of the pipeline")
	noColor := flag.Bool("no-color", false, "disable coloured output")
	flag.Parse()

	au := aurora.NewAurora(!*noColor)
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in <file>")
		flag.Usage()
		os.Exit(2)
	}

	fullPath, _, err := utils.GetPathInfo(*inPath)
	if err != nil {
		fail(au, "bad input path", err)
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		fail(au, fmt.Sprintf("failed to read input file %q", *inPath), err)
	}

	code := string(source)
	if strings.HasSuffix(*inPath, ".tinka") {
		log.Printf("translating %s\n", fullPath)
		code, _, err = compiler.Translate([]compiler.Source{{Name: *inPath, Text: code}}, compiler.Options{EntryPoint: *entry})
		if err != nil {
			fail(au, "translation failed", err)
		}

		output := *outPath
		if output == "" {
			output = utils.ReplaceExt(*inPath, ".lk")
		}
		if err := os.WriteFile(output, []byte(code), 0o644); err != nil {
			fail(au, fmt.Sprintf("failed to write %q", output), err)
		}
		fmt.Printf("translated %s -> %s\n", *inPath, output)
	}

	prog, err := asm.Assemble(code)
	if err != nil {
		fail(au, "assembly failed", err)
	}
	log.Printf("assembled %d instructions, %d labels\n", len(prog.Code), len(prog.Labels))

	if !*runProgram {
		return
	}
	if err := runAssembled(prog, *start, *maxSteps); err != nil {
		fail(au, "run failed", err)
	}
}

func fail(au aurora.Aurora, what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", au.Red(what), err)
	os.Exit(1)
}

func runAssembled(prog *cpu.Program, start string, maxSteps int) error {
	vm := cpu.NewCPU(prog)
	if start != "" {
		if err := vm.Entry(start); err != nil {
			return err
		}
	}
	if err := vm.Run(maxSteps); err != nil {
		return err
	}

	fmt.Printf(
		"run complete: steps=%d f0=0x%08X (%d) f1=0x%08X f2=0x%08X f3=0x%08X f5=0x%08X\n",
		vm.Steps,
		vm.Regs[cpu.F0],
		int32(vm.Regs[cpu.F0]),
		vm.Regs[cpu.F1],
		vm.Regs[cpu.F2],
		vm.Regs[cpu.F3],
		vm.Regs[cpu.F5],
	)
	return nil
}
