package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jurliyuuri/tinka/pkg/asm"
	"github.com/jurliyuuri/tinka/pkg/compiler"
	"github.com/jurliyuuri/tinka/pkg/cpu"
)

// expectedResult reads the "-- expect: N" header of a test program.
func expectedResult(t *testing.T, src string) uint32 {
	t.Helper()
	first, _, _ := strings.Cut(src, "\n")
	value, ok := strings.CutPrefix(first, "-- expect: ")
	if !ok {
		t.Fatalf("missing expect header: %q", first)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		t.Fatalf("bad expect header: %v", err)
	}
	return uint32(n)
}

func TestTinkaPrograms(t *testing.T) {
	paths, err := filepath.Glob("testdata/*.tinka")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no test programs found")
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			srcBytes, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read source: %v", err)
			}
			src := string(srcBytes)
			want := expectedResult(t, src)

			assembly, _, err := compiler.Translate([]compiler.Source{{Name: path, Text: src}}, compiler.DefaultOptions())
			if err != nil {
				t.Fatalf("Translate failed: %v", err)
			}
			prog, err := asm.Assemble(assembly)
			if err != nil {
				t.Fatalf("Assemble failed: %v", err)
			}

			vm := cpu.NewCPU(prog)
			if err := vm.RunUntilDone(); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if vm.Regs[cpu.F0] != want {
				t.Errorf("f0 = %d, want %d", vm.Regs[cpu.F0], want)
			}
		})
	}
}

func TestAssemblyProgram(t *testing.T) {
	src, err := os.ReadFile("testdata/gcd.lk")
	if err != nil {
		t.Fatal(err)
	}
	prog, err := asm.Assemble(string(src))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if err := runAssembled(prog, "", cpu.DefaultMaxSteps); err != nil {
		t.Fatalf("runAssembled failed: %v", err)
	}

	vm := cpu.NewCPU(prog)
	if err := vm.RunUntilDone(); err != nil {
		t.Fatal(err)
	}
	if vm.Regs[cpu.F0] != 21 {
		t.Errorf("gcd = %d, want 21", vm.Regs[cpu.F0])
	}
}

func TestRunAssembled_Errors(t *testing.T) {
	prog, err := asm.Assemble("'i'c\nnll spin\nkrz spin xx\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := runAssembled(prog, "", 50); err == nil {
		t.Error("expected step limit error")
	}
	if err := runAssembled(prog, "missing", 50); err == nil {
		t.Error("expected unknown start label error")
	}
}
