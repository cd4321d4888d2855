// Command spore is a driver binary around the embeddable Spore VM: a REPL,
// a file runner, and a disassembler, exercising pkg/vm end to end.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/wmedrano/spore/pkg/value"
	"github.com/wmedrano/spore/pkg/vm"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		runREPL()
		return
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("spore version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "repl":
		runREPL()
	case "run":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			printUsage()
			os.Exit(1)
		}
		runFile(os.Args[2])
	case "disasm":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: spore disasm <file>")
			os.Exit(1)
		}
		disasmFile(os.Args[2])
	default:
		// Assume it's a file to run.
		runFile(os.Args[1])
	}
}

func printUsage() {
	fmt.Println("spore - an embeddable s-expression interpreter")
	fmt.Println("\nUsage:")
	fmt.Println("  spore                  Start interactive REPL")
	fmt.Println("  spore [file]           Evaluate a source file")
	fmt.Println("  spore run [file]       Evaluate a source file")
	fmt.Println("  spore disasm [file]    Compile without running; print bytecode")
	fmt.Println("  spore repl             Start interactive REPL")
	fmt.Println("  spore version          Show version")
	fmt.Println("  spore help             Show this help")
}

func runFile(filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	v := vm.New(Options())
	if _, err := v.Evaluate(string(data)); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
}

// Options returns the construction options the CLI uses everywhere: a
// real stderr logger, since this binary is a host program, not a library
// caller that wants silent errors.
func Options() vm.Options {
	return vm.Options{Log: true}
}

func runREPL() {
	fmt.Printf("spore REPL v%s\n", version)
	fmt.Println("Type :quit or :exit to exit")
	fmt.Println()

	v := vm.New(Options())
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("spore> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case ":quit", ":exit":
			fmt.Println("Goodbye!")
			return
		case "":
			continue
		}
		evalREPL(v, line)
	}
}

func evalREPL(v *vm.VM, input string) {
	result, err := v.Evaluate(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println(v.FormatValue(result))
}

// disasmFile compiles (without running) every top-level form in filename
// and prints each form's flat instruction sequence, using the same
// opcode-symbol shape the language exposes to itself via
// function-bytecode.
func disasmFile(filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	v := vm.New(Options())
	forms, err := v.CompileForms(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		os.Exit(1)
	}
	for i, instrs := range forms {
		fmt.Printf("form %d:\n", i)
		printInstructions(v, instrs, 1)
	}
}

func printInstructions(v *vm.VM, instrs []value.Instruction, indent int) {
	prefix := strings.Repeat("  ", indent)
	for i, instr := range instrs {
		switch instr.Op {
		case value.OpPush:
			fmt.Printf("%s%d: push %s\n", prefix, i, v.FormatValue(instr.Operand))
		case value.OpEval:
			fmt.Printf("%s%d: eval %d\n", prefix, i, instr.N)
		case value.OpGetLocal:
			fmt.Printf("%s%d: get-local %d\n", prefix, i, instr.N)
		case value.OpDeref:
			name, _ := v.ResolveID(instr.Sym.ID)
			fmt.Printf("%s%d: deref %s\n", prefix, i, name)
		case value.OpJumpIf:
			fmt.Printf("%s%d: jump-if %+d\n", prefix, i, instr.Delta)
		case value.OpJump:
			fmt.Printf("%s%d: jump %+d\n", prefix, i, instr.Delta)
		case value.OpRet:
			fmt.Printf("%s%d: ret\n", prefix, i)
		}
	}
}
