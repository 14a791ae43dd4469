// Command kc is the klang compiler: it reads a .k source file and emits
// LLVM IR.
//
// Usage:
//
//	kc <input.k>                   Compile to a.ll
//	kc -o <output> <input.k>       Compile to the named file
//	kc <input.k> -o <output>       Same, with the flag suffixed
//	kc tokens <file> [--json]      Print the token stream
//	kc parse  <file>               Print the AST as JSON
//	kc repl                        Start an interactive session
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"klang/internal/ast"
	"klang/internal/compiler"
	"klang/internal/diag"
	"klang/internal/lexer"
	"klang/internal/source"
)

const defaultOutput = "a.ll"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "tokens":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: missing file argument")
			os.Exit(1)
		}
		cmdTokens(os.Args[2], hasFlag("--json"))
	case "parse":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: missing file argument")
			os.Exit(1)
		}
		cmdParse(os.Args[2])
	case "repl":
		cmdRepl()
	default:
		cmdCompile(os.Args[1:])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  kc <input.k>                 Compile to a.ll")
	fmt.Fprintln(os.Stderr, "  kc -o <output> <input.k>     Compile to the named file")
	fmt.Fprintln(os.Stderr, "  kc <input.k> -o <output>     Same, with the flag suffixed")
	fmt.Fprintln(os.Stderr, "  kc tokens <file> [--json]    Tokenize and print tokens")
	fmt.Fprintln(os.Stderr, "  kc parse  <file>             Parse and print AST (JSON)")
	fmt.Fprintln(os.Stderr, "  kc repl                      Start interactive session")
}

func hasFlag(flag string) bool {
	for _, arg := range os.Args[3:] {
		if arg == flag {
			return true
		}
	}
	return false
}

// parseCompileArgs accepts the three compile forms and returns input and
// output paths.
func parseCompileArgs(args []string) (input, output string, err error) {
	switch len(args) {
	case 1:
		input, output = args[0], defaultOutput
	case 3:
		switch {
		case args[0] == "-o":
			output, input = args[1], args[2]
		case args[1] == "-o":
			input, output = args[0], args[2]
		default:
			return "", "", errors.New("invalid arguments")
		}
	default:
		return "", "", errors.New("invalid arguments")
	}
	if !strings.HasSuffix(input, ".k") {
		return "", "", fmt.Errorf("input file must use the .k extension: %s", input)
	}
	return input, output, nil
}

// ---- compile (default) command ----

func cmdCompile(args []string) {
	input, output, err := parseCompileArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		usage()
		os.Exit(1)
	}

	file := readFile(input)

	mod, err := compiler.Compile(file)
	if err != nil {
		exitWithError(err, file)
	}

	if err := os.WriteFile(output, []byte(mod.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot write output file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", output)
}

// ---- tokens command ----

func cmdTokens(filename string, jsonMode bool) {
	file := readFile(filename)
	tokens, err := lexer.New(file.Src, file.Name).Tokenize()

	if jsonMode {
		printTokensJSON(tokens, err)
	} else {
		printTokensText(tokens)
	}
	if err != nil {
		if !jsonMode {
			exitWithError(err, file)
		}
		os.Exit(1)
	}
}

// ---- parse command ----

func cmdParse(filename string) {
	file := readFile(filename)
	prog, err := compiler.Parse(file)
	if err != nil {
		exitWithError(err, file)
	}
	printJSON(ast.NodeToMap(prog))
}

// ---- helpers ----

func readFile(filename string) *source.File {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return source.NewFile(filename, string(src))
}

// exitWithError renders a compile diagnostic with its source snippet, or
// prints a plain error line for anything else, then exits 1.
func exitWithError(err error, file *source.File) {
	var d *diag.Diagnostic
	if errors.As(err, &d) && file != nil {
		diag.NewRenderer(os.Stderr).Render(d, file)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
