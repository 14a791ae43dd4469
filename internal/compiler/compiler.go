// Package compiler wires the compilation stages: lex, parse, check, lower.
package compiler

import (
	"github.com/llir/llvm/ir"

	"klang/internal/ast"
	"klang/internal/codegen"
	"klang/internal/lexer"
	"klang/internal/parser"
	"klang/internal/sema"
	"klang/internal/source"
)

// Parse runs the front half of the pipeline and returns the AST.
func Parse(file *source.File) (*ast.Program, error) {
	tokens, err := lexer.New(file.Src, file.Name).Tokenize()
	if err != nil {
		return nil, err
	}
	return parser.New(tokens).ParseProgram()
}

// Compile runs the full pipeline over file and returns the LLVM module.
// Any stage's failure aborts the compilation; compile errors are
// *diag.Diagnostic values.
func Compile(file *source.File) (*ir.Module, error) {
	prog, err := Parse(file)
	if err != nil {
		return nil, err
	}

	info, err := sema.Check(prog, file.Name)
	if err != nil {
		return nil, err
	}

	gen := codegen.New(file.Name)
	if err := gen.Program(prog, info); err != nil {
		return nil, err
	}
	return gen.Module(), nil
}
