package codegen

import (
	"strings"

	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"klang/internal/ast"
	"klang/internal/diag"
	"klang/internal/sema"
)

// genPrint lowers a print statement to a single printf call. Three modes:
//
//  1. string literal format + arguments: the format is validated against
//     the argument list and passed through to printf verbatim;
//  2. bare string literal: %% collapses to % and the text goes out via a
//     "%s" format, with no implicit newline;
//  3. non-literal numeric expression: printed with "%.15f\n".
func (g *Generator) genPrint(s *ast.PrintStmt) (value.Value, error) {
	if lit, ok := s.Format.(*ast.StringExpr); ok {
		if len(s.Args) == 0 {
			return g.genPrintBareString(lit)
		}
		return g.genPrintFormatted(s, lit)
	}

	if len(s.Args) > 0 {
		return nil, diag.Errorf(s.Format.GetSpan().Start, "print with arguments requires a string literal format")
	}
	if g.info.TypeOf(s.Format) == sema.String {
		return nil, diag.Errorf(s.Format.GetSpan().Start, "print requires a string literal or numeric expression")
	}

	v, err := g.genExpr(s.Format)
	if err != nil {
		return nil, err
	}
	return g.block.NewCall(g.printf, g.stringPtr("%.15f\n"), v), nil
}

// genPrintBareString emits printf("%s", text) with %% collapsed.
func (g *Generator) genPrintBareString(lit *ast.StringExpr) (value.Value, error) {
	text := strings.ReplaceAll(lit.Value, "%%", "%")
	return g.block.NewCall(g.printf, g.stringPtr("%s"), g.stringPtr(text)), nil
}

// genPrintFormatted walks the format byte-by-byte, consuming one argument
// per conversion. Recognized: %%, %f, %g, %e, %d, %s, and %.Nf|g|e. A %d
// argument is truncated to i32; a %s argument must be a string literal.
func (g *Generator) genPrintFormatted(s *ast.PrintStmt, lit *ast.StringExpr) (value.Value, error) {
	format := lit.Value
	pos := lit.Span.Start
	args := []value.Value{g.stringPtr(format)}
	argIdx := 0

	for i := 0; i < len(format); {
		if format[i] != '%' {
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			i += 2
			continue
		}

		j := i + 1
		hasPrec := false
		if j < len(format) && format[j] == '.' {
			hasPrec = true
			j++
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				j++
			}
		}
		if j >= len(format) {
			return nil, diag.Errorf(pos, "Invalid format specifier in print format")
		}
		conv := format[j]
		spec := format[i : j+1]
		switch {
		case conv == 'f' || conv == 'g' || conv == 'e':
		case !hasPrec && (conv == 'd' || conv == 's'):
		default:
			return nil, diag.Errorf(pos, "Unknown format specifier '%s' in print format", spec)
		}

		if argIdx >= len(s.Args) {
			return nil, diag.Errorf(pos, "Too few arguments for format string")
		}
		arg := s.Args[argIdx]
		argIdx++

		if conv == 's' {
			strLit, ok := arg.(*ast.StringExpr)
			if !ok {
				return nil, diag.Errorf(arg.GetSpan().Start, "%%s format specifier requires string literal argument")
			}
			args = append(args, g.stringPtr(strLit.Value))
			i = j + 1
			continue
		}

		if g.info.TypeOf(arg) != sema.Number {
			return nil, diag.Errorf(arg.GetSpan().Start, "format specifier '%s' requires a numeric argument", spec)
		}
		v, err := g.genExpr(arg)
		if err != nil {
			return nil, err
		}
		if conv == 'd' {
			v = g.block.NewFPToSI(v, types.I32)
		}
		args = append(args, v)
		i = j + 1
	}

	if argIdx < len(s.Args) {
		return nil, diag.Errorf(pos, "Too many arguments for format string")
	}
	return g.block.NewCall(g.printf, args...), nil
}
