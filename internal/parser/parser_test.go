package parser

import (
	"strings"
	"testing"

	"klang/internal/ast"
	"klang/internal/diag"
	"klang/internal/lexer"
	"klang/internal/token"
)

// helper: parse source and fail the test on any error
func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	tokens, err := lexer.New(source, "test.k").Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := New(tokens).ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

// helper: parse source and return the diagnostic it must produce
func parseError(t *testing.T, source string) *diag.Diagnostic {
	t.Helper()
	tokens, err := lexer.New(source, "test.k").Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	_, err = New(tokens).ParseProgram()
	if err == nil {
		t.Fatalf("expected parse error for %q", source)
	}
	d, ok := err.(*diag.Diagnostic)
	if !ok {
		t.Fatalf("expected *diag.Diagnostic, got %T", err)
	}
	return d
}

func TestParseEmptyProgram(t *testing.T) {
	prog := parseOK(t, "")
	if len(prog.Stmts) != 0 {
		t.Fatalf("expected 0 statements, got %d", len(prog.Stmts))
	}
}

func TestParseAssignment(t *testing.T) {
	prog := parseOK(t, `x = 42;`)
	assign, ok := prog.Stmts[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", prog.Stmts[0])
	}
	if assign.Name != "x" {
		t.Errorf("expected name 'x', got %q", assign.Name)
	}
	if assign.IsMutDecl {
		t.Error("expected immutable assignment")
	}
	if assign.Kind != ast.Declaration {
		t.Errorf("expected declaration kind, got %s", assign.Kind)
	}
}

func TestParseMutDecl(t *testing.T) {
	prog := parseOK(t, `mut counter = 0;`)
	assign := prog.Stmts[0].(*ast.AssignStmt)
	if !assign.IsMutDecl {
		t.Error("expected mut declaration")
	}
	if assign.Name != "counter" {
		t.Errorf("expected name 'counter', got %q", assign.Name)
	}
	if assign.Kind != ast.Declaration {
		t.Errorf("expected declaration kind, got %s", assign.Kind)
	}
}

func TestParsePrecedence(t *testing.T) {
	prog := parseOK(t, `1 + 2 * 3 == 7;`)
	stmt := prog.Stmts[0].(*ast.ExprStmt)

	// root must be ==, left (1 + (2 * 3)), right 7
	eq, ok := stmt.Expr.(*ast.BinaryExpr)
	if !ok || eq.Op != token.EQ {
		t.Fatalf("expected == at root, got %T", stmt.Expr)
	}
	add, ok := eq.Left.(*ast.BinaryExpr)
	if !ok || add.Op != token.PLUS {
		t.Fatalf("expected + on the left of ==, got %T", eq.Left)
	}
	mul, ok := add.Right.(*ast.BinaryExpr)
	if !ok || mul.Op != token.STAR {
		t.Fatalf("expected * on the right of +, got %T", add.Right)
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	prog := parseOK(t, `1 - 2 - 3;`)
	stmt := prog.Stmts[0].(*ast.ExprStmt)

	outer := stmt.Expr.(*ast.BinaryExpr)
	if outer.Op != token.MINUS {
		t.Fatalf("expected -, got %s", outer.Op)
	}
	inner, ok := outer.Left.(*ast.BinaryExpr)
	if !ok || inner.Op != token.MINUS {
		t.Fatalf("expected (1 - 2) on the left, got %T", outer.Left)
	}
}

func TestParseChainedComparison(t *testing.T) {
	prog := parseOK(t, `1 < 2 < 3;`)
	stmt := prog.Stmts[0].(*ast.ExprStmt)

	outer := stmt.Expr.(*ast.BinaryExpr)
	if outer.Op != token.LT {
		t.Fatalf("expected <, got %s", outer.Op)
	}
	if _, ok := outer.Left.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected (1 < 2) on the left, got %T", outer.Left)
	}
}

func TestParseUnaryPrecedence(t *testing.T) {
	prog := parseOK(t, `-2 * 3;`)
	stmt := prog.Stmts[0].(*ast.ExprStmt)

	mul := stmt.Expr.(*ast.BinaryExpr)
	if mul.Op != token.STAR {
		t.Fatalf("expected *, got %s", mul.Op)
	}
	if _, ok := mul.Left.(*ast.UnaryExpr); !ok {
		t.Fatalf("expected unary minus on the left, got %T", mul.Left)
	}
}

func TestParsePrintWithArgs(t *testing.T) {
	prog := parseOK(t, `print "x = %f, y = %f\n", 1, 2;`)
	stmt := prog.Stmts[0].(*ast.PrintStmt)
	if _, ok := stmt.Format.(*ast.StringExpr); !ok {
		t.Fatalf("expected string format, got %T", stmt.Format)
	}
	if len(stmt.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(stmt.Args))
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parseOK(t, `if (x > 0) { print x; } else { print 0; }`)
	stmt := prog.Stmts[0].(*ast.IfStmt)
	if stmt.Condition == nil || stmt.Then == nil || stmt.Else == nil {
		t.Fatal("incomplete if statement")
	}
	if len(stmt.Then.Stmts) != 1 || len(stmt.Else.Stmts) != 1 {
		t.Errorf("unexpected branch statement counts: %d / %d", len(stmt.Then.Stmts), len(stmt.Else.Stmts))
	}
}

func TestParseWhile(t *testing.T) {
	prog := parseOK(t, `while (n > 0) { n = n - 1; }`)
	stmt := prog.Stmts[0].(*ast.WhileStmt)
	if stmt.Condition == nil || stmt.Body == nil {
		t.Fatal("incomplete while statement")
	}
}

func TestParseBareBlock(t *testing.T) {
	prog := parseOK(t, `x = 1; { x = 2; } print x;`)
	if len(prog.Stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Stmts))
	}
	if _, ok := prog.Stmts[1].(*ast.BlockStmt); !ok {
		t.Fatalf("expected BlockStmt, got %T", prog.Stmts[1])
	}
}

func TestParseMissingSemicolonAfterPrint(t *testing.T) {
	d := parseError(t, `print 42`)
	if !strings.Contains(d.Message, "Expected ';'") {
		t.Errorf("unexpected message: %s", d.Message)
	}
	// Reported just past the last token of the statement.
	if d.Pos.Line != 1 || d.Pos.Column != 9 {
		t.Errorf("expected 1:9, got %d:%d", d.Pos.Line, d.Pos.Column)
	}
}

func TestParseMissingSemicolonAfterExpr(t *testing.T) {
	d := parseError(t, "x = 1 y = 2")
	if !strings.Contains(d.Message, "Expected ';' after expression statement") {
		t.Errorf("unexpected message: %s", d.Message)
	}
	if d.Pos.Line != 1 || d.Pos.Column != 6 {
		t.Errorf("expected 1:6, got %d:%d", d.Pos.Line, d.Pos.Column)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	d := parseError(t, `123 = 42;`)
	if !strings.Contains(d.Message, "Invalid assignment target") {
		t.Errorf("unexpected message: %s", d.Message)
	}
	if d.Pos.Line != 1 || d.Pos.Column != 1 {
		t.Errorf("expected 1:1, got %d:%d", d.Pos.Line, d.Pos.Column)
	}
}

func TestParseMissingCloseParen(t *testing.T) {
	d := parseError(t, `x = (10 + 5;`)
	if !strings.Contains(d.Message, "Expected ')'") {
		t.Errorf("unexpected message: %s", d.Message)
	}
}

func TestParseIfErrors(t *testing.T) {
	d := parseError(t, `if x > 0 { print x; } else { print 0; }`)
	if !strings.Contains(d.Message, "Expected '(' after 'if'") {
		t.Errorf("unexpected message: %s", d.Message)
	}

	d = parseError(t, `if (x > 0 { print x; } else { print 0; }`)
	if !strings.Contains(d.Message, "Expected ')' after if condition") {
		t.Errorf("unexpected message: %s", d.Message)
	}

	d = parseError(t, `if (x > 0) { print x; }`)
	if !strings.Contains(d.Message, "Expected 'else'") {
		t.Errorf("unexpected message: %s", d.Message)
	}
}

func TestParseMutErrors(t *testing.T) {
	d := parseError(t, `mut = 5;`)
	if !strings.Contains(d.Message, "Expected identifier after 'mut'") {
		t.Errorf("unexpected message: %s", d.Message)
	}

	d = parseError(t, `mut x 42;`)
	if !strings.Contains(d.Message, "Expected '='") {
		t.Errorf("unexpected message: %s", d.Message)
	}

	d = parseError(t, `mut x = 5`)
	if !strings.Contains(d.Message, "Expected ';'") {
		t.Errorf("unexpected message: %s", d.Message)
	}
}

func TestParseUnclosedBlock(t *testing.T) {
	d := parseError(t, `while (1) { print 1;`)
	if !strings.Contains(d.Message, "Expected '}'") {
		t.Errorf("unexpected message: %s", d.Message)
	}
}
