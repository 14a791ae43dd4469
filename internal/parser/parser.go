// Package parser implements syntax analysis for klang.
// It uses Pratt parsing for expressions and recursive descent for statements.
package parser

import (
	"klang/internal/ast"
	"klang/internal/diag"
	"klang/internal/span"
	"klang/internal/token"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpComparison = 5  // < <= > >= == !=
	bpAdditive   = 10 // + -
	bpMultiply   = 40 // * /
	bpPrefix     = 50 // unary -
)

// infixBP returns the left binding power for an infix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH:
		return bpMultiply
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens. Parsing stops at
// the first ill-formed construct, reported as a *diag.Diagnostic.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// ParseProgram parses the entire token stream and returns the AST root.
// An empty input produces a Program with no statements.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	startPos := p.peek().Span.Start

	for !p.isAtEnd() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}

	prog.Span = span.Span{Start: startPos, End: p.peek().Span.End}
	return prog, nil
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// prevEnd returns the end position of the most recently consumed token.
// This is where a missing ';' is reported: just past the statement, not at
// whatever token happens to follow.
func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

// expectSemicolon consumes a ';' or reports the error at the end of the
// previous token, naming the statement form in the message.
func (p *Parser) expectSemicolon(context string) error {
	if p.check(token.SEMICOLON) {
		p.advance()
		return nil
	}
	return diag.Errorf(p.prevEnd(), "Expected ';' after %s", context)
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.peekKind() {
	case token.KW_PRINT:
		return p.parsePrintStmt()
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_MUT:
		return p.parseMutDecl()
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseSimpleStmt()
	}
}

// parsePrintStmt parses: print expr (, expr)* ;
// The first expression is the format; the rest are arguments.
func (p *Parser) parsePrintStmt() (*ast.PrintStmt, error) {
	start := p.advance() // consume 'print'
	stmt := &ast.PrintStmt{}

	format, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	stmt.Format = format

	for p.check(token.COMMA) {
		p.advance() // consume ','
		arg, err := p.parseExpr(bpNone)
		if err != nil {
			return nil, err
		}
		stmt.Args = append(stmt.Args, arg)
	}

	if err := p.expectSemicolon("print statement"); err != nil {
		return nil, err
	}
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt, nil
}

// parseIfStmt parses: if ( expr ) block else block
// The else branch is mandatory.
func (p *Parser) parseIfStmt() (*ast.IfStmt, error) {
	start := p.advance() // consume 'if'
	stmt := &ast.IfStmt{}

	if !p.check(token.LPAREN) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected '(' after 'if'")
	}
	p.advance()

	cond, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	stmt.Condition = cond

	if !p.check(token.RPAREN) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected ')' after if condition")
	}
	p.advance()

	if stmt.Then, err = p.parseBlock(); err != nil {
		return nil, err
	}

	if !p.check(token.KW_ELSE) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected 'else' after if body")
	}
	p.advance()

	if stmt.Else, err = p.parseBlock(); err != nil {
		return nil, err
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt, nil
}

// parseWhileStmt parses: while ( expr ) block
func (p *Parser) parseWhileStmt() (*ast.WhileStmt, error) {
	start := p.advance() // consume 'while'
	stmt := &ast.WhileStmt{}

	if !p.check(token.LPAREN) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected '(' after 'while'")
	}
	p.advance()

	cond, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	stmt.Condition = cond

	if !p.check(token.RPAREN) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected ')' after while condition")
	}
	p.advance()

	if stmt.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt, nil
}

// parseMutDecl parses: mut IDENT = expr ;
func (p *Parser) parseMutDecl() (*ast.AssignStmt, error) {
	start := p.advance() // consume 'mut'

	if !p.check(token.IDENT) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected identifier after 'mut'")
	}
	nameTok := p.advance()

	if !p.check(token.ASSIGN) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected '=' after identifier in mut declaration")
	}
	p.advance()

	value, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}

	if err := p.expectSemicolon("declaration"); err != nil {
		return nil, err
	}

	return &ast.AssignStmt{
		StmtBase:  makeStmtBase(start.Span.Start, p.prevEnd()),
		Name:      nameTok.Lexeme,
		NamePos:   nameTok.Span.Start,
		Value:     value,
		IsMutDecl: true,
		Kind:      ast.Declaration,
	}, nil
}

// parseSimpleStmt parses an assignment or expression statement. '=' binds to
// the statement, not to expressions: the left-hand side is parsed as an
// expression first and must turn out to be a bare identifier.
func (p *Parser) parseSimpleStmt() (ast.Stmt, error) {
	lhs, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}

	if p.check(token.ASSIGN) {
		target, ok := lhs.(*ast.VariableExpr)
		if !ok {
			return nil, diag.Errorf(lhs.GetSpan().Start, "Invalid assignment target")
		}
		p.advance() // consume '='

		value, err := p.parseExpr(bpNone)
		if err != nil {
			return nil, err
		}
		if err := p.expectSemicolon("expression statement"); err != nil {
			return nil, err
		}
		return &ast.AssignStmt{
			StmtBase: makeStmtBase(lhs.GetSpan().Start, p.prevEnd()),
			Name:     target.Name,
			NamePos:  target.Span.Start,
			Value:    value,
			Kind:     ast.Declaration,
		}, nil
	}

	if err := p.expectSemicolon("expression statement"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(lhs.GetSpan().Start, p.prevEnd()),
		Expr:     lhs,
	}, nil
}

// parseBlock parses: { stmt* }
func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	if !p.check(token.LBRACE) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected '{'")
	}
	start := p.advance()
	block := &ast.BlockStmt{}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}

	if !p.check(token.RBRACE) {
		return nil, diag.Errorf(p.peek().Span.Start, "Expected '}'")
	}
	p.advance()

	block.Span = p.makeSpan(start.Span.Start)
	return block, nil
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseExpr parses an expression with the given minimum binding power.
func (p *Parser) parseExpr(minBP int) (ast.Expr, error) {
	left, err := p.nud()
	if err != nil {
		return nil, err
	}

	for {
		bp := infixBP(p.peekKind())
		if bp <= minBP {
			break
		}
		if left, err = p.led(left); err != nil {
			return nil, err
		}
	}

	return left, nil
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.NumberExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    tok.Value,
		}, nil

	case token.STRING:
		p.advance()
		return &ast.StringExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    tok.Lexeme,
		}, nil

	case token.IDENT:
		p.advance()
		return &ast.VariableExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Name:     tok.Lexeme,
		}, nil

	case token.LPAREN:
		p.advance() // consume '('
		expr, err := p.parseExpr(bpNone)
		if err != nil {
			return nil, err
		}
		if !p.check(token.RPAREN) {
			return nil, diag.Errorf(p.peek().Span.Start, "Expected ')'")
		}
		p.advance()
		return expr, nil

	case token.MINUS:
		p.advance()
		operand, err := p.parseExpr(bpPrefix)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       token.MINUS,
			Operand:  operand,
		}, nil

	default:
		return nil, diag.Errorf(tok.Span.Start, "Unknown token when expecting an expression")
	}
}

// led handles infix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) (ast.Expr, error) {
	tok := p.advance()
	right, err := p.parseExpr(infixBP(tok.Kind))
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{
		ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
		Op:       tok.Kind,
		Left:     left,
		Right:    right,
	}, nil
}

// ============================================================
// Span helpers
// ============================================================

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
