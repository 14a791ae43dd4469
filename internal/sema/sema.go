// Package sema implements name resolution, mutability checking, and type
// checking over the parsed AST.
//
// The checker walks the tree once, maintaining a stack of lexical scopes.
// It never mutates the AST: the resolved categorization of each assignment
// is returned in an Info table that lowering consumes.
package sema

import (
	"fmt"

	"klang/internal/ast"
	"klang/internal/diag"
	"klang/internal/span"
)

// ValueType is the type of a klang expression. Arithmetic and comparisons
// operate on numbers only; strings come from string literals and may be
// bound to variables, but never appear as operands.
type ValueType int

const (
	Number ValueType = iota
	String
)

func (t ValueType) String() string {
	if t == String {
		return "string"
	}
	return "number"
}

// Info carries the checker's resolution results. AssignKinds has an entry
// for every AssignStmt in the program; Types has an entry for every
// expression node.
type Info struct {
	AssignKinds map[*ast.AssignStmt]ast.AssignKind
	Types       map[ast.Expr]ValueType
}

// TypeOf returns the checked type of expr, defaulting to Number.
func (info *Info) TypeOf(expr ast.Expr) ValueType {
	return info.Types[expr]
}

// symbol is one binding: its mutability, first-assignment site, and type.
type symbol struct {
	mutable bool
	declPos span.Position
	typ     ValueType
}

// scope is a map of bindings with a parent chain.
type scope struct {
	symbols map[string]*symbol
	parent  *scope
}

func newScope(parent *scope) *scope {
	return &scope{symbols: make(map[string]*symbol), parent: parent}
}

// lookup walks the scope chain innermost-outward.
func (s *scope) lookup(name string) *symbol {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// lookupCurrent checks the current scope only.
func (s *scope) lookupCurrent(name string) *symbol {
	return s.symbols[name]
}

// declare introduces a binding in the current scope, shadowing any outer one.
func (s *scope) declare(name string, mutable bool, pos span.Position, typ ValueType) {
	s.symbols[name] = &symbol{mutable: mutable, declPos: pos, typ: typ}
}

// checker holds the traversal state.
type checker struct {
	filename string
	scope    *scope
	info     *Info
}

// Check validates prog and returns the resolution table. The filename is
// used in note lines pointing at first-assignment sites.
func Check(prog *ast.Program, filename string) (*Info, error) {
	c := &checker{
		filename: filename,
		scope:    newScope(nil),
		info: &Info{
			AssignKinds: make(map[*ast.AssignStmt]ast.AssignKind),
			Types:       make(map[ast.Expr]ValueType),
		},
	}
	for _, stmt := range prog.Stmts {
		if err := c.checkStmt(stmt); err != nil {
			return nil, err
		}
	}
	return c.info, nil
}

func (c *checker) pushScope() { c.scope = newScope(c.scope) }
func (c *checker) popScope()  { c.scope = c.scope.parent }

// ---- statements ----

func (c *checker) checkStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		return c.checkAssign(s)

	case *ast.PrintStmt:
		if _, err := c.inferExpr(s.Format); err != nil {
			return err
		}
		for _, arg := range s.Args {
			if _, err := c.inferExpr(arg); err != nil {
				return err
			}
		}
		return nil

	case *ast.IfStmt:
		if _, err := c.inferExpr(s.Condition); err != nil {
			return err
		}
		if err := c.checkStmt(s.Then); err != nil {
			return err
		}
		return c.checkStmt(s.Else)

	case *ast.WhileStmt:
		if _, err := c.inferExpr(s.Condition); err != nil {
			return err
		}
		return c.checkStmt(s.Body)

	case *ast.BlockStmt:
		c.pushScope()
		defer c.popScope()
		for _, inner := range s.Stmts {
			if err := c.checkStmt(inner); err != nil {
				return err
			}
		}
		return nil

	case *ast.ExprStmt:
		_, err := c.inferExpr(s.Expr)
		return err

	default:
		return fmt.Errorf("internal error: unknown statement node %T", stmt)
	}
}

// checkAssign applies the assignment rule set and records the resolved kind.
func (c *checker) checkAssign(s *ast.AssignStmt) error {
	rhsType, err := c.inferExpr(s.Value)
	if err != nil {
		return err
	}

	if s.IsMutDecl {
		// 'mut' always declares in the current scope.
		c.scope.declare(s.Name, true, s.NamePos, rhsType)
		c.info.AssignKinds[s] = ast.Declaration
		return nil
	}

	if cur := c.scope.lookupCurrent(s.Name); cur != nil {
		if !cur.mutable {
			return diag.Errorf(s.NamePos,
				"Cannot reassign to immutable variable '%s'\nnote: first assignment here: %s:%d:%d\nhelp: consider making this binding mutable: 'mut %s'",
				s.Name, c.filename, cur.declPos.Line, cur.declPos.Column, s.Name)
		}
		if err := c.checkAssignType(cur, rhsType, s.NamePos); err != nil {
			return err
		}
		c.info.AssignKinds[s] = ast.Reassignment
		return nil
	}

	if nearest := c.scope.lookup(s.Name); nearest != nil {
		if nearest.mutable {
			// Cross-scope mutation of the nearest mutable binding.
			if err := c.checkAssignType(nearest, rhsType, s.NamePos); err != nil {
				return err
			}
			c.info.AssignKinds[s] = ast.Reassignment
			return nil
		}
		// Outer binding is immutable: shadow it with a new immutable one.
		c.scope.declare(s.Name, false, s.NamePos, rhsType)
		c.info.AssignKinds[s] = ast.Shadowing
		return nil
	}

	// No binding anywhere: new immutable declaration.
	c.scope.declare(s.Name, false, s.NamePos, rhsType)
	c.info.AssignKinds[s] = ast.Declaration
	return nil
}

// checkAssignType enforces that a reassignment keeps the stored type.
func (c *checker) checkAssignType(sym *symbol, rhsType ValueType, pos span.Position) error {
	if sym.typ == rhsType {
		return nil
	}
	return diag.Errorf(pos,
		"mismatched types\nnote: expected due to first assignment: %s:%d:%d\nhelp: expected %s, found %s",
		c.filename, sym.declPos.Line, sym.declPos.Column, sym.typ, rhsType)
}

// ---- expressions ----

// inferExpr types an expression, validating every subexpression, and
// records the result in the Info table.
func (c *checker) inferExpr(expr ast.Expr) (ValueType, error) {
	t, err := c.inferExprType(expr)
	if err != nil {
		return t, err
	}
	c.info.Types[expr] = t
	return t, nil
}

func (c *checker) inferExprType(expr ast.Expr) (ValueType, error) {
	switch e := expr.(type) {
	case *ast.NumberExpr:
		return Number, nil

	case *ast.StringExpr:
		return String, nil

	case *ast.VariableExpr:
		sym := c.scope.lookup(e.Name)
		if sym == nil {
			return Number, diag.Errorf(e.Span.Start, "cannot find value '%s' in this scope", e.Name)
		}
		return sym.typ, nil

	case *ast.UnaryExpr:
		t, err := c.inferExpr(e.Operand)
		if err != nil {
			return Number, err
		}
		if t == String {
			return Number, diag.Errorf(e.Operand.GetSpan().Start, "String literal cannot be used in unary operation")
		}
		return Number, nil

	case *ast.BinaryExpr:
		lt, err := c.inferExpr(e.Left)
		if err != nil {
			return Number, err
		}
		rt, err := c.inferExpr(e.Right)
		if err != nil {
			return Number, err
		}
		if lt == String {
			return Number, diag.Errorf(e.Left.GetSpan().Start, "String literal cannot be used in binary operation (left operand)")
		}
		if rt == String {
			return Number, diag.Errorf(e.Right.GetSpan().Start, "String literal cannot be used in binary operation (right operand)")
		}
		return Number, nil

	default:
		return Number, fmt.Errorf("internal error: unknown expression node %T", expr)
	}
}
