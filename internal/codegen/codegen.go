// Package codegen lowers the checked AST to LLVM IR.
//
// Every source variable gets a stack slot allocated in the entry block of
// main; reads reload from the slot and writes store into it. Comparison
// results are widened to double immediately, so every expression uniformly
// yields a double and control-flow merges stay simple.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"klang/internal/ast"
	"klang/internal/sema"
	"klang/internal/token"
)

// slot is one variable's storage: the alloca, its element type, and the
// binding's mutability.
type slot struct {
	ptr     *ir.InstAlloca
	elem    types.Type
	mutable bool
}

// Generator holds all lowering state: the module, the current insertion
// block, and a scope stack mirroring the checker's.
type Generator struct {
	mod    *ir.Module
	fn     *ir.Func
	entry  *ir.Block
	block  *ir.Block
	printf *ir.Func

	info    *sema.Info
	scopes  []map[string]*slot
	strings map[string]*ir.Global
	names   map[string]int
	strNum  int
}

// New creates a generator whose module records sourceFile as its
// source_filename and declares the external variadic printf.
func New(sourceFile string) *Generator {
	g := &Generator{
		mod:     ir.NewModule(),
		strings: make(map[string]*ir.Global),
		names:   make(map[string]int),
	}
	g.mod.SourceFilename = sourceFile

	g.printf = g.mod.NewFunc("printf", types.I32, ir.NewParam("format", types.NewPointer(types.I8)))
	g.printf.Sig.Variadic = true

	g.fn = g.mod.NewFunc("main", types.I32)
	g.entry = g.fn.NewBlock("entry")
	g.block = g.entry
	return g
}

// Module returns the generated module.
func (g *Generator) Module() *ir.Module {
	return g.mod
}

// Program lowers the whole program into main and terminates it with
// `ret i32 0`.
func (g *Generator) Program(prog *ast.Program, info *sema.Info) error {
	g.info = info
	g.pushScope()
	defer g.popScope()

	for _, stmt := range prog.Stmts {
		if _, err := g.genStmt(stmt); err != nil {
			return err
		}
	}
	g.block.NewRet(constant.NewInt(types.I32, 0))
	return nil
}

// ---- scope stack ----

func (g *Generator) pushScope() {
	g.scopes = append(g.scopes, make(map[string]*slot))
}

func (g *Generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

// lookupSlot walks the scope stack innermost-outward.
func (g *Generator) lookupSlot(name string) *slot {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if s, ok := g.scopes[i][name]; ok {
			return s
		}
	}
	return nil
}

// createSlot allocates a stack slot in the entry block and binds it in the
// current scope.
func (g *Generator) createSlot(name string, elem types.Type, mutable bool) *slot {
	alloca := ir.NewAlloca(elem)
	alloca.SetName(g.uniqueName(name))
	g.entry.Insts = append(g.entry.Insts, alloca)
	s := &slot{ptr: alloca, elem: elem, mutable: mutable}
	g.scopes[len(g.scopes)-1][name] = s
	return s
}

// uniqueName returns base, then base.1, base.2, ... on reuse, keeping local
// value and block names unique within the function.
func (g *Generator) uniqueName(base string) string {
	n := g.names[base]
	g.names[base]++
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, n)
}

func (g *Generator) newBlock(prefix string) *ir.Block {
	return g.fn.NewBlock(g.uniqueName(prefix))
}

// ---- statements ----

// genStmt lowers a statement and returns its value. Statements yield a
// double wherever control-flow merging needs one; print yields its printf
// call, which merges widen.
func (g *Generator) genStmt(stmt ast.Stmt) (value.Value, error) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		return g.genAssign(s)
	case *ast.PrintStmt:
		return g.genPrint(s)
	case *ast.IfStmt:
		return g.genIf(s)
	case *ast.WhileStmt:
		return g.genWhile(s)
	case *ast.BlockStmt:
		return g.genBlock(s)
	case *ast.ExprStmt:
		return g.genExpr(s.Expr)
	default:
		return nil, fmt.Errorf("internal error: unknown statement node %T", stmt)
	}
}

// genAssign stores the value per the checker's resolved kind: declarations
// and shadowings get a fresh slot in the current scope, reassignments reuse
// the nearest slot.
func (g *Generator) genAssign(s *ast.AssignStmt) (value.Value, error) {
	val, err := g.genExpr(s.Value)
	if err != nil {
		return nil, err
	}

	kind, ok := g.info.AssignKinds[s]
	if !ok {
		return nil, fmt.Errorf("internal error: unresolved assignment to '%s'", s.Name)
	}

	var dst *slot
	switch kind {
	case ast.Declaration, ast.Shadowing:
		dst = g.createSlot(s.Name, val.Type(), s.IsMutDecl)
	case ast.Reassignment:
		dst = g.lookupSlot(s.Name)
		if dst == nil || !dst.mutable {
			return nil, fmt.Errorf("internal error: reassignment to unbound or immutable '%s'", s.Name)
		}
	}

	g.block.NewStore(val, dst.ptr)
	return val, nil
}

// genBlock lowers the statements in order inside a fresh scope and returns
// the last statement's value, or 0.0 for an empty block.
func (g *Generator) genBlock(b *ast.BlockStmt) (value.Value, error) {
	g.pushScope()
	defer g.popScope()

	var last value.Value = constant.NewFloat(types.Double, 0)
	for _, stmt := range b.Stmts {
		v, err := g.genStmt(stmt)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// genIf lowers the three-block pattern: then/else/merge with a PHI of
// double joining the branch values.
func (g *Generator) genIf(s *ast.IfStmt) (value.Value, error) {
	cond, err := g.genExpr(s.Condition)
	if err != nil {
		return nil, err
	}
	condV := g.block.NewFCmp(enum.FPredONE, g.toDouble(cond), constant.NewFloat(types.Double, 0))

	thenBB := g.newBlock("then")
	elseBB := g.newBlock("else")
	mergeBB := g.newBlock("ifcont")
	g.block.NewCondBr(condV, thenBB, elseBB)

	g.block = thenBB
	thenV, err := g.genStmt(s.Then)
	if err != nil {
		return nil, err
	}
	thenV = g.toDouble(thenV)
	g.block.NewBr(mergeBB)
	thenEnd := g.block

	g.block = elseBB
	elseV, err := g.genStmt(s.Else)
	if err != nil {
		return nil, err
	}
	elseV = g.toDouble(elseV)
	g.block.NewBr(mergeBB)
	elseEnd := g.block

	g.block = mergeBB
	return mergeBB.NewPhi(ir.NewIncoming(thenV, thenEnd), ir.NewIncoming(elseV, elseEnd)), nil
}

// genWhile lowers cond/body/after. The loop itself yields 0.0.
func (g *Generator) genWhile(s *ast.WhileStmt) (value.Value, error) {
	condBB := g.newBlock("loopcond")
	bodyBB := g.newBlock("loop")
	afterBB := g.newBlock("afterloop")

	g.block.NewBr(condBB)

	g.block = condBB
	cond, err := g.genExpr(s.Condition)
	if err != nil {
		return nil, err
	}
	condV := g.block.NewFCmp(enum.FPredONE, g.toDouble(cond), constant.NewFloat(types.Double, 0))
	g.block.NewCondBr(condV, bodyBB, afterBB)

	g.block = bodyBB
	if _, err := g.genStmt(s.Body); err != nil {
		return nil, err
	}
	g.block.NewBr(condBB)

	g.block = afterBB
	return constant.NewFloat(types.Double, 0), nil
}

// ---- expressions ----

func (g *Generator) genExpr(expr ast.Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberExpr:
		return constant.NewFloat(types.Double, e.Value), nil

	case *ast.StringExpr:
		return g.stringPtr(e.Value), nil

	case *ast.VariableExpr:
		s := g.lookupSlot(e.Name)
		if s == nil {
			return nil, fmt.Errorf("internal error: unknown variable '%s'", e.Name)
		}
		return g.block.NewLoad(s.elem, s.ptr), nil

	case *ast.UnaryExpr:
		operand, err := g.genExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return g.block.NewFNeg(operand), nil

	case *ast.BinaryExpr:
		return g.genBinary(e)

	default:
		return nil, fmt.Errorf("internal error: unknown expression node %T", expr)
	}
}

func (g *Generator) genBinary(e *ast.BinaryExpr) (value.Value, error) {
	l, err := g.genExpr(e.Left)
	if err != nil {
		return nil, err
	}
	r, err := g.genExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.PLUS:
		return g.block.NewFAdd(l, r), nil
	case token.MINUS:
		return g.block.NewFSub(l, r), nil
	case token.STAR:
		return g.block.NewFMul(l, r), nil
	case token.SLASH:
		return g.block.NewFDiv(l, r), nil
	}

	var pred enum.FPred
	switch e.Op {
	case token.LT:
		pred = enum.FPredOLT
	case token.LTE:
		pred = enum.FPredOLE
	case token.GT:
		pred = enum.FPredOGT
	case token.GTE:
		pred = enum.FPredOGE
	case token.EQ:
		pred = enum.FPredOEQ
	case token.NEQ:
		pred = enum.FPredONE
	default:
		return nil, fmt.Errorf("internal error: invalid binary operator %s", e.Op)
	}
	cmp := g.block.NewFCmp(pred, l, r)
	return g.block.NewUIToFP(cmp, types.Double), nil
}

// toDouble widens integer values (i1 comparison results, i32 printf
// returns) to double. Doubles and pointers pass through.
func (g *Generator) toDouble(v value.Value) value.Value {
	if t, ok := v.Type().(*types.IntType); ok {
		if t.BitSize == 1 {
			return g.block.NewUIToFP(v, types.Double)
		}
		return g.block.NewSIToFP(v, types.Double)
	}
	return v
}

// stringPtr interns s as a private null-terminated global and returns an
// i8* to its first byte.
func (g *Generator) stringPtr(s string) constant.Constant {
	glob, ok := g.strings[s]
	if !ok {
		name := ".str"
		if g.strNum > 0 {
			name = fmt.Sprintf(".str.%d", g.strNum)
		}
		g.strNum++
		glob = g.mod.NewGlobalDef(name, constant.NewCharArrayFromString(s+"\x00"))
		glob.Linkage = enum.LinkagePrivate
		glob.UnnamedAddr = enum.UnnamedAddrUnnamedAddr
		glob.Immutable = true
		g.strings[s] = glob
	}
	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(glob.ContentType, glob, zero, zero)
}
