package generate

import (
	"oberonc/ast"
	"oberonc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// genCondBranches generates a chain of conditional branches: the body of the
// first branch whose condition holds is run and control continues at `end`.
// The current block is left at the block reached when no condition holds.
func (g *Generator) genCondBranches(conds []ast.Expr, bodies [][]ast.Stmt, end *ir.Block) {
	for i, cond := range conds {
		thenBlock := g.appendBlock()
		elseBlock := g.appendBlock()

		g.block.NewCondBr(g.genExpr(cond), thenBlock, elseBlock)

		g.block = thenBlock
		g.genStmts(bodies[i])
		if !g.terminated() {
			g.block.NewBr(end)
		}

		g.block = elseBlock
	}
}

func (g *Generator) genIfStmt(stmt *ast.IfStmt) {
	conds := []ast.Expr{stmt.Cond}
	bodies := [][]ast.Stmt{stmt.Then}
	for _, branch := range stmt.ElsIfs {
		conds = append(conds, branch.Cond)
		bodies = append(bodies, branch.Body)
	}

	endBlock := g.appendBlock()
	g.genCondBranches(conds, bodies, endBlock)

	g.genStmts(stmt.Else)
	if !g.terminated() {
		g.block.NewBr(endBlock)
	}

	g.block = endBlock
}

// genCaseStmt generates a `CASE` as a switch.  Label ranges are expanded into
// one case per value.  A missing `ELSE` continues after the statement.
func (g *Generator) genCaseStmt(stmt *ast.CaseStmt) {
	if typing.RecordOf(stmt.Expr.Type()) != nil {
		g.genTypeCaseStmt(stmt)
		return
	}

	val := g.genExpr(stmt.Expr)
	it := val.Type().(*types.IntType)

	switchBlock := g.block
	endBlock := g.appendBlock()

	var cases []*ir.Case
	for _, clause := range stmt.Clauses {
		clauseBlock := g.appendBlock()

		for _, label := range clause.Labels {
			low, high := caseBounds(label)
			for v := low; v <= high; v++ {
				cases = append(cases, ir.NewCase(constant.NewInt(it, v), clauseBlock))
			}
		}

		g.block = clauseBlock
		g.genStmts(clause.Body)
		if !g.terminated() {
			g.block.NewBr(endBlock)
		}
	}

	defaultBlock := endBlock
	if stmt.Else != nil {
		defaultBlock = g.appendBlock()

		g.block = defaultBlock
		g.genStmts(stmt.Else)
		if !g.terminated() {
			g.block.NewBr(endBlock)
		}
	}

	switchBlock.NewSwitch(val, defaultBlock, cases...)
	g.block = endBlock
}

// genTypeCaseStmt generates a type `CASE` as a chain of type tests in label
// order.  The first clause whose label the dynamic type extends runs.
func (g *Generator) genTypeCaseStmt(stmt *ast.CaseStmt) {
	subj := g.genTypeSubject(stmt.Expr)
	endBlock := g.appendBlock()

	for _, clause := range stmt.Clauses {
		if len(clause.Labels) == 0 {
			continue
		}

		target := clause.Labels[0].(*ast.Designator).Decl.Type()
		holds := g.genSubjectTest(subj, target)

		clauseBlock := g.appendBlock()
		nextBlock := g.appendBlock()
		g.block.NewCondBr(holds, clauseBlock, nextBlock)

		g.block = clauseBlock
		g.genStmts(clause.Body)
		if !g.terminated() {
			g.block.NewBr(endBlock)
		}

		g.block = nextBlock
	}

	if stmt.Else != nil {
		g.genStmts(stmt.Else)
	}

	if !g.terminated() {
		g.block.NewBr(endBlock)
	}

	g.block = endBlock
}

// caseBounds returns the ordinal bounds of a case label.
func caseBounds(label ast.Expr) (int64, int64) {
	if re, ok := label.(*ast.RangeExpr); ok {
		low, _ := caseBounds(re.Low)
		high, _ := caseBounds(re.High)
		return low, high
	}

	switch v := label.(type) {
	case *ast.IntegerLit:
		return v.Value, v.Value
	case *ast.CharLit:
		return int64(v.Value), int64(v.Value)
	}

	return 0, -1
}

// genWhileStmt generates a `WHILE`.  Each `ELSIF` arm is tested when the
// previous conditions fail and loops back to the head when it runs.
func (g *Generator) genWhileStmt(stmt *ast.WhileStmt) {
	headBlock := g.appendBlock()
	endBlock := g.appendBlock()

	g.block.NewBr(headBlock)
	g.block = headBlock

	conds := []ast.Expr{stmt.Cond}
	bodies := [][]ast.Stmt{stmt.Body}
	for _, branch := range stmt.ElsIfs {
		conds = append(conds, branch.Cond)
		bodies = append(bodies, branch.Body)
	}

	g.genCondBranches(conds, bodies, headBlock)

	g.block.NewBr(endBlock)
	g.block = endBlock
}

func (g *Generator) genRepeatStmt(stmt *ast.RepeatStmt) {
	bodyBlock := g.appendBlock()
	endBlock := g.appendBlock()

	g.block.NewBr(bodyBlock)
	g.block = bodyBlock

	g.genStmts(stmt.Body)
	if !g.terminated() {
		g.block.NewCondBr(g.genExpr(stmt.Cond), endBlock, bodyBlock)
	}

	g.block = endBlock
}

// genForStmt generates a `FOR`.  The upper bound is evaluated once.  The loop
// is skipped if the bounds are already out of order for the direction of the
// step and left once the counter passes the upper bound.
func (g *Generator) genForStmt(stmt *ast.ForStmt) {
	g.setRefMode(false)
	counter := g.genAccess(stmt.Counter).ptr
	g.restoreRefMode()

	it := g.intType(stmt.Counter.Type())

	low := g.genExpr(stmt.Low)
	g.block.NewStore(low, counter)
	high := g.genExpr(stmt.High)

	enterPred, exitPred := enum.IPredSLE, enum.IPredSGT
	if stmt.Step < 0 {
		enterPred, exitPred = enum.IPredSGE, enum.IPredSLT
	}

	if stmt.Counter.Type().Kind() == typing.KindByte {
		enterPred, exitPred = unsignedPred(enterPred), unsignedPred(exitPred)
	}

	bodyBlock := g.appendBlock()
	endBlock := g.appendBlock()

	g.block.NewCondBr(g.block.NewICmp(enterPred, low, high), bodyBlock, endBlock)

	g.block = bodyBlock
	g.genStmts(stmt.Body)

	if !g.terminated() {
		next := g.block.NewAdd(g.block.NewLoad(it, counter), constant.NewInt(it, stmt.Step))
		g.block.NewStore(next, counter)

		g.block.NewCondBr(g.block.NewICmp(exitPred, next, high), endBlock, bodyBlock)
	}

	g.block = endBlock
}

func (g *Generator) genLoopStmt(stmt *ast.LoopStmt) {
	bodyBlock := g.appendBlock()
	endBlock := g.appendBlock()

	g.block.NewBr(bodyBlock)
	g.block = bodyBlock

	g.loopExits = append(g.loopExits, endBlock)
	g.genStmts(stmt.Body)
	g.loopExits = g.loopExits[:len(g.loopExits)-1]

	if !g.terminated() {
		g.block.NewBr(bodyBlock)
	}

	g.block = endBlock
}

// unsignedPred returns the unsigned version of a signed comparison.
func unsignedPred(pred enum.IPred) enum.IPred {
	switch pred {
	case enum.IPredSLT:
		return enum.IPredULT
	case enum.IPredSLE:
		return enum.IPredULE
	case enum.IPredSGT:
		return enum.IPredUGT
	case enum.IPredSGE:
		return enum.IPredUGE
	}

	return pred
}
