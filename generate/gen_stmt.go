package generate

import (
	"oberonc/ast"
	"oberonc/typing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// genStmts generates a statement sequence.  Statements following a terminator
// are generated into a fresh block without predecessors.
func (g *Generator) genStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		if g.terminated() {
			g.block = g.appendBlock()
		}

		g.genStmt(stmt)
	}
}

func (g *Generator) genStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.Assignment:
		g.genAssignment(v)
	case *ast.ProcCall:
		g.setRefMode(true)
		g.genDesignator(v.Call)
		g.restoreRefMode()
	case *ast.IfStmt:
		g.genIfStmt(v)
	case *ast.CaseStmt:
		g.genCaseStmt(v)
	case *ast.WhileStmt:
		g.genWhileStmt(v)
	case *ast.RepeatStmt:
		g.genRepeatStmt(v)
	case *ast.ForStmt:
		g.genForStmt(v)
	case *ast.LoopStmt:
		g.genLoopStmt(v)
	case *ast.ExitStmt:
		if len(g.loopExits) == 0 {
			g.fail("EXIT outside of loop")
		}

		g.block.NewBr(g.loopExits[len(g.loopExits)-1])
	case *ast.ReturnStmt:
		g.genReturnStmt(v)
	default:
		g.fail("statement at %s cannot be generated", stmt.Pos())
	}
}

// genAssignment generates an assignment.  The address of the target is
// computed before the value.  Structured values are copied: records are
// projected onto the type of the target.
func (g *Generator) genAssignment(stmt *ast.Assignment) {
	g.setRefMode(false)
	dst := g.genAccess(stmt.Lhs)
	g.restoreRefMode()

	typ := stmt.Lhs.Type()
	if isScalar(typ) {
		val := g.genExpr(stmt.Rhs)
		g.block.NewStore(g.castPtr(val, g.convType(typ)), dst.ptr)
		return
	}

	switch v := stmt.Rhs.(type) {
	case *ast.StringLit:
		g.memcpy(dst.ptr, g.stringPtr(v.Value), constant.NewInt(types.I64, int64(len(v.Value)+1)))
	case *ast.CharLit:
		g.memcpy(dst.ptr, g.stringPtr(string([]byte{v.Value})), constant.NewInt(types.I64, 2))
	case *ast.Designator:
		g.setRefMode(false)
		src := g.genAccess(v)
		g.restoreRefMode()

		g.memcpy(dst.ptr, src.ptr, g.byteSize(dst))
	default:
		g.fail("cannot assign a value to %s", typing.Format(typ))
	}
}

// genReturnStmt generates a return.  The module body returns 0.
func (g *Generator) genReturnStmt(stmt *ast.ReturnStmt) {
	switch {
	case g.proc == nil:
		g.block.NewRet(constant.NewInt(types.I32, 0))
	case stmt.Value == nil:
		g.block.NewRet(nil)
	default:
		g.block.NewRet(g.genExpr(stmt.Value))
	}
}
