package ast

// Stmt represents a statement.  All statement nodes implement the `Stmt`
// interface.
type Stmt interface {
	ASTNode
}

// Assignment is an assignment statement: `lhs := rhs`.
type Assignment struct {
	ASTBase

	Lhs *Designator
	Rhs Expr
}

// ProcCall is a procedure call statement.  The last selector of the call is
// always the list of actual parameters.
type ProcCall struct {
	ASTBase

	Call *Designator
}

// CondBranch is a conditional branch: an `ELSIF` of an `IF` or `WHILE`.
type CondBranch struct {
	ASTBase

	Cond Expr
	Body []Stmt
}

// IfStmt is an `IF` statement.
type IfStmt struct {
	ASTBase

	Cond   Expr
	Then   []Stmt
	ElsIfs []*CondBranch
	Else   []Stmt
}

// CaseClause is a list of case labels along with the statements they select.
// The labels are literals or ranges of literals.  In a type `CASE`, the only
// label is a designator naming a type.
type CaseClause struct {
	ASTBase

	Labels []Expr
	Body   []Stmt
}

// CaseStmt is a `CASE` statement.
type CaseStmt struct {
	ASTBase

	Expr    Expr
	Clauses []*CaseClause
	Else    []Stmt
}

// WhileStmt is a `WHILE` statement with optional `ELSIF` branches.
type WhileStmt struct {
	ASTBase

	Cond   Expr
	Body   []Stmt
	ElsIfs []*CondBranch
}

// RepeatStmt is a `REPEAT` statement.
type RepeatStmt struct {
	ASTBase

	Body []Stmt
	Cond Expr
}

// ForStmt is a `FOR` statement.  The step is always a non-zero constant.
type ForStmt struct {
	ASTBase

	Counter   *Designator
	Low, High Expr
	Step      int64
	Body      []Stmt
}

// LoopStmt is an unconditional `LOOP` which is left using `EXIT`.
type LoopStmt struct {
	ASTBase

	Body []Stmt
}

// ExitStmt leaves the innermost `LOOP`.
type ExitStmt struct {
	ASTBase
}

// ReturnStmt returns from a procedure or module body.  The value is nil for
// proper procedures.
type ReturnStmt struct {
	ASTBase

	Value Expr
}

