package dialectparser

// Statement is the sum of top-level SQL statements this package parses.
// Only SelectStatement is a first-class citizen for lowering (§4.3);
// everything else is recognized well enough for dependency extraction and
// rejected by the lowering package with "unsupported statement".
type Statement interface {
	statementNode()
}

// OtherStatement is a non-SELECT statement (INSERT/UPDATE/DELETE/
// CREATE/DROP/TRUNCATE/...), kept only so ExtractDependencies can still
// walk the table references inside it.
type OtherStatement struct {
	Keyword string // the leading keyword, upper-cased
	Tables  []TableRef
}

func (*OtherStatement) statementNode() {}

// SelectStatement is a full SELECT, including its CTEs and trailing
// ORDER BY / LIMIT / OFFSET.
type SelectStatement struct {
	CTEs    []CTE
	Body    SelectBody
	OrderBy []OrderItem
	Limit   Expr
	Offset  Expr
}

func (*SelectStatement) statementNode() {}

// CTE is one WITH-clause binding.
type CTE struct {
	Name string
	Stmt *SelectStatement
}

// SelectBody is the sum of a simple SELECT and a set operation between
// two bodies.
type SelectBody interface {
	selectBodyNode()
}

// SimpleSelect is a single SELECT ... FROM ... WHERE ... GROUP BY ...
// HAVING ... block.
type SimpleSelect struct {
	Distinct bool
	Columns  []SelectItem
	From     []TableRef
	Where    Expr
	GroupBy  []Expr
	Having   Expr
}

func (*SimpleSelect) selectBodyNode() {}

// SetOpKind identifies the kind of a set operation.
type SetOpKind int

const (
	SetOpUnion SetOpKind = iota
	SetOpUnionAll
	SetOpIntersect
	SetOpExcept
)

// SetOpSelect is a UNION/INTERSECT/EXCEPT between two select bodies.
type SetOpSelect struct {
	Left  SelectBody
	Right SelectBody
	Kind  SetOpKind
}

func (*SetOpSelect) selectBodyNode() {}

// SelectItem is one projected output column: either `*`, `table.*`, or an
// expression with an optional alias.
type SelectItem struct {
	Star          bool
	StarQualifier string // set when Star and the star was table-qualified
	Expr          Expr
	Alias         string
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Expr       Expr
	Descending bool
}

// JoinKind identifies the kind of a two-way join.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeftOuter
	JoinRightOuter
	JoinFullOuter
	JoinCross
)

// TableRef is the sum of things that can appear in a FROM clause.
type TableRef interface {
	tableRefNode()
}

// TableName is a dot-joined table reference, e.g. `schema.table`.
type TableName struct {
	Parts []string
	Alias string
}

func (*TableName) tableRefNode() {}

// Join is a two-way join between two table references.
type Join struct {
	Left  TableRef
	Right TableRef
	Kind  JoinKind
	On    Expr     // nil for NATURAL JOIN and CROSS JOIN
	Using []string // set for JOIN ... USING(...)
}

func (*Join) tableRefNode() {}

// SubqueryTable is a derived table: `(SELECT ...) AS alias`.
type SubqueryTable struct {
	Stmt  *SelectStatement
	Alias string
}

func (*SubqueryTable) tableRefNode() {}

// Expr is the sum of scalar expression nodes.
type Expr interface {
	exprNode()
}

// ColumnRef is a (possibly qualified) column reference.
type ColumnRef struct {
	Table string // empty if unqualified
	Name  string
}

func (*ColumnRef) exprNode() {}

// Literal is a constant: string, number, boolean, or NULL.
type Literal struct {
	Value string
	Kind  LiteralKind
}

func (*Literal) exprNode() {}

// LiteralKind discriminates Literal's Value interpretation.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
	LiteralNull
)

// BinaryExpr is a binary operator application, including AND/OR/comparison/
// arithmetic/concat.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is NOT or unary minus.
type UnaryExpr struct {
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCall is a function invocation, optionally a window function via
// Over.
type FuncCall struct {
	Name     string
	Args     []Expr
	Star     bool // COUNT(*)
	Distinct bool
	Over     *WindowSpec
}

func (*FuncCall) exprNode() {}

// WindowSpec is the OVER(...) clause of a window function.
type WindowSpec struct {
	PartitionBy []Expr
	OrderBy     []OrderItem
}

// SubqueryExpr is a scalar or EXISTS/IN subquery used inside an
// expression.
type SubqueryExpr struct {
	Stmt *SelectStatement
}

func (*SubqueryExpr) exprNode() {}

// ExistsExpr is `EXISTS (subquery)`, optionally negated.
type ExistsExpr struct {
	Negated bool
	Stmt    *SelectStatement
}

func (*ExistsExpr) exprNode() {}

// InExpr is `expr [NOT] IN (list-or-subquery)`.
type InExpr struct {
	Negated bool
	Expr    Expr
	List    []Expr
	Stmt    *SelectStatement // set instead of List for `IN (SELECT ...)`
}

func (*InExpr) exprNode() {}

// BetweenExpr is `expr [NOT] BETWEEN low AND high`.
type BetweenExpr struct {
	Negated bool
	Expr    Expr
	Low     Expr
	High    Expr
}

func (*BetweenExpr) exprNode() {}

// CaseExpr is a searched or simple CASE expression.
type CaseExpr struct {
	Operand Expr // set for simple CASE, nil for searched CASE
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// WhenClause is one WHEN/THEN pair of a CaseExpr.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr is `CAST(expr AS type)`.
type CastExpr struct {
	Expr     Expr
	TypeName string
}

func (*CastExpr) exprNode() {}
