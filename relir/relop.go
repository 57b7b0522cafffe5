// Package relir defines the relational operator tree produced by lowering
// a parsed SELECT statement against a schema catalog, and the lowering
// function itself. Only SELECT statements lower; every other statement is
// rejected with ErrUnsupportedStatement.
package relir

import (
	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// RelOp is the sum of relational plan nodes.
type RelOp interface {
	relOpNode()
	// Schema returns the output relation schema of this node.
	Schema() sqltype.RelationSchema
}

// Scan reads a base table (or a derived table materialized from a
// subquery) identified by Alias in the enclosing query.
type Scan struct {
	TableName string
	Alias     string
	schema    sqltype.RelationSchema
}

func (s *Scan) relOpNode() {}

// Schema returns s's output schema, tagged with Alias as SourceTable.
func (s *Scan) Schema() sqltype.RelationSchema { return s.schema }

// NewScan builds a Scan over a catalog relation, tagging every output
// column's SourceTable with alias.
func NewScan(tableName, alias string, relation sqltype.RelationSchema) *Scan {
	cols := make([]sqltype.TypedColumn, len(relation.Columns))
	for i, c := range relation.Columns {
		c.SourceTable = alias
		cols[i] = c
	}

	return &Scan{TableName: tableName, Alias: alias, schema: sqltype.RelationSchema{Columns: cols}}
}

// ProjectItem is one output column of a Project: either a star expansion
// (optionally qualified) or a computed expression with an alias.
type ProjectItem struct {
	Star          bool
	StarQualifier string
	Expr          dialectparser.Expr
	Alias         string
}

// Project computes a derived relation from Input by evaluating Items.
// Star items are expanded against Input's schema at Schema()-call time,
// which is where §4.4's "SELECT * is expanded in the planner" happens in
// this implementation: the planner triggers expansion simply by reading
// Schema().
type Project struct {
	Input RelOp
	Items []ProjectItem
}

func (p *Project) relOpNode() {}

// Schema expands Items against Input's schema, inferring a type and
// nullability for every computed expression.
func (p *Project) Schema() sqltype.RelationSchema {
	input := p.Input.Schema()

	var cols []sqltype.TypedColumn

	for _, item := range p.Items {
		if item.Star {
			for _, c := range input.Columns {
				if item.StarQualifier != "" && c.SourceTable != item.StarQualifier {
					continue
				}

				cols = append(cols, c)
			}

			continue
		}

		name := item.Alias
		if name == "" {
			name = exprDisplayName(item.Expr)
		}

		typ, nullable := InferExprType(item.Expr, input)
		cols = append(cols, sqltype.TypedColumn{Name: name, Type: typ, Nullability: nullable})
	}

	return sqltype.RelationSchema{Columns: cols}
}

// Filter restricts Input's rows by Predicate; its schema passes through
// unchanged.
type Filter struct {
	Input     RelOp
	Predicate dialectparser.Expr
}

func (f *Filter) relOpNode() {}

// Schema returns Input's schema unchanged.
func (f *Filter) Schema() sqltype.RelationSchema { return f.Input.Schema() }

// Join combines Left and Right under Kind, with Condition populated from
// an explicit ON clause or desugared from USING. A nil Condition means
// CROSS JOIN or NATURAL JOIN (documented limitation: NATURAL JOIN
// produces no condition).
type Join struct {
	Left      RelOp
	Right     RelOp
	Kind      dialectparser.JoinKind
	Condition dialectparser.Expr
}

func (j *Join) relOpNode() {}

// Schema merges Left and Right's schemas, marking the outer side
// nullable per the join kind.
func (j *Join) Schema() sqltype.RelationSchema {
	left := j.Left.Schema()
	right := j.Right.Schema()

	switch j.Kind {
	case dialectparser.JoinLeftOuter:
		right = right.WithNullability(sqltype.Nullable)
	case dialectparser.JoinRightOuter:
		left = left.WithNullability(sqltype.Nullable)
	case dialectparser.JoinFullOuter:
		left = left.WithNullability(sqltype.Nullable)
		right = right.WithNullability(sqltype.Nullable)
	}

	return left.Merge(right)
}

// Aggregate groups Input by GroupBy and computes Aggregates over each
// group.
type Aggregate struct {
	Input      RelOp
	GroupBy    []dialectparser.Expr
	Aggregates []ProjectItem
}

func (a *Aggregate) relOpNode() {}

// Schema returns the GroupBy columns (by reference, when they're bare
// column refs) followed by the computed Aggregates.
func (a *Aggregate) Schema() sqltype.RelationSchema {
	input := a.Input.Schema()

	var cols []sqltype.TypedColumn

	for _, g := range a.GroupBy {
		typ, nullable := InferExprType(g, input)
		cols = append(cols, sqltype.TypedColumn{Name: exprDisplayName(g), Type: typ, Nullability: nullable})
	}

	for _, item := range a.Aggregates {
		name := item.Alias
		if name == "" {
			name = exprDisplayName(item.Expr)
		}

		typ, nullable := InferExprType(item.Expr, input)
		cols = append(cols, sqltype.TypedColumn{Name: name, Type: typ, Nullability: nullable})
	}

	return sqltype.RelationSchema{Columns: cols}
}

// Sort orders Input's rows by Keys; its schema passes through unchanged.
type Sort struct {
	Input RelOp
	Keys  []dialectparser.OrderItem
}

func (s *Sort) relOpNode() {}

// Schema returns Input's schema unchanged.
func (s *Sort) Schema() sqltype.RelationSchema { return s.Input.Schema() }

// Limit caps the number of rows from Input; its schema passes through
// unchanged.
type Limit struct {
	Input      RelOp
	LimitExpr  dialectparser.Expr
	OffsetExpr dialectparser.Expr
}

func (l *Limit) relOpNode() {}

// Schema returns Input's schema unchanged.
func (l *Limit) Schema() sqltype.RelationSchema { return l.Input.Schema() }

// SetOp combines Left and Right under a UNION/UNION ALL/INTERSECT/EXCEPT.
// Its schema is the left side's schema, per §4.3.
type SetOp struct {
	Left  RelOp
	Right RelOp
	Kind  dialectparser.SetOpKind
}

func (s *SetOp) relOpNode() {}

// Schema returns Left's schema.
func (s *SetOp) Schema() sqltype.RelationSchema { return s.Left.Schema() }

func exprDisplayName(expr dialectparser.Expr) string {
	if col, ok := expr.(*dialectparser.ColumnRef); ok {
		return col.Name
	}

	if fn, ok := expr.(*dialectparser.FuncCall); ok {
		return fn.Name
	}

	return ""
}
