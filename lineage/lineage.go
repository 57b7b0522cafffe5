// Package lineage extracts column-level lineage edges from a relational
// plan tree (§4.5), walking Scan/Project/Filter/Join/Aggregate/Sort/
// Limit/SetOp nodes and classifying each edge as a copy, rename,
// transform, or inspect.
package lineage

import (
	"strings"

	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/relir"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// Kind classifies how a target column derives from a source column.
type Kind int

const (
	KindCopy Kind = iota
	KindRename
	KindTransform
	KindInspect
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindRename:
		return "rename"
	case KindTransform:
		return "transform"
	default:
		return "inspect"
	}
}

// LineageEdge is one (target, ←, source) derivation step. TargetColumn is
// empty for inspect edges, which record that a column was consulted
// (in a predicate, join condition, or sort key) without directly
// producing an output column.
type LineageEdge struct {
	TargetColumn string
	SourceTable  string
	SourceColumn string
	Kind         Kind
}

// IsDirect reports whether the edge is a pass-through (copy or rename),
// which description-drift analysis uses to decide whether a target
// column should inherit its upstream's description.
func (e LineageEdge) IsDirect() bool {
	return e.Kind == KindCopy || e.Kind == KindRename
}

// Extract walks op and returns the deduplicated, ordered list of lineage
// edges for the model op compiles.
func Extract(op relir.RelOp) []LineageEdge {
	var edges []LineageEdge

	walk(op, &edges)

	return dedup(edges)
}

func walk(op relir.RelOp, edges *[]LineageEdge) {
	switch n := op.(type) {
	case *relir.Scan:
		// No edges; the scan's columns are lineage origins, already
		// tagged with SourceTable by relir.NewScan.
	case *relir.Project:
		walk(n.Input, edges)
		addProjectionEdges(n.Items, n.Input.Schema(), edges)
	case *relir.Filter:
		walk(n.Input, edges)
		addInspectEdges(n.Predicate, n.Input.Schema(), edges)
	case *relir.Join:
		walk(n.Left, edges)
		walk(n.Right, edges)
		addInspectEdges(n.Condition, n.Schema(), edges)
	case *relir.Aggregate:
		walk(n.Input, edges)
		addGroupByEdges(n.GroupBy, n.Input.Schema(), edges)
		addAggregateEdges(n.Aggregates, n.Input.Schema(), edges)
	case *relir.Sort:
		walk(n.Input, edges)

		schema := n.Input.Schema()
		for _, key := range n.Keys {
			addInspectEdges(key.Expr, schema, edges)
		}
	case *relir.Limit:
		walk(n.Input, edges)
	case *relir.SetOp:
		walk(n.Left, edges)
		walk(n.Right, edges)
		addSetOpEdges(n, edges)
	}
}

func addProjectionEdges(items []relir.ProjectItem, schema sqltype.RelationSchema, edges *[]LineageEdge) {
	for _, item := range items {
		if item.Star {
			continue
		}

		target := item.Alias
		if target == "" {
			target = exprDisplayName(item.Expr)
		}

		addExprEdge(target, item.Expr, schema, edges)
	}
}

func addExprEdge(target string, expr dialectparser.Expr, schema sqltype.RelationSchema, edges *[]LineageEdge) {
	if col, ok := expr.(*dialectparser.ColumnRef); ok {
		source, ok := schema.LookupQualified(col.Table, col.Name)
		if !ok {
			return
		}

		kind := KindRename
		if strings.EqualFold(target, source.Name) {
			kind = KindCopy
		}

		*edges = append(*edges, LineageEdge{TargetColumn: target, SourceTable: source.SourceTable, SourceColumn: source.Name, Kind: kind})

		return
	}

	for _, ref := range collectColumnRefs(expr) {
		source, ok := schema.LookupQualified(ref.Table, ref.Name)
		if !ok {
			continue
		}

		*edges = append(*edges, LineageEdge{TargetColumn: target, SourceTable: source.SourceTable, SourceColumn: source.Name, Kind: KindTransform})
	}
}

func addGroupByEdges(groupBy []dialectparser.Expr, schema sqltype.RelationSchema, edges *[]LineageEdge) {
	for _, g := range groupBy {
		addExprEdge(exprDisplayName(g), g, schema, edges)
	}
}

func addAggregateEdges(items []relir.ProjectItem, schema sqltype.RelationSchema, edges *[]LineageEdge) {
	for _, item := range items {
		target := item.Alias
		if target == "" {
			target = exprDisplayName(item.Expr)
		}

		for _, ref := range collectColumnRefs(item.Expr) {
			source, ok := schema.LookupQualified(ref.Table, ref.Name)
			if !ok {
				continue
			}

			*edges = append(*edges, LineageEdge{TargetColumn: target, SourceTable: source.SourceTable, SourceColumn: source.Name, Kind: KindTransform})
		}
	}
}

func addInspectEdges(expr dialectparser.Expr, schema sqltype.RelationSchema, edges *[]LineageEdge) {
	for _, ref := range collectColumnRefs(expr) {
		source, ok := schema.LookupQualified(ref.Table, ref.Name)
		if !ok {
			continue
		}

		*edges = append(*edges, LineageEdge{SourceTable: source.SourceTable, SourceColumn: source.Name, Kind: KindInspect})
	}
}

func addSetOpEdges(n *relir.SetOp, edges *[]LineageEdge) {
	left := n.Left.Schema()
	right := n.Right.Schema()

	for i, col := range left.Columns {
		*edges = append(*edges, LineageEdge{TargetColumn: col.Name, SourceTable: col.SourceTable, SourceColumn: col.Name, Kind: KindCopy})

		if i < len(right.Columns) {
			rc := right.Columns[i]
			*edges = append(*edges, LineageEdge{TargetColumn: col.Name, SourceTable: rc.SourceTable, SourceColumn: rc.Name, Kind: KindCopy})
		}
	}
}

func exprDisplayName(expr dialectparser.Expr) string {
	switch e := expr.(type) {
	case *dialectparser.ColumnRef:
		return e.Name
	case *dialectparser.FuncCall:
		return e.Name
	default:
		return ""
	}
}

func collectColumnRefs(expr dialectparser.Expr) []*dialectparser.ColumnRef {
	var refs []*dialectparser.ColumnRef

	var walkExpr func(dialectparser.Expr)

	walkExpr = func(e dialectparser.Expr) {
		if e == nil {
			return
		}

		switch v := e.(type) {
		case *dialectparser.ColumnRef:
			refs = append(refs, v)
		case *dialectparser.BinaryExpr:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *dialectparser.UnaryExpr:
			walkExpr(v.Operand)
		case *dialectparser.FuncCall:
			for _, a := range v.Args {
				walkExpr(a)
			}

			if v.Over != nil {
				for _, p := range v.Over.PartitionBy {
					walkExpr(p)
				}

				for _, o := range v.Over.OrderBy {
					walkExpr(o.Expr)
				}
			}
		case *dialectparser.BetweenExpr:
			walkExpr(v.Expr)
			walkExpr(v.Low)
			walkExpr(v.High)
		case *dialectparser.InExpr:
			walkExpr(v.Expr)

			for _, item := range v.List {
				walkExpr(item)
			}
		case *dialectparser.CaseExpr:
			walkExpr(v.Operand)

			for _, w := range v.Whens {
				walkExpr(w.Condition)
				walkExpr(w.Result)
			}

			walkExpr(v.Else)
		case *dialectparser.CastExpr:
			walkExpr(v.Expr)
		}
	}

	walkExpr(expr)

	return refs
}

func dedup(edges []LineageEdge) []LineageEdge {
	seen := make(map[LineageEdge]bool, len(edges))

	out := make([]LineageEdge, 0, len(edges))

	for _, e := range edges {
		if seen[e] {
			continue
		}

		seen[e] = true

		out = append(out, e)
	}

	return out
}
