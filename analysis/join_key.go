package analysis

import (
	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/relir"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// JoinKeyPass walks a model's plan for join nodes and flags risky join
// conditions: incompatible equi-join key types (A030), cartesian-risk
// joins with no condition at all (A032), and join filters whose
// top-level operator isn't an equality (A033).
type JoinKeyPass struct{}

func (JoinKeyPass) Name() string { return "join_key" }

func (p JoinKeyPass) RunOnModel(modelName string, plan relir.RelOp, ctx *AnalysisContext) []Diagnostic {
	var diags []Diagnostic

	var walk func(op relir.RelOp)

	walk = func(op relir.RelOp) {
		switch n := op.(type) {
		case *relir.Join:
			walk(n.Left)
			walk(n.Right)

			diags = append(diags, checkJoin(n)...)
		case *relir.Project:
			walk(n.Input)
		case *relir.Filter:
			walk(n.Input)
		case *relir.Aggregate:
			walk(n.Input)
		case *relir.Sort:
			walk(n.Input)
		case *relir.Limit:
			walk(n.Input)
		case *relir.SetOp:
			walk(n.Left)
			walk(n.Right)
		}
	}

	walk(plan)

	return diags
}

func checkJoin(n *relir.Join) []Diagnostic {
	var diags []Diagnostic

	if n.Condition == nil {
		diags = append(diags, Diagnostic{
			Code: "A032", Severity: featherflow.SeverityInfo,
			Message: "join has no ON condition and no USING columns; this is a cartesian product",
		})

		return diags
	}

	leftSchema := n.Left.Schema()
	rightSchema := n.Right.Schema()

	checkConjunct(n.Condition, leftSchema, rightSchema, &diags, true)

	return diags
}

// checkConjunct walks an AND-chain of top-level predicates, checking
// each equality conjunct's operand types for compatibility and flagging
// any non-equi top-level comparison.
func checkConjunct(expr dialectparser.Expr, left, right sqltype.RelationSchema, diags *[]Diagnostic, topLevel bool) {
	bin, ok := expr.(*dialectparser.BinaryExpr)
	if !ok {
		return
	}

	if bin.Op == "AND" {
		checkConjunct(bin.Left, left, right, diags, topLevel)
		checkConjunct(bin.Right, left, right, diags, topLevel)

		return
	}

	if bin.Op != "=" {
		if topLevel && isComparisonOp(bin.Op) {
			*diags = append(*diags, Diagnostic{
				Code: "A033", Severity: featherflow.SeverityInfo,
				Message: "join condition uses non-equi operator " + bin.Op + "; this may produce a non-trivial row multiplication",
			})
		}

		return
	}

	leftType, _, leftOK := resolveSide(bin.Left, left, right)
	rightType, _, rightOK := resolveSide(bin.Right, left, right)

	if leftOK && rightOK && !leftType.IsCompatibleWith(rightType) {
		*diags = append(*diags, Diagnostic{
			Code: "A030", Severity: featherflow.SeverityWarning,
			Message: "join key type mismatch: " + leftType.String() + " compared against " + rightType.String(),
		})
	}
}

func isComparisonOp(op string) bool {
	switch op {
	case "<", "<=", ">", ">=", "<>", "!=":
		return true
	default:
		return false
	}
}

func resolveSide(expr dialectparser.Expr, left, right sqltype.RelationSchema) (sqltype.SqlType, sqltype.Nullability, bool) {
	ref, ok := expr.(*dialectparser.ColumnRef)
	if !ok {
		t, n := relir.InferExprType(expr, left)
		return t, n, true
	}

	if col, ok := left.LookupQualified(ref.Table, ref.Name); ok {
		return col.Type, col.Nullability, true
	}

	if col, ok := right.LookupQualified(ref.Table, ref.Name); ok {
		return col.Type, col.Nullability, true
	}

	return sqltype.SqlType{}, sqltype.UnknownNullability, false
}
