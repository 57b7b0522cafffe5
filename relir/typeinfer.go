package relir

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// InferExprType infers the SqlType and Nullability of expr against
// schema, using dialect's function-signature table for calls. Unresolved
// references infer to Unknown/UnknownNullability rather than failing:
// type inference is best-effort and feeds the analysis passes, not a
// hard gate on lowering.
func InferExprType(expr dialectparser.Expr, schema sqltype.RelationSchema) (sqltype.SqlType, sqltype.Nullability) {
	return inferExprType(expr, schema, featherflow.DialectDuckDB)
}

// InferExprTypeForDialect is InferExprType parameterized by dialect, used
// when the function-signature table differs across dialects.
func InferExprTypeForDialect(expr dialectparser.Expr, schema sqltype.RelationSchema, dialect featherflow.Dialect) (sqltype.SqlType, sqltype.Nullability) {
	return inferExprType(expr, schema, dialect)
}

func inferExprType(expr dialectparser.Expr, schema sqltype.RelationSchema, dialect featherflow.Dialect) (sqltype.SqlType, sqltype.Nullability) {
	if expr == nil {
		return sqltype.Unknown(""), sqltype.UnknownNullability
	}

	switch e := expr.(type) {
	case *dialectparser.ColumnRef:
		col, ok := schema.LookupQualified(e.Table, e.Name)
		if !ok {
			return sqltype.Unknown(e.Name), sqltype.UnknownNullability
		}

		return col.Type, col.Nullability
	case *dialectparser.Literal:
		return inferLiteralType(e)
	case *dialectparser.BinaryExpr:
		return inferBinaryType(e, schema, dialect)
	case *dialectparser.UnaryExpr:
		return inferUnaryType(e, schema, dialect)
	case *dialectparser.FuncCall:
		return inferFuncCallType(e, schema, dialect)
	case *dialectparser.CastExpr:
		return sqltype.ParseTypeString(e.TypeName), sqltype.NotNull
	case *dialectparser.CaseExpr:
		return inferCaseType(e, schema, dialect)
	case *dialectparser.BetweenExpr, *dialectparser.ExistsExpr, *dialectparser.InExpr:
		return sqltype.Boolean(), sqltype.NotNull
	case *dialectparser.SubqueryExpr:
		return sqltype.Unknown("subquery"), sqltype.UnknownNullability
	default:
		return sqltype.Unknown(""), sqltype.UnknownNullability
	}
}

func inferLiteralType(lit *dialectparser.Literal) (sqltype.SqlType, sqltype.Nullability) {
	switch lit.Kind {
	case dialectparser.LiteralString:
		return sqltype.String(nil), sqltype.NotNull
	case dialectparser.LiteralNumber:
		if strings.ContainsAny(lit.Value, ".eE") {
			return sqltype.Float(sqltype.FloatWidth64), sqltype.NotNull
		}

		return sqltype.Integer(sqltype.Width64), sqltype.NotNull
	case dialectparser.LiteralBool:
		return sqltype.Boolean(), sqltype.NotNull
	default:
		return sqltype.Unknown("null"), sqltype.Nullable
	}
}

func inferBinaryType(e *dialectparser.BinaryExpr, schema sqltype.RelationSchema, dialect featherflow.Dialect) (sqltype.SqlType, sqltype.Nullability) {
	leftType, leftNull := inferExprType(e.Left, schema, dialect)
	rightType, rightNull := inferExprType(e.Right, schema, dialect)
	nullability := sqltype.Combine(leftNull, rightNull)

	switch strings.ToUpper(e.Op) {
	case "AND", "OR", "=", "<>", "<", ">", "<=", ">=", "LIKE":
		return sqltype.Boolean(), nullability
	case "||":
		return sqltype.String(nil), nullability
	case "+", "-", "*", "/":
		return widenArithmetic(leftType, rightType), nullability
	default:
		return sqltype.Unknown(e.Op), nullability
	}
}

func widenArithmetic(left, right sqltype.SqlType) sqltype.SqlType {
	if left.Kind == sqltype.KindFloat || right.Kind == sqltype.KindFloat {
		width := sqltype.FloatWidth64
		return sqltype.Float(width)
	}

	if left.Kind == sqltype.KindHugeInt || right.Kind == sqltype.KindHugeInt {
		return sqltype.HugeInt()
	}

	if left.Kind == sqltype.KindDecimal || right.Kind == sqltype.KindDecimal {
		return left
	}

	if left.Kind == sqltype.KindInteger && right.Kind == sqltype.KindInteger {
		if left.IntWidth >= right.IntWidth {
			return left
		}

		return right
	}

	return left
}

func inferUnaryType(e *dialectparser.UnaryExpr, schema sqltype.RelationSchema, dialect featherflow.Dialect) (sqltype.SqlType, sqltype.Nullability) {
	switch strings.ToUpper(e.Op) {
	case "IS NULL", "IS NOT NULL", "NOT":
		return sqltype.Boolean(), sqltype.NotNull
	default:
		return inferExprType(e.Operand, schema, dialect)
	}
}

func inferFuncCallType(e *dialectparser.FuncCall, schema sqltype.RelationSchema, dialect featherflow.Dialect) (sqltype.SqlType, sqltype.Nullability) {
	sig, ok := featherflow.FunctionSignatures[dialect][strings.ToUpper(e.Name)]
	if !ok {
		return sqltype.Unknown(e.Name), sqltype.UnknownNullability
	}

	var (
		argType sqltype.SqlType
		haveArg bool
	)

	argNullability := sqltype.NotNull

	for _, arg := range e.Args {
		t, n := inferExprType(arg, schema, dialect)
		if !haveArg {
			argType = t
			haveArg = true
		}

		argNullability = sqltype.Combine(argNullability, n)
	}

	nullability := sqltype.NotNull
	if sig.Nullable {
		nullability = sqltype.Nullable
	} else if sig.NullableByArg {
		nullability = argNullability
	}

	if sig.ReturnTypeByArg {
		return argType, nullability
	}

	return parseSignatureReturnType(sig.ReturnType), nullability
}

func parseSignatureReturnType(name string) sqltype.SqlType {
	switch name {
	case "int32":
		return sqltype.Integer(sqltype.Width32)
	case "int64":
		return sqltype.Integer(sqltype.Width64)
	case "float64":
		return sqltype.Float(sqltype.FloatWidth64)
	case "string":
		return sqltype.String(nil)
	case "date":
		return sqltype.Date()
	case "timestamp":
		return sqltype.Timestamp()
	case "array":
		return sqltype.Array(sqltype.Unknown(""))
	default:
		return sqltype.Unknown(name)
	}
}

func inferCaseType(e *dialectparser.CaseExpr, schema sqltype.RelationSchema, dialect featherflow.Dialect) (sqltype.SqlType, sqltype.Nullability) {
	var (
		result      sqltype.SqlType
		haveResult  bool
		nullability = sqltype.NotNull
	)

	for _, when := range e.Whens {
		t, n := inferExprType(when.Result, schema, dialect)
		nullability = sqltype.Combine(nullability, n)

		if !haveResult {
			result = t
			haveResult = true
		}
	}

	if e.Else != nil {
		t, n := inferExprType(e.Else, schema, dialect)
		nullability = sqltype.Combine(nullability, n)

		if !haveResult {
			result = t
			haveResult = true
		}
	} else {
		nullability = sqltype.Nullable
	}

	if !haveResult {
		return sqltype.Unknown(""), sqltype.UnknownNullability
	}

	return result, nullability
}
