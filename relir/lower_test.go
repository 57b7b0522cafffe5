package relir

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

func intCol(name string) sqltype.TypedColumn {
	return sqltype.TypedColumn{Name: name, Type: sqltype.Integer(sqltype.Width32), Nullability: sqltype.NotNull}
}

func baseCatalog() Catalog {
	return Catalog{
		"orders": sqltype.NewRelationSchema(
			intCol("id"),
			intCol("customer_id"),
			sqltype.TypedColumn{Name: "amount", Type: sqltype.Decimal(10, 2), Nullability: sqltype.NotNull},
		),
		"customers": sqltype.NewRelationSchema(
			intCol("id"),
			sqltype.TypedColumn{Name: "region", Type: sqltype.String(nil), Nullability: sqltype.Nullable},
		),
	}
}

func lowerSQL(t *testing.T, sql string, catalog Catalog) RelOp {
	t.Helper()

	stmts, err := dialectparser.Parse(sql)
	assert.NoError(t, err)

	op, err := Lower(stmts[0], catalog)
	assert.NoError(t, err)

	return op
}

func TestLowerSimpleProjection(t *testing.T) {
	op := lowerSQL(t, "SELECT id, amount FROM orders", baseCatalog())

	proj, ok := op.(*Project)
	assert.True(t, ok)

	schema := proj.Schema()
	assert.Equal(t, 2, len(schema.Columns))
	assert.Equal(t, "id", schema.Columns[0].Name)
}

func TestLowerUnknownTable(t *testing.T) {
	_, err := Lower(mustParseOne(t, "SELECT 1 FROM ghost"), baseCatalog())
	assert.Error(t, err)

	var unknown *UnknownTable
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "ghost", unknown.Table)
}

func mustParseOne(t *testing.T, sql string) dialectparser.Statement {
	t.Helper()

	stmts, err := dialectparser.Parse(sql)
	assert.NoError(t, err)

	return stmts[0]
}

func TestLowerRejectsNonSelect(t *testing.T) {
	_, err := Lower(mustParseOne(t, "INSERT INTO orders (id) VALUES (1)"), baseCatalog())
	assert.Error(t, err)
	assert.Equal(t, ErrUnsupportedStatement, err)
}

func TestLowerJoinUsingDesugars(t *testing.T) {
	op := lowerSQL(t, "SELECT o.id FROM orders o JOIN customers c USING (id)", baseCatalog())

	proj := op.(*Project)
	join, ok := proj.Input.(*Join)
	assert.True(t, ok)
	assert.NotZero(t, join.Condition)

	cond := join.Condition.(*dialectparser.BinaryExpr)
	assert.Equal(t, "=", cond.Op)

	left := cond.Left.(*dialectparser.ColumnRef)
	right := cond.Right.(*dialectparser.ColumnRef)
	assert.Equal(t, "o", left.Table)
	assert.Equal(t, "c", right.Table)
}

func TestLowerLeftJoinMarksRightNullable(t *testing.T) {
	op := lowerSQL(t, "SELECT o.id, c.region FROM orders o LEFT JOIN customers c ON o.customer_id = c.id", baseCatalog())

	proj := op.(*Project)
	join := proj.Input.(*Join)
	schema := join.Schema()

	region, ok := schema.LookupQualified("c", "region")
	assert.True(t, ok)
	assert.Equal(t, sqltype.Nullable, region.Nullability)

	id, ok := schema.LookupQualified("o", "id")
	assert.True(t, ok)
	assert.Equal(t, sqltype.NotNull, id.Nullability)
}

func TestLowerAggregate(t *testing.T) {
	op := lowerSQL(t, "SELECT customer_id, sum(amount) AS total FROM orders GROUP BY customer_id", baseCatalog())

	agg, ok := op.(*Aggregate)
	assert.True(t, ok)

	schema := agg.Schema()
	assert.Equal(t, 2, len(schema.Columns))
	assert.Equal(t, "total", schema.Columns[1].Name)
	assert.Equal(t, sqltype.KindDecimal, schema.Columns[1].Type.Kind)
}

func TestLowerSetOpUsesLeftSchema(t *testing.T) {
	op := lowerSQL(t, "SELECT id FROM orders UNION ALL SELECT id FROM orders", baseCatalog())

	setOp, ok := op.(*SetOp)
	assert.True(t, ok)
	assert.Equal(t, dialectparser.SetOpUnionAll, setOp.Kind)
	assert.Equal(t, 1, len(setOp.Schema().Columns))
}

func TestLowerCTE(t *testing.T) {
	op := lowerSQL(t, "WITH recent AS (SELECT id FROM orders) SELECT id FROM recent", baseCatalog())

	proj, ok := op.(*Project)
	assert.True(t, ok)

	schema := proj.Schema()
	assert.Equal(t, 1, len(schema.Columns))
}

func TestLowerOrderByLimit(t *testing.T) {
	op := lowerSQL(t, "SELECT id FROM orders ORDER BY id LIMIT 10", baseCatalog())

	limit, ok := op.(*Limit)
	assert.True(t, ok)

	_, ok = limit.Input.(*Sort)
	assert.True(t, ok)
}

func TestLowerStarExpansion(t *testing.T) {
	op := lowerSQL(t, "SELECT * FROM orders", baseCatalog())

	proj := op.(*Project)
	schema := proj.Schema()
	assert.Equal(t, 3, len(schema.Columns))
}

func TestInferExprTypeArithmeticWidening(t *testing.T) {
	catalog := baseCatalog()
	schema := catalog["orders"]

	expr := &dialectparser.BinaryExpr{
		Op:   "+",
		Left: &dialectparser.ColumnRef{Name: "amount"},
		Right: &dialectparser.Literal{Value: "1", Kind: dialectparser.LiteralNumber},
	}

	typ, _ := InferExprType(expr, schema)
	assert.Equal(t, sqltype.KindDecimal, typ.Kind)
}
