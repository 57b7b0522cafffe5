package lineage

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/relir"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

func lowerSQL(t *testing.T, sql string, catalog relir.Catalog) relir.RelOp {
	t.Helper()

	stmts, err := dialectparser.Parse(sql)
	assert.NoError(t, err)

	op, err := relir.Lower(stmts[0], catalog)
	assert.NoError(t, err)

	return op
}

func intCol(name string) sqltype.TypedColumn {
	return sqltype.TypedColumn{Name: name, Type: sqltype.Integer(sqltype.Width32), Nullability: sqltype.NotNull}
}

func baseCatalog() relir.Catalog {
	return relir.Catalog{
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

func TestExtractCopyAndRename(t *testing.T) {
	op := lowerSQL(t, "SELECT id, id AS order_id FROM orders", baseCatalog())

	edges := Extract(op)

	var copyEdge, renameEdge *LineageEdge

	for i := range edges {
		if edges[i].TargetColumn == "id" {
			copyEdge = &edges[i]
		}

		if edges[i].TargetColumn == "order_id" {
			renameEdge = &edges[i]
		}
	}

	assert.NotZero(t, copyEdge)
	assert.Equal(t, KindCopy, copyEdge.Kind)

	assert.NotZero(t, renameEdge)
	assert.Equal(t, KindRename, renameEdge.Kind)
	assert.Equal(t, "id", renameEdge.SourceColumn)
}

func TestExtractTransform(t *testing.T) {
	op := lowerSQL(t, "SELECT amount * 2 AS doubled FROM orders", baseCatalog())

	edges := Extract(op)
	assert.Equal(t, 1, len(edges))
	assert.Equal(t, "doubled", edges[0].TargetColumn)
	assert.Equal(t, "amount", edges[0].SourceColumn)
	assert.Equal(t, KindTransform, edges[0].Kind)
}

func TestExtractFilterInspect(t *testing.T) {
	op := lowerSQL(t, "SELECT id FROM orders WHERE amount > 100", baseCatalog())

	edges := Extract(op)

	var inspect *LineageEdge

	for i := range edges {
		if edges[i].Kind == KindInspect {
			inspect = &edges[i]
		}
	}

	assert.NotZero(t, inspect)
	assert.Equal(t, "amount", inspect.SourceColumn)
	assert.Equal(t, "", inspect.TargetColumn)
}

func TestExtractJoinInspect(t *testing.T) {
	op := lowerSQL(t, "SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id", baseCatalog())

	edges := Extract(op)

	count := 0

	for _, e := range edges {
		if e.Kind == KindInspect {
			count++
		}
	}

	assert.True(t, count >= 2)
}

func TestExtractAggregate(t *testing.T) {
	op := lowerSQL(t, "SELECT customer_id, sum(amount) AS total FROM orders GROUP BY customer_id", baseCatalog())

	edges := Extract(op)

	var groupEdge, aggEdge *LineageEdge

	for i := range edges {
		if edges[i].TargetColumn == "customer_id" {
			groupEdge = &edges[i]
		}

		if edges[i].TargetColumn == "total" {
			aggEdge = &edges[i]
		}
	}

	assert.NotZero(t, groupEdge)
	assert.Equal(t, KindCopy, groupEdge.Kind)

	assert.NotZero(t, aggEdge)
	assert.Equal(t, KindTransform, aggEdge.Kind)
	assert.Equal(t, "amount", aggEdge.SourceColumn)
}

func TestExtractSetOpCopiesBothSides(t *testing.T) {
	op := lowerSQL(t, "SELECT id FROM orders UNION ALL SELECT id FROM customers", baseCatalog())

	edges := Extract(op)
	assert.Equal(t, 2, len(edges))

	for _, e := range edges {
		assert.Equal(t, KindCopy, e.Kind)
		assert.Equal(t, "id", e.TargetColumn)
	}
}

func TestExtractDedup(t *testing.T) {
	op := lowerSQL(t, "SELECT id FROM orders WHERE id > 1 AND id < 100", baseCatalog())

	edges := Extract(op)

	inspectCount := 0

	for _, e := range edges {
		if e.Kind == KindInspect {
			inspectCount++
		}
	}

	assert.Equal(t, 1, inspectCount)
}

func TestIsDirect(t *testing.T) {
	assert.True(t, LineageEdge{Kind: KindCopy}.IsDirect())
	assert.True(t, LineageEdge{Kind: KindRename}.IsDirect())
	assert.False(t, LineageEdge{Kind: KindTransform}.IsDirect())
	assert.False(t, LineageEdge{Kind: KindInspect}.IsDirect())
}
