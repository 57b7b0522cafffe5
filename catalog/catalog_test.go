package catalog

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

func ordersSchema() sqltype.RelationSchema {
	return sqltype.NewRelationSchema(
		sqltype.TypedColumn{Name: "id", Type: sqltype.Integer(sqltype.Width32), Nullability: sqltype.NotNull},
		sqltype.TypedColumn{Name: "amount", Type: sqltype.Decimal(10, 2), Nullability: sqltype.NotNull},
	)
}

func TestCatalogPlanSimple(t *testing.T) {
	c := New(featherflow.DialectDuckDB)
	c.Register("orders", ordersSchema())

	op, err := c.Plan("stg_orders", "SELECT id, amount FROM orders")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(op.Schema().Columns))
}

func TestCatalogPlanUnknownTable(t *testing.T) {
	c := New(featherflow.DialectDuckDB)

	_, err := c.Plan("stg_orders", "SELECT 1 FROM ghost")
	assert.Error(t, err)

	var unknown *UnknownTable
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "stg_orders", unknown.Model)
	assert.Equal(t, "ghost", unknown.Table)
}

func TestCatalogPlanParseFailure(t *testing.T) {
	c := New(featherflow.DialectDuckDB)

	_, err := c.Plan("broken", "SELECT FROM FROM FROM (")
	assert.Error(t, err)

	var planErr *PlanningError
	assert.True(t, errors.As(err, &planErr))
}

func TestCatalogTablesArrowConversion(t *testing.T) {
	c := New(featherflow.DialectDuckDB)
	c.Register("orders", ordersSchema())

	tables := c.Tables()
	assert.Equal(t, 1, len(tables))
	assert.Equal(t, "orders", tables[0].Name)
	assert.Equal(t, "Decimal128", tables[0].Columns[1].Type.Name)
}

func TestCatalogFunctionsAdvertisesDialectTable(t *testing.T) {
	c := New(featherflow.DialectDuckDB)

	funcs := c.Functions()
	_, ok := funcs["LIST_VALUE"]
	assert.True(t, ok)
}

func TestCatalogNamesSorted(t *testing.T) {
	c := New(featherflow.DialectDuckDB)
	c.Register("zebras", ordersSchema())
	c.Register("apples", ordersSchema())

	assert.Equal(t, []string{"apples", "zebras"}, c.Names())
}
