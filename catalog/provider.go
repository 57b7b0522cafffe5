package catalog

import (
	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// ArrowColumn is one column of an ArrowTableSchema.
type ArrowColumn struct {
	Name     string
	Type     sqltype.ArrowType
	Nullable bool
}

// ArrowTableSchema is a relation's Arrow-converted schema, as advertised
// to the embedded engine.
type ArrowTableSchema struct {
	Name    string
	Columns []ArrowColumn
}

// FeatherFlowProvider is what the catalog advertises to the embedded SQL
// engine: Arrow schemas for every known relation, and the function
// signature namespace for user-defined functions.
type FeatherFlowProvider interface {
	Tables() []ArrowTableSchema
	Functions() map[string]featherflow.FunctionSignature
}

// Tables returns every registered relation's Arrow-converted schema.
func (c *Catalog) Tables() []ArrowTableSchema {
	out := make([]ArrowTableSchema, 0, len(c.relations))

	for _, name := range c.Names() {
		schema := c.relations[name]

		cols := make([]ArrowColumn, len(schema.Columns))
		for i, col := range schema.Columns {
			cols[i] = ArrowColumn{
				Name:     col.Name,
				Type:     sqltype.SqlToArrow(col.Type),
				Nullable: col.Nullability != sqltype.NotNull,
			}
		}

		out = append(out, ArrowTableSchema{Name: name, Columns: cols})
	}

	return out
}

// Functions returns the user-function signature namespace for the
// catalog's dialect.
func (c *Catalog) Functions() map[string]featherflow.FunctionSignature {
	return featherflow.FunctionSignatures[c.Dialect]
}

var _ FeatherFlowProvider = (*Catalog)(nil)
