// Package catalog is the schema catalog and planner (§4.4). The real
// system delegates SQL→plan conversion to an embedded SQL engine and
// advertises a FeatherFlowProvider to it; no embedded-engine Go library
// was available to wire here (see DESIGN.md), so Catalog plays both
// roles itself: it advertises relation and function metadata via
// FeatherFlowProvider, and Plan re-parses the SQL text — the canonical
// contract between the two sides — through dialectparser and lowers it
// with relir, which stand in for the embedded engine's own parser and
// planner.
package catalog

import (
	"errors"
	"sort"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/relir"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// Catalog holds the set of relation schemas known to the planner for one
// dialect.
type Catalog struct {
	Dialect   featherflow.Dialect
	relations map[string]sqltype.RelationSchema
}

// New returns an empty Catalog for dialect.
func New(dialect featherflow.Dialect) *Catalog {
	return &Catalog{Dialect: dialect, relations: make(map[string]sqltype.RelationSchema)}
}

// Register adds (or replaces) the schema for name, matched
// case-insensitively by Lookup and Plan.
func (c *Catalog) Register(name string, schema sqltype.RelationSchema) {
	c.relations[strings.ToLower(name)] = schema
}

// Lookup returns the registered schema for name, if any.
func (c *Catalog) Lookup(name string) (sqltype.RelationSchema, bool) {
	schema, ok := c.relations[strings.ToLower(name)]
	return schema, ok
}

// Names returns every registered relation name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.relations))
	for name := range c.relations {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Plan re-parses sql and lowers its first statement against the
// registered relations. modelName is used only to attribute UnknownTable
// errors to the model under compilation.
func (c *Catalog) Plan(modelName, sql string) (relir.RelOp, error) {
	stmts, err := dialectparser.Parse(sql)
	if err != nil {
		return nil, &PlanningError{Message: err.Error()}
	}

	if len(stmts) == 0 {
		return nil, &PlanningError{Message: "empty statement list"}
	}

	op, err := relir.Lower(stmts[0], relir.Catalog(c.relations))
	if err != nil {
		var unknown *relir.UnknownTable
		if errors.As(err, &unknown) {
			return nil, &UnknownTable{Model: modelName, Table: unknown.Table}
		}

		return nil, &PlanningError{Message: err.Error()}
	}

	return op, nil
}
