package sqltype

import "strings"

// LineageStep records one hop of provenance for a TypedColumn: the
// upstream (table-or-model, column) pair it was derived from.
type LineageStep struct {
	Source string
	Column string
}

// TypedColumn is a (name, type, nullability) triple, optionally tagged
// with the source table it came from and a provenance trail.
type TypedColumn struct {
	Name         string
	Type         SqlType
	Nullability  Nullability
	SourceTable  string
	Provenance   []LineageStep
}

// RelationSchema is an ordered list of typed columns produced by a plan
// node. Lookups are case-insensitive.
type RelationSchema struct {
	Columns []TypedColumn
}

// NewRelationSchema builds a RelationSchema from columns.
func NewRelationSchema(columns ...TypedColumn) RelationSchema {
	return RelationSchema{Columns: columns}
}

// Lookup finds a column by unqualified name, case-insensitively.
func (s RelationSchema) Lookup(name string) (TypedColumn, bool) {
	lower := strings.ToLower(name)

	for _, c := range s.Columns {
		if strings.ToLower(c.Name) == lower {
			return c, true
		}
	}

	return TypedColumn{}, false
}

// LookupQualified finds a column by (table, name): it prefers an exact
// match on SourceTable, and falls back to an unqualified Lookup when
// table is empty or no qualified match exists.
func (s RelationSchema) LookupQualified(table, name string) (TypedColumn, bool) {
	if table != "" {
		lowerTable := strings.ToLower(table)
		lowerName := strings.ToLower(name)

		for _, c := range s.Columns {
			if strings.ToLower(c.SourceTable) == lowerTable && strings.ToLower(c.Name) == lowerName {
				return c, true
			}
		}
	}

	return s.Lookup(name)
}

// Merge appends other's columns after this schema's columns.
func (s RelationSchema) Merge(other RelationSchema) RelationSchema {
	merged := make([]TypedColumn, 0, len(s.Columns)+len(other.Columns))
	merged = append(merged, s.Columns...)
	merged = append(merged, other.Columns...)

	return RelationSchema{Columns: merged}
}

// WithNullability returns a copy of the schema with every column's
// nullability combined with forced, as used when an outer join nulls out
// one side of the join.
func (s RelationSchema) WithNullability(forced Nullability) RelationSchema {
	out := make([]TypedColumn, len(s.Columns))

	for i, c := range s.Columns {
		c.Nullability = Combine(c.Nullability, forced)
		out[i] = c
	}

	return RelationSchema{Columns: out}
}
