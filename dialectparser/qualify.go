package dialectparser

import "strings"

// QualifiedName is the (database?, schema?, table) resolution target for
// a bare table name.
type QualifiedName struct {
	Database string
	Schema   string
	Table    string
}

// QualifyTableReferences rewrites sql's single-part table references to
// their two- or three-part qualified form, using mapping to resolve bare
// names (case-insensitively). Three parts are emitted only when a
// database qualifier is present in the mapping. Multi-part references in
// the source are left unchanged. The statement trees are rewritten in
// place and the same slice is returned.
func QualifyTableReferences(statements []Statement, mapping map[string]QualifiedName) []Statement {
	lowerMap := make(map[string]QualifiedName, len(mapping))
	for k, v := range mapping {
		lowerMap[strings.ToLower(k)] = v
	}

	for _, stmt := range statements {
		if s, ok := stmt.(*SelectStatement); ok {
			qualifySelectStatement(s, lowerMap)
		}
	}

	return statements
}

func qualifySelectStatement(stmt *SelectStatement, mapping map[string]QualifiedName) {
	cteNames := cteNameSet(stmt)

	for _, cte := range stmt.CTEs {
		qualifySelectStatement(cte.Stmt, mapping)
	}

	qualifySelectBody(stmt.Body, mapping, cteNames)
}

func qualifySelectBody(body SelectBody, mapping map[string]QualifiedName, cteNames map[string]bool) {
	switch b := body.(type) {
	case *SimpleSelect:
		for i, from := range b.From {
			b.From[i] = qualifyTableRef(from, mapping, cteNames)
		}
	case *SetOpSelect:
		qualifySelectBody(b.Left, mapping, cteNames)
		qualifySelectBody(b.Right, mapping, cteNames)
	}
}

func qualifyTableRef(ref TableRef, mapping map[string]QualifiedName, cteNames map[string]bool) TableRef {
	switch r := ref.(type) {
	case *TableName:
		if len(r.Parts) != 1 {
			return r
		}

		if cteNames[strings.ToLower(r.Parts[0])] {
			return r
		}

		q, ok := mapping[strings.ToLower(r.Parts[0])]
		if !ok {
			return r
		}

		parts := []string{q.Table}
		if q.Schema != "" {
			parts = append([]string{q.Schema}, parts...)
		}

		if q.Database != "" && q.Schema != "" {
			parts = append([]string{q.Database}, parts...)
		}

		return &TableName{Parts: parts, Alias: r.Alias}
	case *Join:
		r.Left = qualifyTableRef(r.Left, mapping, cteNames)
		r.Right = qualifyTableRef(r.Right, mapping, cteNames)

		return r
	case *SubqueryTable:
		qualifySelectStatement(r.Stmt, mapping)
		return r
	default:
		return ref
	}
}
