// Package orchestrator wires project discovery, the dag, the catalog
// and planner, lineage extraction, the analysis passes, incremental
// state, and the meta database into the end-to-end compile/run
// pipeline (§4.12, §5).
package orchestrator

import "regexp"

// refCallPattern matches a ref("name") or ref("name", "version") call
// in a model's raw, unrendered SQL. Matching the raw text rather than
// waiting for template rendering lets the DAG be built before any
// template engine runs, so a cycle is caught before a single model is
// compiled. Enclosing {{ }} braces, when present, are part of the
// match, so rendering replaces the whole template expression.
var refCallPattern = regexp.MustCompile(`(?:\{\{\s*)?ref\(\s*["']([^"']+)["']\s*(?:,\s*["']([^"']+)["']\s*)?\)(?:\s*\}\})?`)

// sourceCallPattern matches a source("source_name", "table_name") call,
// including enclosing {{ }} braces when present.
var sourceCallPattern = regexp.MustCompile(`(?:\{\{\s*)?source\(\s*["']([^"']+)["']\s*,\s*["']([^"']+)["']\s*\)(?:\s*\}\})?`)

// RefCall is one ref() call found in a model's raw SQL.
type RefCall struct {
	Name    string
	Version string
}

// SourceCall is one source() call found in a model's raw SQL.
type SourceCall struct {
	Source string
	Table  string
}

// ExtractRefCalls finds every ref() call in rawSQL, in the order they
// appear, including duplicates (the caller dedupes when building a
// dependency edge set).
func ExtractRefCalls(rawSQL string) []RefCall {
	matches := refCallPattern.FindAllStringSubmatch(rawSQL, -1)

	calls := make([]RefCall, 0, len(matches))
	for _, m := range matches {
		calls = append(calls, RefCall{Name: m[1], Version: m[2]})
	}

	return calls
}

// ExtractSourceCalls finds every source() call in rawSQL.
func ExtractSourceCalls(rawSQL string) []SourceCall {
	matches := sourceCallPattern.FindAllStringSubmatch(rawSQL, -1)

	calls := make([]SourceCall, 0, len(matches))
	for _, m := range matches {
		calls = append(calls, SourceCall{Source: m[1], Table: m[2]})
	}

	return calls
}
