package featherflow

// Dialect identifies a supported SQL dialect. The dialect governs identifier
// case folding, quoting, and which dialect-specific syntax the parser and
// planner accept. This type is shared across all packages.
type Dialect string

const (
	DialectDuckDB    Dialect = "duckdb"
	DialectSnowflake Dialect = "snowflake"
)

// UnquotedCaseBehavior describes how a dialect folds an unquoted identifier.
type UnquotedCaseBehavior int

const (
	// PreserveCase leaves unquoted identifiers as written (DuckDB-style).
	PreserveCase UnquotedCaseBehavior = iota
	// UpperFold upper-cases unquoted identifiers (Snowflake-style).
	UpperFold
)

// UnquotedCaseBehavior reports how the dialect treats an unquoted identifier.
func (d Dialect) UnquotedCaseBehavior() UnquotedCaseBehavior {
	if d == DialectSnowflake {
		return UpperFold
	}

	return PreserveCase
}

// QuoteChar returns the identifier-quoting character for the dialect.
func (d Dialect) QuoteChar() byte {
	return '"'
}

// Feature represents a dialect-specific capability flag consulted by the
// planner and the analysis passes.
type Feature int

const (
	FeatureConcatOperator   Feature = iota + 1 // ||
	FeatureConcatFunction                      // CONCAT()
	FeatureQualifyThreePart                    // database.schema.table qualification
)

// Supports reports whether the dialect exposes the given feature, consulting
// the Capabilities table.
func (d Dialect) Supports(f Feature) bool {
	return Capabilities[d][f]
}

// Valid reports whether d is a recognized dialect name.
func (d Dialect) Valid() bool {
	switch d {
	case DialectDuckDB, DialectSnowflake:
		return true
	default:
		return false
	}
}
