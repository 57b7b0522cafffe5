package featherflow

import "errors"

// Common errors shared across the featherflow packages. Package-specific
// sentinels live in their own package (dialectparser, catalog, dag, ...);
// this file holds only the ones that cross package boundaries at the
// orchestrator/project level.
var (
	// ErrConfigFileNotFound indicates featherflow.yml could not be located.
	ErrConfigFileNotFound = errors.New("configuration file not found")
	// ErrEmptySql is returned when a model's rendered SQL is empty or blank.
	ErrEmptySql = errors.New("empty sql")
	// ErrPathOutsideProjectRoot indicates a configured path escapes the project root.
	ErrPathOutsideProjectRoot = errors.New("path is outside the project root")
	// ErrDialectMustBeSpecified indicates a dialect is required but missing.
	ErrDialectMustBeSpecified = errors.New("dialect must be specified (duckdb, snowflake)")
	// ErrUnknownDialect indicates an unrecognized dialect name was configured.
	ErrUnknownDialect = errors.New("unknown dialect")
	// ErrConfigValidation is returned when featherflow.yml fails validation.
	ErrConfigValidation = errors.New("configuration validation failed")
)
