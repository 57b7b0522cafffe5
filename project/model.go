// Package project discovers a project's models, sources, seeds, tests,
// and functions from disk (§6 External Interfaces), resolves model name
// and version references, and manages the compiled-SQL query comment.
package project

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidModelName is returned when a candidate model name contains a
// path separator or is empty.
var ErrInvalidModelName = errors.New("invalid model name")

// ModelName is a validated model identifier: non-empty, with no path
// separators.
type ModelName string

// NewModelName validates and returns s as a ModelName.
func NewModelName(s string) (ModelName, error) {
	if s == "" || strings.ContainsAny(s, "/\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidModelName, s)
	}

	return ModelName(s), nil
}

// TableName is a validated physical table/view identifier, as it will
// be materialized in the target database.
type TableName string

// NewTableName validates and returns s as a TableName.
func NewTableName(s string) (TableName, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty table name", ErrInvalidModelName)
	}

	return TableName(s), nil
}

// Kind discriminates what a discovered file represents.
type Kind string

const (
	KindSQL    Kind = "sql"
	KindSeed   Kind = "seed"
	KindSource Kind = "source"
	KindFunc   Kind = "function"
)

// Model is one discovered model: its SQL file, optional sibling schema
// YAML, and the metadata resolved from both.
type Model struct {
	Name            ModelName
	Path            string // path to the .sql file, relative to project root
	SchemaPath      string // path to the sibling .yml file, empty if none
	RawSQL          string
	Kind            Kind
	BaseName        string // name with any trailing _vN version suffix stripped
	Version         string // empty if unversioned
	Tags            []string
	Owner           string
	Materialization string
}

// splitVersion splits a trailing _v<digits> version suffix off a model
// name, e.g. "orders_v2" -> ("orders", "2").
func splitVersion(name string) (base, version string) {
	idx := strings.LastIndex(name, "_v")
	if idx < 0 || idx == len(name)-2 {
		return name, ""
	}

	suffix := name[idx+2:]
	if _, err := strconv.Atoi(suffix); err != nil {
		return name, ""
	}

	return name[:idx], suffix
}

// ResolveRef resolves a `ref(name[, version])` call against the known
// models: an exact name match with the requested version if one is
// given, otherwise the highest version found among models sharing that
// base name, falling back to a literal name match for unversioned
// models.
func ResolveRef(models []Model, name, version string) (*Model, error) {
	base, impliedVersion := splitVersion(name)
	if version == "" {
		version = impliedVersion
	} else {
		base = name
	}

	var (
		best     *Model
		bestVerN = -1
		literal  *Model
	)

	for i := range models {
		m := &models[i]

		if string(m.Name) == name {
			literal = m
		}

		if m.BaseName != base {
			continue
		}

		if version != "" {
			if m.Version == version {
				return m, nil
			}

			continue
		}

		n, err := strconv.Atoi(m.Version)
		if m.Version != "" && err == nil && n > bestVerN {
			bestVerN = n
			best = m
		} else if m.Version == "" && best == nil {
			best = m
		}
	}

	if version != "" {
		return nil, fmt.Errorf("%w: no version %q of model %q", ErrUnknownModel, version, base)
	}

	if best != nil {
		return best, nil
	}

	if literal != nil {
		return literal, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// ErrUnknownModel is returned by ResolveRef when no model matches.
var ErrUnknownModel = errors.New("unknown model")
