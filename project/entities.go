package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// Function is one discovered user-defined SQL function: its signature
// file plus the sibling schema declaring its argument and return types.
type Function struct {
	Name          string
	Path          string
	SchemaPath    string
	RawSQL        string
	Dialect       string
	Args          []FunctionArg
	ReturnColumns []featherflowColumn
}

// FunctionArg is one positional argument of a Function.
type FunctionArg struct {
	Type string `yaml:"type"`
}

// featherflowColumn is the name-and-type column shape of a function
// sidecar's return_columns list.
type featherflowColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// FunctionYAML is the sibling .yml schema format for a function.
type FunctionYAML struct {
	Dialect       string              `yaml:"dialect"`
	Args          []FunctionArg       `yaml:"args"`
	ReturnColumns []featherflowColumn `yaml:"return_columns"`
}

// Test is one discovered singular test: a standalone SQL query that
// should return zero rows when the project is healthy.
type Test struct {
	Name   string
	Path   string
	RawSQL string
}

// DiscoverFunctions walks cfg's function_paths directories for .sql
// function definitions with optional sibling .yml signatures.
func DiscoverFunctions(rootPath string, functionPaths []string) ([]Function, error) {
	var functions []Function

	for _, dir := range functionPaths {
		paths, err := walkFilesWithExt(filepath.Join(rootPath, dir), ".sql")
		if err != nil {
			return nil, err
		}

		for _, path := range paths {
			rawSQL, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read function %s: %w", path, err)
			}

			fn := Function{
				Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Path:   path,
				RawSQL: string(rawSQL),
			}

			yamlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".yml"

			data, err := os.ReadFile(yamlPath)
			if err == nil {
				var meta FunctionYAML
				if err := yaml.Unmarshal(data, &meta); err != nil {
					return nil, fmt.Errorf("failed to parse function schema %s: %w", yamlPath, err)
				}

				fn.SchemaPath = yamlPath
				fn.Dialect = meta.Dialect
				fn.Args = meta.Args
				fn.ReturnColumns = meta.ReturnColumns
			} else if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read function schema %s: %w", yamlPath, err)
			}

			functions = append(functions, fn)
		}
	}

	sort.Slice(functions, func(i, j int) bool { return functions[i].Name < functions[j].Name })

	return functions, nil
}

// DiscoverTests walks cfg's test_paths directories for standalone .sql
// singular tests. Schema-level generic tests (unique, not_null,
// relationships, accepted_values) are declared inline in a model's
// sibling .yml rather than discovered as standalone files.
func DiscoverTests(rootPath string, testPaths []string) ([]Test, error) {
	var tests []Test

	for _, dir := range testPaths {
		paths, err := walkFilesWithExt(filepath.Join(rootPath, dir), ".sql")
		if err != nil {
			return nil, err
		}

		for _, path := range paths {
			rawSQL, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read test %s: %w", path, err)
			}

			tests = append(tests, Test{
				Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Path:   path,
				RawSQL: string(rawSQL),
			})
		}
	}

	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })

	return tests, nil
}

// exposureFile is the shape of a standalone exposure declaration file:
// a top-level `exposures:` list, one or more per file, following the
// same sidecar-yaml convention as models and sources.
type exposureFile struct {
	Exposures []Exposure `yaml:"exposures"`
}

// DiscoverExposures walks modelPaths for any .yml file containing a
// top-level exposures list (as opposed to a single model's sidecar
// schema, which has no such key and is ignored here).
func DiscoverExposures(rootPath string, modelPaths []string) ([]Exposure, error) {
	var exposures []Exposure

	for _, dir := range modelPaths {
		paths, err := walkFilesWithExt(filepath.Join(rootPath, dir), ".yml")
		if err != nil {
			return nil, err
		}

		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}

			var file exposureFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}

			exposures = append(exposures, file.Exposures...)
		}
	}

	sort.Slice(exposures, func(i, j int) bool { return exposures[i].Name < exposures[j].Name })

	return exposures, nil
}
