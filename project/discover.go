package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// ModelYAML is the sibling .yml schema file format for a model, source,
// seed, or function.
type ModelYAML struct {
	Kind            string                     `yaml:"kind"`
	Columns         []featherflow.ColumnSchema `yaml:"columns"`
	Tags            []string                   `yaml:"tags"`
	Owner           string                     `yaml:"owner"`
	Materialization string                     `yaml:"materialization"`
	Description     string                     `yaml:"description"`
}

// Seed is one discovered .csv seed file with its companion schema.
type Seed struct {
	Name       ModelName
	Path       string
	SchemaPath string
}

// Exposure is a named downstream consumer of the project's models,
// declared as an entry of a top-level `exposures:` list in a .yml file
// under a model path.
type Exposure struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Owner     string   `yaml:"owner"`
	Maturity  string   `yaml:"maturity"`
	DependsOn []string `yaml:"depends_on"`
}

// Project is a fully discovered project tree.
type Project struct {
	RootPath  string
	Config    *featherflow.Config
	Models    []Model
	Seeds     []Seed
	Functions []Function
	Tests     []Test
	Exposures []Exposure
}

// Discover walks rootPath's configured model and seed paths and
// returns the assembled project. A model is any .sql file in a
// model_paths directory; its sibling .yml (same base name) supplies
// its schema, tags, owner, and kind (defaulting to "sql" when kind is
// absent or the YAML file doesn't exist). A seed is any .csv file in a
// source_paths directory; its sibling .yml, when present, is recorded as
// its schema path. The .yml is not required and its kind is not checked.
func Discover(rootPath string, cfg *featherflow.Config) (*Project, error) {
	proj := &Project{RootPath: rootPath, Config: cfg}

	for _, dir := range cfg.ModelPaths {
		models, err := discoverModels(rootPath, dir)
		if err != nil {
			return nil, err
		}

		proj.Models = append(proj.Models, models...)
	}

	for _, dir := range cfg.SourcePaths {
		seeds, err := discoverSeeds(rootPath, dir)
		if err != nil {
			return nil, err
		}

		proj.Seeds = append(proj.Seeds, seeds...)
	}

	sort.Slice(proj.Models, func(i, j int) bool { return proj.Models[i].Name < proj.Models[j].Name })
	sort.Slice(proj.Seeds, func(i, j int) bool { return proj.Seeds[i].Name < proj.Seeds[j].Name })

	functions, err := DiscoverFunctions(rootPath, cfg.FunctionPaths)
	if err != nil {
		return nil, err
	}

	proj.Functions = functions

	tests, err := DiscoverTests(rootPath, cfg.TestPaths)
	if err != nil {
		return nil, err
	}

	proj.Tests = tests

	exposures, err := DiscoverExposures(rootPath, cfg.ModelPaths)
	if err != nil {
		return nil, err
	}

	proj.Exposures = exposures

	return proj, nil
}

func discoverModels(rootPath, relDir string) ([]Model, error) {
	dir := filepath.Join(rootPath, relDir)

	entries, err := walkFilesWithExt(dir, ".sql")
	if err != nil {
		return nil, err
	}

	var models []Model

	for _, path := range entries {
		rawSQL, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read model %s: %w", path, err)
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		name, err := NewModelName(stem)
		if err != nil {
			return nil, err
		}

		base, version := splitVersion(stem)

		model := Model{
			Name:     name,
			Path:     path,
			RawSQL:   string(rawSQL),
			Kind:     KindSQL,
			BaseName: base,
			Version:  version,
		}

		yamlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".yml"
		if meta, ok, err := readModelYAML(yamlPath); err != nil {
			return nil, err
		} else if ok {
			model.SchemaPath = yamlPath
			model.Tags = meta.Tags
			model.Owner = meta.Owner
			model.Materialization = meta.Materialization

			if meta.Kind != "" {
				model.Kind = Kind(meta.Kind)
			}
		}

		models = append(models, model)
	}

	return models, nil
}

func discoverSeeds(rootPath, relDir string) ([]Seed, error) {
	dir := filepath.Join(rootPath, relDir)

	entries, err := walkFilesWithExt(dir, ".csv")
	if err != nil {
		return nil, err
	}

	var seeds []Seed

	for _, path := range entries {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		name, err := NewModelName(stem)
		if err != nil {
			return nil, err
		}

		yamlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".yml"

		seed := Seed{Name: name, Path: path}

		if _, ok, err := readModelYAML(yamlPath); err != nil {
			return nil, err
		} else if ok {
			seed.SchemaPath = yamlPath
		}

		seeds = append(seeds, seed)
	}

	return seeds, nil
}

func readModelYAML(path string) (ModelYAML, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ModelYAML{}, false, nil
		}

		return ModelYAML{}, false, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var meta ModelYAML

	if err := yaml.Unmarshal(data, &meta); err != nil {
		return ModelYAML{}, false, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	return meta, true, nil
}

func walkFilesWithExt(dir, ext string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}

			return err
		}

		if d.IsDir() {
			return nil
		}

		if filepath.Ext(path) == ext {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return files, nil
}
