package featherflow

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the contents of featherflow.yml, the project manifest.
type Config struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Dialect  string `yaml:"dialect"`

	ModelPaths    []string `yaml:"model_paths"`
	SourcePaths   []string `yaml:"source_paths"`
	MacroPaths    []string `yaml:"macro_paths"`
	TestPaths     []string `yaml:"test_paths"`
	FunctionPaths []string `yaml:"function_paths"`
	TargetPath    string   `yaml:"target_path"`

	Materialization string `yaml:"materialization"`

	Database Database           `yaml:"database"`
	Targets  map[string]Target  `yaml:"targets"`

	Schema map[string]ModelSchema `yaml:"schema"`
	Vars   map[string]any         `yaml:"vars"`

	OnRunStart []string `yaml:"on_run_start"`
	OnRunEnd   []string `yaml:"on_run_end"`

	ExternalTables map[string]ExternalTable `yaml:"external_tables"`

	Format   FormatConfig   `yaml:"format"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Rules    RulesConfig    `yaml:"rules"`

	CleanTargets []string `yaml:"clean_targets"`
}

// Database is the default connection target used when no --target flag
// overrides it. Type defaults to "duckdb", the embedded analytical
// engine models materialize into unless a project opts into a
// postgres/mysql target instead.
type Database struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// Target is a named, alternate database connection selectable via --target.
type Target struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// ModelSchema declares the expected output columns of one model, used by
// the catalog and by cross-model-consistency analysis. When Enforced is
// true the schema is a contract: a type, nullability, or missing-column
// mismatch fails the model's run rather than producing an advisory
// diagnostic.
type ModelSchema struct {
	Columns  []ColumnSchema `yaml:"columns"`
	Enforced bool           `yaml:"enforced"`
}

// ColumnSchema declares one column of a ModelSchema.
type ColumnSchema struct {
	Name           string       `yaml:"name"`
	Type           string       `yaml:"type"`
	Nullable       bool         `yaml:"nullable"`
	Description    string       `yaml:"description"`
	Classification string       `yaml:"classification"`
	Tests          []GenericTest `yaml:"tests"`
}

// GenericTest declares one column-level generic test. Kind is one of
// not_null, unique, accepted_values, relationships. Values populates
// accepted_values; To/Field populate relationships (the referenced
// model and its column).
type GenericTest struct {
	Kind   string   `yaml:"kind"`
	Values []string `yaml:"values"`
	To     string   `yaml:"to"`
	Field  string   `yaml:"field"`
}

// ExternalTable declares a table available to models that is not itself a
// model (an ingested source, a seed, a view managed outside the project).
type ExternalTable struct {
	Columns     []ColumnSchema `yaml:"columns"`
	Description string         `yaml:"description"`
	// Freshness, if set, bounds how stale the underlying data may be before
	// the source is considered unfit to build from.
	Freshness *FreshnessConfig `yaml:"freshness,omitempty"`
}

// FreshnessConfig declares warn/error thresholds against a loaded-at column.
type FreshnessConfig struct {
	LoadedAtField string `yaml:"loaded_at_field"`
	WarnAfter     string `yaml:"warn_after"`
	ErrorAfter    string `yaml:"error_after"`
}

// FormatConfig controls the SQL formatter invoked by `featherflow fmt`.
type FormatConfig struct {
	LineLength  int  `yaml:"line_length"`
	NoJinjafmt  bool `yaml:"no_jinjafmt"`
}

// AnalysisConfig controls the severity of individual analysis passes.
type AnalysisConfig struct {
	SeverityOverrides map[string]string `yaml:"severity_overrides"`
}

// RulesConfig controls the custom SQL-query rule engine. SeverityExpr,
// when set, is a CEL expression over `violation_count` (int) and
// `rule_name` (string) evaluated after a rule runs; it overrides
// Severity for that rule's violations when it evaluates to a
// recognized severity string.
type RulesConfig struct {
	Paths        []string `yaml:"paths"`
	Severity     string   `yaml:"severity"`
	OnFailure    string   `yaml:"on_failure"`
	SeverityExpr string   `yaml:"severity_expr"`
}

// LoadConfig loads featherflow.yml from configPath.
func LoadConfig(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config

	if err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and
// inconsistencies.
func validateConfig(config *Config) error {
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrConfigValidation)
	}

	if config.Dialect == "" {
		return fmt.Errorf("%w: %v", ErrConfigValidation, ErrDialectMustBeSpecified)
	}

	if !Dialect(config.Dialect).Valid() {
		return fmt.Errorf("%w: %v: %q", ErrConfigValidation, ErrUnknownDialect, config.Dialect)
	}

	if config.Materialization != "" && !Materialization(config.Materialization).Valid() {
		return fmt.Errorf("%w: invalid materialization %q: must be one of view, table, incremental, ephemeral", ErrConfigValidation, config.Materialization)
	}

	validDatabaseTypes := map[string]bool{"duckdb": true, "postgres": true, "postgresql": true, "mysql": true}

	if config.Database.Type != "" && !validDatabaseTypes[config.Database.Type] {
		return fmt.Errorf("%w: database.type %q is unsupported: must be one of duckdb, postgres, mysql", ErrConfigValidation, config.Database.Type)
	}

	for name, target := range config.Targets {
		if target.Type != "" && !validDatabaseTypes[target.Type] {
			return fmt.Errorf("%w: targets.%s.type %q is unsupported: must be one of duckdb, postgres, mysql", ErrConfigValidation, name, target.Type)
		}
	}

	for modelName, schema := range config.Schema {
		seen := make(map[string]bool, len(schema.Columns))
		for _, col := range schema.Columns {
			if col.Name == "" {
				return fmt.Errorf("%w: schema.%s: column name is required", ErrConfigValidation, modelName)
			}

			if seen[col.Name] {
				return fmt.Errorf("%w: schema.%s: duplicate column %q", ErrConfigValidation, modelName, col.Name)
			}

			seen[col.Name] = true
		}
	}

	validSeverities := map[string]bool{
		string(SeverityInfo): true, string(SeverityWarning): true,
		string(SeverityError): true, string(SeverityOff): true,
	}

	for rule, severity := range config.Analysis.SeverityOverrides {
		if !validSeverities[severity] {
			return fmt.Errorf("%w: analysis.severity_overrides.%s: invalid severity %q", ErrConfigValidation, rule, severity)
		}
	}

	if config.Rules.Severity != "" && !validSeverities[config.Rules.Severity] {
		return fmt.Errorf("%w: rules.severity: invalid severity %q", ErrConfigValidation, config.Rules.Severity)
	}

	validOnFailure := map[string]bool{"error": true, "warn": true, "ignore": true}
	if config.Rules.OnFailure != "" && !validOnFailure[config.Rules.OnFailure] {
		return fmt.Errorf("%w: rules.on_failure: invalid value %q: must be one of error, warn, ignore", ErrConfigValidation, config.Rules.OnFailure)
	}

	for name, ext := range config.ExternalTables {
		if ext.Freshness == nil {
			continue
		}

		if ext.Freshness.LoadedAtField == "" {
			return fmt.Errorf("%w: external_tables.%s.freshness: loaded_at_field is required", ErrConfigValidation, name)
		}
	}

	return nil
}

// DefaultConfig returns the configuration `featherflow init` writes out
// for a freshly scaffolded project.
func DefaultConfig() *Config {
	return getDefaultConfig()
}

// getDefaultConfig returns the configuration used when a model directory is
// scaffolded by `featherflow init` and no featherflow.yml exists yet.
func getDefaultConfig() *Config {
	return &Config{
		Name:            "my_project",
		Version:         "0.1.0",
		Dialect:         string(DialectDuckDB),
		ModelPaths:      []string{"models"},
		SourcePaths:     []string{"seeds"},
		MacroPaths:      []string{"macros"},
		TestPaths:       []string{"tests"},
		FunctionPaths:   []string{"functions"},
		TargetPath:      "target",
		Materialization: string(MaterializationView),
		Database: Database{
			Type: "duckdb",
			Path: "target/featherflow.duckdb",
			Name: "my_project",
		},
		Targets: make(map[string]Target),
		Schema:  make(map[string]ModelSchema),
		Vars:    make(map[string]any),
		Format: FormatConfig{
			LineLength: 100,
		},
		Analysis: AnalysisConfig{
			SeverityOverrides: make(map[string]string),
		},
		Rules: RulesConfig{
			Severity:  string(SeverityWarning),
			OnFailure: "warn",
		},
		CleanTargets: []string{"target"},
	}
}

// applyDefaults fills zero-valued fields of a loaded configuration with the
// project defaults.
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.Dialect == "" {
		config.Dialect = defaults.Dialect
	}

	if len(config.ModelPaths) == 0 {
		config.ModelPaths = defaults.ModelPaths
	}

	if len(config.SourcePaths) == 0 {
		config.SourcePaths = defaults.SourcePaths
	}

	if len(config.MacroPaths) == 0 {
		config.MacroPaths = defaults.MacroPaths
	}

	if len(config.TestPaths) == 0 {
		config.TestPaths = defaults.TestPaths
	}

	if len(config.FunctionPaths) == 0 {
		config.FunctionPaths = defaults.FunctionPaths
	}

	if config.TargetPath == "" {
		config.TargetPath = defaults.TargetPath
	}

	if config.Materialization == "" {
		config.Materialization = defaults.Materialization
	}

	if config.Database.Type == "" {
		config.Database.Type = defaults.Database.Type
	}

	if config.Database.Path == "" {
		config.Database.Path = defaults.Database.Path
	}

	if config.Targets == nil {
		config.Targets = make(map[string]Target)
	}

	if config.Schema == nil {
		config.Schema = make(map[string]ModelSchema)
	}

	if config.Vars == nil {
		config.Vars = make(map[string]any)
	}

	if config.ExternalTables == nil {
		config.ExternalTables = make(map[string]ExternalTable)
	}

	if config.Format.LineLength == 0 {
		config.Format.LineLength = defaults.Format.LineLength
	}

	if config.Analysis.SeverityOverrides == nil {
		config.Analysis.SeverityOverrides = make(map[string]string)
	}

	if config.Rules.Severity == "" {
		config.Rules.Severity = defaults.Rules.Severity
	}

	if config.Rules.OnFailure == "" {
		config.Rules.OnFailure = defaults.Rules.OnFailure
	}

	if len(config.CleanTargets) == 0 {
		config.CleanTargets = defaults.CleanTargets
	}
}

// SeverityOverride returns the configured severity override for a rule
// name, and whether one was set.
func (c *Config) SeverityOverride(ruleName string) (Severity, bool) {
	s, ok := c.Analysis.SeverityOverrides[ruleName]
	if !ok {
		return "", false
	}

	return Severity(s), true
}

// loadEnvFiles loads the project's .env file, if present.
func loadEnvFiles() error {
	if fileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or $VAR.
func expandEnvVars(s string) string {
	re1 := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re1.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})

	return s
}

// expandConfigEnvVars recursively expands environment variables referenced
// in connection paths.
func expandConfigEnvVars(config *Config) {
	config.Database.Path = expandEnvVars(config.Database.Path)
	config.Database.Name = expandEnvVars(config.Database.Name)

	for name, target := range config.Targets {
		target.Path = expandEnvVars(target.Path)
		target.Name = expandEnvVars(target.Name)
		config.Targets[name] = target
	}
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
