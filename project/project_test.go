package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSplitVersion(t *testing.T) {
	base, version := splitVersion("orders_v2")
	assert.Equal(t, "orders", base)
	assert.Equal(t, "2", version)

	base, version = splitVersion("orders")
	assert.Equal(t, "orders", base)
	assert.Equal(t, "", version)

	base, version = splitVersion("orders_vx")
	assert.Equal(t, "orders_vx", base)
	assert.Equal(t, "", version)
}

func TestResolveRefExplicitVersion(t *testing.T) {
	models := []Model{
		{Name: "orders", BaseName: "orders", Version: "1"},
		{Name: "orders_v2", BaseName: "orders", Version: "2"},
	}

	m, err := ResolveRef(models, "orders", "2")
	assert.NoError(t, err)
	assert.Equal(t, ModelName("orders_v2"), m.Name)

	_, err = ResolveRef(models, "orders", "9")
	assert.Error(t, err)
}

func TestResolveRefImpliedVersionFromName(t *testing.T) {
	models := []Model{
		{Name: "orders", BaseName: "orders", Version: "1"},
		{Name: "orders_v2", BaseName: "orders", Version: "2"},
	}

	m, err := ResolveRef(models, "orders_v2", "")
	assert.NoError(t, err)
	assert.Equal(t, ModelName("orders_v2"), m.Name)
}

func TestResolveRefFallsBackToHighestVersion(t *testing.T) {
	models := []Model{
		{Name: "orders", BaseName: "orders", Version: "1"},
		{Name: "orders_v2", BaseName: "orders", Version: "2"},
		{Name: "orders_v3", BaseName: "orders", Version: "3"},
	}

	m, err := ResolveRef(models, "orders", "")
	assert.NoError(t, err)
	assert.Equal(t, ModelName("orders_v3"), m.Name)
}

func TestResolveRefLiteralUnversionedMatch(t *testing.T) {
	models := []Model{
		{Name: "stg_customers", BaseName: "stg_customers", Version: ""},
	}

	m, err := ResolveRef(models, "stg_customers", "")
	assert.NoError(t, err)
	assert.Equal(t, ModelName("stg_customers"), m.Name)
}

func TestResolveRefUnknownModel(t *testing.T) {
	_, err := ResolveRef(nil, "missing", "")
	assert.Error(t, err)
}

func TestDiscoverFindsModelsWithSchema(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "models", "stg_orders.sql"), "SELECT * FROM raw.orders")
	writeFile(t, filepath.Join(root, "models", "stg_orders.yml"), "kind: sql\nowner: data-eng\ntags: [staging]\n")
	writeFile(t, filepath.Join(root, "models", "stg_customers.sql"), "SELECT * FROM raw.customers")
	writeFile(t, filepath.Join(root, "seeds", "country_codes.csv"), "code,name\nUS,United States\n")

	cfg := &featherflow.Config{
		ModelPaths:  []string{"models"},
		SourcePaths: []string{"seeds"},
	}

	proj, err := Discover(root, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(proj.Models))
	assert.Equal(t, 1, len(proj.Seeds))

	var stgOrders *Model
	for i := range proj.Models {
		if proj.Models[i].Name == "stg_orders" {
			stgOrders = &proj.Models[i]
		}
	}

	assert.True(t, stgOrders != nil)
	assert.Equal(t, "data-eng", stgOrders.Owner)
	assert.Equal(t, []string{"staging"}, stgOrders.Tags)
}

func TestDiscoverMissingDirsReturnEmptyProject(t *testing.T) {
	root := t.TempDir()

	cfg := &featherflow.Config{
		ModelPaths:  []string{"models"},
		SourcePaths: []string{"seeds"},
	}

	proj, err := Discover(root, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(proj.Models))
	assert.Equal(t, 0, len(proj.Seeds))
}

func TestDiscoverFunctions(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "functions", "normalize_email.sql"), "LOWER(TRIM(email))")
	writeFile(t, filepath.Join(root, "functions", "normalize_email.yml"), "dialect: postgres\nargs:\n  - type: text\nreturn_columns:\n  - name: result\n    type: text\n")

	functions, err := DiscoverFunctions(root, []string{"functions"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(functions))
	assert.Equal(t, "normalize_email", functions[0].Name)
	assert.Equal(t, "postgres", functions[0].Dialect)
	assert.Equal(t, 1, len(functions[0].Args))
}

func TestDiscoverTests(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "tests", "assert_positive_amounts.sql"), "SELECT * FROM fct_orders WHERE amount < 0")

	tests, err := DiscoverTests(root, []string{"tests"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(tests))
	assert.Equal(t, "assert_positive_amounts", tests[0].Name)
}

func TestDiscoverExposures(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "models", "exposures.yml"), "exposures:\n  - name: revenue_dashboard\n    type: dashboard\n    owner: analytics\n    depends_on: [fct_orders]\n")

	exposures, err := DiscoverExposures(root, []string{"models"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(exposures))
	assert.Equal(t, "revenue_dashboard", exposures[0].Name)
	assert.Equal(t, []string{"fct_orders"}, exposures[0].DependsOn)
}

func TestAppendAndStripQueryComment(t *testing.T) {
	sql := "SELECT * FROM fct_orders"

	meta := QueryMetadata{
		Model:        "fct_orders",
		Project:      "featherflow_demo",
		InvocationID: NewInvocationID(),
		Version:      "0.1.0",
	}

	compiled, err := AppendQueryComment(sql, meta, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.NoError(t, err)
	assert.Contains(t, compiled, "ff_metadata")
	assert.Contains(t, compiled, "fct_orders")

	stripped := StripQueryComment(compiled)
	assert.Equal(t, sql, stripped)

	parsed, ok, err := ParseQueryComment(compiled)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fct_orders", parsed.Model)
	assert.Equal(t, "2026-01-02T03:04:05Z", parsed.CompiledAt)
}

func TestStripQueryCommentNoCommentIsUnchanged(t *testing.T) {
	sql := "SELECT 1"
	assert.Equal(t, sql, StripQueryComment(sql))

	_, ok, err := ParseQueryComment(sql)
	assert.NoError(t, err)
	assert.False(t, ok)
}
