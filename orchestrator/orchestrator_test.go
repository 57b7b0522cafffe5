package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/project"
)

func TestExtractRefCalls(t *testing.T) {
	calls := ExtractRefCalls(`SELECT * FROM {{ ref("stg_orders") }} JOIN {{ ref('stg_customers', '2') }} USING (id)`)

	assert.Equal(t, 2, len(calls))
	assert.Equal(t, "stg_orders", calls[0].Name)
	assert.Equal(t, "", calls[0].Version)
	assert.Equal(t, "stg_customers", calls[1].Name)
	assert.Equal(t, "2", calls[1].Version)
}

func TestExtractSourceCalls(t *testing.T) {
	calls := ExtractSourceCalls(`SELECT * FROM {{ source("raw", "orders") }}`)

	assert.Equal(t, 1, len(calls))
	assert.Equal(t, "raw", calls[0].Source)
	assert.Equal(t, "orders", calls[0].Table)
}

func TestBuildDependencyMapResolvesRefs(t *testing.T) {
	models := []project.Model{
		{Name: "stg_orders", BaseName: "stg_orders", RawSQL: "SELECT * FROM raw.orders"},
		{Name: "fct_orders", BaseName: "fct_orders", RawSQL: `SELECT * FROM {{ ref("stg_orders") }}`},
	}

	deps, err := BuildDependencyMap(models)
	assert.NoError(t, err)
	assert.Equal(t, []string{"stg_orders"}, deps["fct_orders"])
	assert.Equal(t, 0, len(deps["stg_orders"]))
}

func TestBuildDependencyMapUnknownRefErrors(t *testing.T) {
	models := []project.Model{
		{Name: "fct_orders", BaseName: "fct_orders", RawSQL: `SELECT * FROM {{ ref("missing") }}`},
	}

	_, err := BuildDependencyMap(models)
	assert.Error(t, err)
}

func TestBuildGraphDetectsCycle(t *testing.T) {
	models := []project.Model{
		{Name: "a", BaseName: "a", RawSQL: `SELECT * FROM {{ ref("b") }}`},
		{Name: "b", BaseName: "b", RawSQL: `SELECT * FROM {{ ref("a") }}`},
	}

	_, err := BuildGraph(models)
	assert.Error(t, err)
}

func TestTextSubstitutionRendererReplacesCalls(t *testing.T) {
	renderer := TextSubstitutionRenderer{}

	refResolver := func(name, version string) (project.TableName, error) {
		return project.NewTableName(name + "_resolved")
	}
	sourceResolver := func(source, table string) (project.TableName, error) {
		return project.NewTableName(table + "_src")
	}

	out, err := renderer.Render(context.Background(),
		`SELECT * FROM ref("stg_orders") JOIN source("raw", "orders") USING (id)`,
		project.RenderContext{}, refResolver, sourceResolver)
	assert.NoError(t, err)
	assert.Equal(t, `SELECT * FROM stg_orders_resolved JOIN orders_src USING (id)`, out)
}

func TestExecuteGraphRespectsDependencyOrder(t *testing.T) {
	models := []project.Model{
		{Name: "stg_orders", BaseName: "stg_orders", RawSQL: "SELECT 1"},
		{Name: "fct_orders", BaseName: "fct_orders", RawSQL: `SELECT * FROM {{ ref("stg_orders") }}`},
	}

	graph, err := BuildGraph(models)
	assert.NoError(t, err)

	log := &callLog{}

	results := ExecuteGraph(context.Background(), graph, graph.TopologicalOrder(), 2, false,
		func(ctx context.Context, name string) (*int64, error) {
			log.add(name)
			return nil, nil
		})

	assert.Equal(t, 2, len(results))
	assert.Equal(t, featherflow.RunStatusSuccess, results["stg_orders"].Status)
	assert.Equal(t, featherflow.RunStatusSuccess, results["fct_orders"].Status)

	order := log.get()
	assert.Equal(t, "stg_orders", order[0])
	assert.Equal(t, "fct_orders", order[1])
}

func TestExecuteGraphSkipsDescendantsOfFailure(t *testing.T) {
	models := []project.Model{
		{Name: "stg_orders", BaseName: "stg_orders", RawSQL: "SELECT 1"},
		{Name: "fct_orders", BaseName: "fct_orders", RawSQL: `SELECT * FROM {{ ref("stg_orders") }}`},
	}

	graph, err := BuildGraph(models)
	assert.NoError(t, err)

	boom := errors.New("boom")

	results := ExecuteGraph(context.Background(), graph, graph.TopologicalOrder(), 2, false,
		func(ctx context.Context, name string) (*int64, error) {
			if name == "stg_orders" {
				return nil, boom
			}
			return nil, nil
		})

	assert.Equal(t, featherflow.RunStatusError, results["stg_orders"].Status)
	assert.Equal(t, featherflow.RunStatusSkipped, results["fct_orders"].Status)
}

// callLog records call order under a mutex for deterministic assertions
// despite ExecuteGraph's internal concurrency.
type callLog struct {
	mu    sync.Mutex
	names []string
}

func (c *callLog) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

func (c *callLog) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
