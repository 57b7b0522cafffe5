package dag

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestBuildNodeSet(t *testing.T) {
	g, err := Build(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, g.Nodes())
}

func TestBuildDropsSelfEdge(t *testing.T) {
	g, err := Build(map[string][]string{"a": {"a", "b"}, "b": nil})
	assert.NoError(t, err)
	assert.Equal(t, []string{"b"}, g.Dependencies("a"))
}

func TestBuildDetectsCycle(t *testing.T) {
	_, err := Build(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	})
	assert.Error(t, err)

	var cycle *CircularDependency
	assert.True(t, errors.As(err, &cycle))
	assert.True(t, len(cycle.Path) >= 2)
}

func TestTopologicalOrderIsLinearExtension(t *testing.T) {
	g, err := Build(map[string][]string{
		"stg_orders":    {"raw_orders"},
		"raw_orders":    nil,
		"fct_orders":    {"stg_orders", "stg_customers"},
		"stg_customers": {"raw_customers"},
		"raw_customers": nil,
	})
	assert.NoError(t, err)

	order := g.TopologicalOrder()
	assert.Equal(t, 5, len(order))

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}

	assert.True(t, pos["raw_orders"] < pos["stg_orders"])
	assert.True(t, pos["stg_orders"] < pos["fct_orders"])
	assert.True(t, pos["stg_customers"] < pos["fct_orders"])
}

func TestTopologicalOrderDeterministic(t *testing.T) {
	deps := map[string][]string{"a": nil, "b": nil, "c": nil}

	g1, err := Build(deps)
	assert.NoError(t, err)

	g2, err := Build(deps)
	assert.NoError(t, err)

	assert.Equal(t, g1.TopologicalOrder(), g2.TopologicalOrder())
	assert.Equal(t, []string{"a", "b", "c"}, g1.TopologicalOrder())
}

func TestDependentsReverse(t *testing.T) {
	g, err := Build(map[string][]string{
		"fct_orders": {"stg_orders"},
		"stg_orders": nil,
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders"}, g.Dependents("stg_orders"))
}

func TestAncestorsBounded(t *testing.T) {
	g, err := Build(map[string][]string{
		"c": {"b"},
		"b": {"a"},
		"a": nil,
	})
	assert.NoError(t, err)

	assert.Equal(t, []string(nil), g.AncestorsBounded("c", 0))
	assert.Equal(t, []string{"b"}, g.AncestorsBounded("c", 1))
	assert.Equal(t, []string{"a", "b"}, g.AncestorsBounded("c", 2))
	assert.Equal(t, []string{"a", "b"}, g.AncestorsBounded("c", 100))
	assert.Equal(t, []string(nil), g.AncestorsBounded("missing", 5))
}

func TestDescendantsBounded(t *testing.T) {
	g, err := Build(map[string][]string{
		"c": {"b"},
		"b": {"a"},
		"a": nil,
	})
	assert.NoError(t, err)

	assert.Equal(t, []string{"b"}, g.DescendantsBounded("a", 1))
	assert.Equal(t, []string{"b", "c"}, g.DescendantsBounded("a", 2))
}
