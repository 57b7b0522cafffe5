package selector

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/datastx/Feather-Flow-sub003/dag"
)

type fakeManifest struct {
	refs map[string]ModelRef
}

func (f fakeManifest) ContainsModel(name string) bool {
	_, ok := f.refs[name]
	return ok
}

func (f fakeManifest) GetModelRef(name string) (ModelRef, bool) {
	ref, ok := f.refs[name]
	return ref, ok
}

func buildGraph(t *testing.T) *dag.Graph {
	t.Helper()

	g, err := dag.Build(map[string][]string{
		"raw_orders":    nil,
		"stg_orders":    {"raw_orders"},
		"stg_customers": {"raw_customers"},
		"raw_customers": nil,
		"fct_orders":    {"stg_orders", "stg_customers"},
	})
	assert.NoError(t, err)

	return g
}

func TestSelectBareName(t *testing.T) {
	g := buildGraph(t)
	names, err := Select(g, Index{}, fakeManifest{}, nil, []string{"stg_orders"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"stg_orders"}, names)
}

func TestSelectAncestors(t *testing.T) {
	g := buildGraph(t)
	names, err := Select(g, Index{}, fakeManifest{}, nil, []string{"+fct_orders"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders", "raw_customers", "raw_orders", "stg_customers", "stg_orders"}, names)
}

func TestSelectDescendants(t *testing.T) {
	g := buildGraph(t)
	names, err := Select(g, Index{}, fakeManifest{}, nil, []string{"raw_orders+"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders", "raw_orders", "stg_orders"}, names)
}

func TestSelectBothSides(t *testing.T) {
	g := buildGraph(t)
	names, err := Select(g, Index{}, fakeManifest{}, nil, []string{"+stg_orders+"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders", "raw_orders", "stg_orders"}, names)
}

func TestSelectBoundedDepth(t *testing.T) {
	g := buildGraph(t)
	names, err := Select(g, Index{}, fakeManifest{}, nil, []string{"1+fct_orders"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders", "stg_customers", "stg_orders"}, names)
}

func TestSelectTrailingDepth(t *testing.T) {
	g := buildGraph(t)
	names, err := Select(g, Index{}, fakeManifest{}, nil, []string{"raw_orders+1"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"raw_orders", "stg_orders"}, names)
}

func TestSelectPathTag(t *testing.T) {
	g := buildGraph(t)
	index := Index{
		"stg_orders": {Path: "models/staging/stg_orders.sql", Tags: []string{"staging"}, Owner: "data-eng"},
		"fct_orders": {Path: "models/marts/fct_orders.sql", Tags: []string{"mart"}, Owner: "analytics"},
	}

	byPath, err := Select(g, index, fakeManifest{}, nil, []string{"path:models/staging/*"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"stg_orders"}, byPath)

	byTag, err := Select(g, index, fakeManifest{}, nil, []string{"tag:mart"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders"}, byTag)

	byOwner, err := Select(g, index, fakeManifest{}, nil, []string{"owner:analytics"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders"}, byOwner)
}

func TestSelectStateNew(t *testing.T) {
	g := buildGraph(t)
	manifest := fakeManifest{refs: map[string]ModelRef{
		"raw_orders":    {},
		"stg_orders":    {},
		"stg_customers": {},
		"raw_customers": {},
	}}

	names, err := Select(g, Index{}, manifest, nil, []string{"state:new"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders"}, names)
}

func TestSelectStateModified(t *testing.T) {
	g := buildGraph(t)
	index := Index{
		"stg_orders": {SQLChecksum: "new-checksum"},
	}
	manifest := fakeManifest{refs: map[string]ModelRef{
		"raw_orders":    {},
		"stg_orders":    {SQLChecksum: "old-checksum"},
		"stg_customers": {DependsOn: []string{"raw_customers"}},
		"raw_customers": {},
		"fct_orders":    {DependsOn: []string{"stg_customers", "stg_orders"}},
	}}

	names, err := Select(g, index, manifest, nil, []string{"state:modified"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"stg_orders"}, names)
}

func TestSelectStateModifiedWithDescendants(t *testing.T) {
	g := buildGraph(t)
	index := Index{
		"stg_orders": {SQLChecksum: "new-checksum"},
	}
	manifest := fakeManifest{refs: map[string]ModelRef{
		"raw_orders":    {},
		"stg_orders":    {SQLChecksum: "old-checksum"},
		"stg_customers": {DependsOn: []string{"raw_customers"}},
		"raw_customers": {},
		"fct_orders":    {DependsOn: []string{"stg_customers", "stg_orders"}},
	}}

	names, err := Select(g, index, manifest, nil, []string{"state:modified+"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fct_orders", "stg_orders"}, names)
}

func TestSelectUnion(t *testing.T) {
	g := buildGraph(t)
	names, err := Select(g, Index{}, fakeManifest{}, nil, []string{"raw_orders", "raw_customers"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"raw_customers", "raw_orders"}, names)
}

func TestSelectSyntaxError(t *testing.T) {
	g := buildGraph(t)
	_, err := Select(g, Index{}, fakeManifest{}, nil, []string{"state:bogus"})
	assert.Error(t, err)
}
