package orchestrator

import (
	"fmt"

	"github.com/datastx/Feather-Flow-sub003/dag"
	"github.com/datastx/Feather-Flow-sub003/project"
	"github.com/datastx/Feather-Flow-sub003/selector"
	"github.com/datastx/Feather-Flow-sub003/state"
)

// BuildDependencyMap resolves every model's ref() calls against proj's
// models, returning a dependency map suitable for dag.Build. source()
// calls do not introduce model-to-model edges: sources are leaves the
// DAG doesn't need to track as nodes.
func BuildDependencyMap(models []project.Model) (map[string][]string, error) {
	deps := make(map[string][]string, len(models))

	for _, m := range models {
		seen := make(map[string]bool)
		var edges []string

		for _, call := range ExtractRefCalls(m.RawSQL) {
			target, err := project.ResolveRef(models, call.Name, call.Version)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", m.Name, err)
			}

			if !seen[string(target.Name)] {
				seen[string(target.Name)] = true
				edges = append(edges, string(target.Name))
			}
		}

		deps[string(m.Name)] = edges
	}

	return deps, nil
}

// BuildGraph resolves models' ref() edges and constructs their dag.Graph.
func BuildGraph(models []project.Model) (*dag.Graph, error) {
	deps, err := BuildDependencyMap(models)
	if err != nil {
		return nil, err
	}

	return dag.Build(deps)
}

// BuildSelectorIndex builds the selector.Index describing models' static
// metadata, consulted by path:/tag:/owner:/state: predicates.
func BuildSelectorIndex(models []project.Model) selector.Index {
	index := make(selector.Index, len(models))

	for _, m := range models {
		index[string(m.Name)] = selector.ModelInfo{
			Path:         m.Path,
			Tags:         m.Tags,
			Owner:        m.Owner,
			Materialized: m.Materialization,
			Schema:       m.SchemaPath,
			SQLChecksum:  state.Checksum(m.RawSQL),
		}
	}

	return index
}

// BuildExposureIndex builds the selector.Exposures map consulted by the
// exposure: predicate, from a project's discovered exposures.
func BuildExposureIndex(exposures []project.Exposure) selector.Exposures {
	index := make(selector.Exposures, len(exposures))

	for _, e := range exposures {
		index[e.Name] = e.DependsOn
	}

	return index
}
