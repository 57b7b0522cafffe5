package orchestrator

import (
	"context"
	"sync"
	"time"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/dag"
	"golang.org/x/sync/errgroup"
)

// ModelTask executes one model's materialization SQL and returns its
// row count, if known.
type ModelTask func(ctx context.Context, name string) (rowCount *int64, err error)

// RunResult is the outcome of executing one model.
type RunResult struct {
	Model      string
	Status     featherflow.RunStatus
	DurationMs int64
	RowCount   *int64
	Err        error
}

// ExecuteGraph runs task for every node in graph, honoring dependency
// order: a model starts only once every model it depends on has
// finished (successfully or not). Independent models run concurrently,
// bounded by threads. A model whose upstream failed is recorded as
// skipped rather than attempted, unless the model has no failed
// ancestor. If failFast is true, a model failure cancels every
// not-yet-started model; already-running models still finish.
func ExecuteGraph(ctx context.Context, graph *dag.Graph, nodes []string, threads int, failFast bool, task ModelTask) map[string]RunResult {
	if threads < 1 {
		threads = 1
	}

	var mu sync.Mutex
	results := make(map[string]RunResult, len(nodes))
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	nodeSet := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		nodeSet[n] = true
	}

	for _, n := range nodes {
		count := 0
		for _, dep := range graph.Dependencies(n) {
			if nodeSet[dep] {
				count++
			}
		}
		indegree[n] = count

		for _, dep := range graph.Dependencies(n) {
			if nodeSet[dep] {
				dependents[dep] = append(dependents[dep], n)
			}
		}
	}

	ready := make(chan string, len(nodes))
	remaining := len(nodes)

	for _, n := range nodes {
		if indegree[n] == 0 {
			ready <- n
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(runCtx)
	eg.SetLimit(threads)

	var failed sync.Map // model name -> true, for descendant skip checks

	hasFailedAncestor := func(name string) bool {
		for _, dep := range graph.Dependencies(name) {
			if _, ok := failed.Load(dep); ok {
				return true
			}
		}

		return false
	}

	finish := func(name string, result RunResult) {
		mu.Lock()
		results[name] = result
		remaining--
		done := remaining == 0
		deps := dependents[name]
		mu.Unlock()

		if result.Status != featherflow.RunStatusSuccess {
			failed.Store(name, true)

			if failFast {
				cancel()
			}
		}

		for _, dependent := range deps {
			mu.Lock()
			indegree[dependent]--
			zero := indegree[dependent] == 0
			mu.Unlock()

			if zero {
				ready <- dependent
			}
		}

		if done {
			close(ready)
		}
	}

	for name := range ready {
		name := name

		eg.Go(func() error {
			if egCtx.Err() != nil && failFast {
				finish(name, RunResult{Model: name, Status: featherflow.RunStatusSkipped})
				return nil
			}

			if hasFailedAncestor(name) {
				finish(name, RunResult{Model: name, Status: featherflow.RunStatusSkipped})
				return nil
			}

			start := time.Now()
			rowCount, err := task(egCtx, name)
			duration := time.Since(start).Milliseconds()

			status := featherflow.RunStatusSuccess
			if err != nil {
				status = featherflow.RunStatusError
			}

			finish(name, RunResult{Model: name, Status: status, DurationMs: duration, RowCount: rowCount, Err: err})

			return nil
		})
	}

	eg.Wait()

	return results
}
