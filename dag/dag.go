// Package dag builds and queries the model dependency graph (§4.6): a
// depth-first cycle check that either produces a deterministic
// topological order or fails with CircularDependency.
package dag

import "sort"

const (
	white = iota
	gray
	black
)

// Graph is a built, acyclic dependency graph over model names.
type Graph struct {
	nodes      map[string]bool
	deps       map[string][]string // name -> direct dependencies
	dependents map[string][]string // name -> direct dependents
	order      []string            // topological order, dependencies first
}

// Build constructs a Graph from a mapping of model name to its declared
// dependency names. Self-edges (a model naming itself) are silently
// dropped. Build fails with *CircularDependency if the graph has a
// cycle.
func Build(deps map[string][]string) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[string]bool, len(deps)),
		deps:       make(map[string][]string, len(deps)),
		dependents: make(map[string][]string, len(deps)),
	}

	for name := range deps {
		g.nodes[name] = true
	}

	for name, ds := range deps {
		for _, d := range ds {
			if d == name {
				continue
			}

			g.deps[name] = append(g.deps[name], d)
			g.dependents[d] = append(g.dependents[d], name)
		}
	}

	order, err := g.computeTopologicalOrder()
	if err != nil {
		return nil, err
	}

	g.order = order

	return g, nil
}

// Nodes returns every model name in the graph, sorted.
func (g *Graph) Nodes() []string {
	return g.sortedNodeNames()
}

// Dependencies returns name's direct dependencies, sorted. Returns nil
// for a name not in the graph.
func (g *Graph) Dependencies(name string) []string {
	return sortedCopy(g.deps[name])
}

// Dependents returns name's direct dependents, sorted. Returns nil for a
// name not in the graph.
func (g *Graph) Dependents(name string) []string {
	return sortedCopy(g.dependents[name])
}

// AncestorsBounded returns every model reachable by following
// dependency edges up to depth hops from name, sorted. Depth 0 and an
// unknown name both return an empty slice.
func (g *Graph) AncestorsBounded(name string, depth int) []string {
	return g.boundedReachable(name, depth, g.deps)
}

// DescendantsBounded returns every model reachable by following
// dependent edges up to depth hops from name, sorted. Depth 0 and an
// unknown name both return an empty slice.
func (g *Graph) DescendantsBounded(name string, depth int) []string {
	return g.boundedReachable(name, depth, g.dependents)
}

func (g *Graph) boundedReachable(name string, depth int, adjacency map[string][]string) []string {
	if depth <= 0 || !g.nodes[name] {
		return nil
	}

	visited := map[string]bool{name: true}
	frontier := []string{name}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string

		for _, n := range frontier {
			for _, neighbor := range adjacency[n] {
				if !visited[neighbor] {
					visited[neighbor] = true
					next = append(next, neighbor)
				}
			}
		}

		frontier = next
	}

	delete(visited, name)

	out := make([]string, 0, len(visited))
	for n := range visited {
		out = append(out, n)
	}

	sort.Strings(out)

	return out
}

// TopologicalOrder returns the graph's deterministic topological order,
// dependencies before dependents, tie-broken by name.
func (g *Graph) TopologicalOrder() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)

	return out
}

func (g *Graph) sortedNodeNames() []string {
	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

func sortedCopy(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)

	return out
}

func (g *Graph) computeTopologicalOrder() ([]string, error) {
	color := make(map[string]int, len(g.nodes))

	var (
		order []string
		path  []string
		visit func(name string) error
	)

	visit = func(name string) error {
		color[name] = gray
		path = append(path, name)

		for _, dep := range sortedCopy(g.deps[name]) {
			switch color[dep] {
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			case gray:
				idx := indexOf(path, dep)
				cycle := append([]string{}, path[idx:]...)
				cycle = append(cycle, dep)

				return &CircularDependency{Path: cycle}
			}
		}

		color[name] = black
		path = path[:len(path)-1]
		order = append(order, name)

		return nil
	}

	for _, name := range g.sortedNodeNames() {
		if color[name] == white {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}

	return -1
}
