// Package selector parses and evaluates the model selector expression
// language (§4.7): bare names, graph-traversal prefixes/suffixes
// (+name, name+, +name+, N+name, name+N), and metadata predicates
// (path:, tag:, owner:, state:).
package selector

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/datastx/Feather-Flow-sub003/dag"
)

// ModelInfo is the per-model metadata the path:/tag:/owner:/state:
// predicates consult, keyed by model name in an Index.
type ModelInfo struct {
	Path         string
	Tags         []string
	Owner        string
	Materialized string
	Schema       string
	SQLChecksum  string
}

// Index maps model name to its ModelInfo.
type Index map[string]ModelInfo

// Exposures maps an exposure name to the model names it depends on, for
// the exposure: predicate.
type Exposures map[string][]string

// ModelRef is the recorded state of one model in a ReferenceManifest.
type ModelRef struct {
	DependsOn    []string
	Materialized string
	Schema       string
	Tags         []string
	SQLChecksum  string
}

// ReferenceManifest answers whether a model was present in a prior run
// and what its recorded state was. Both the JSON manifest and the meta
// database implement this contract.
type ReferenceManifest interface {
	ContainsModel(name string) bool
	GetModelRef(name string) (ModelRef, bool)
}

// Select evaluates selectors against graph/index/manifest/exposures and
// returns the sorted union of every selector's matched model names.
func Select(graph *dag.Graph, index Index, manifest ReferenceManifest, exposures Exposures, selectors []string) ([]string, error) {
	result := make(map[string]bool)

	for _, expr := range selectors {
		matched, err := evalOne(graph, index, manifest, exposures, expr)
		if err != nil {
			return nil, err
		}

		for _, name := range matched {
			result[name] = true
		}
	}

	out := make([]string, 0, len(result))
	for name := range result {
		out = append(out, name)
	}

	sort.Strings(out)

	return out, nil
}

func evalOne(graph *dag.Graph, index Index, manifest ReferenceManifest, exposures Exposures, expr string) ([]string, error) {
	switch {
	case strings.HasPrefix(expr, "path:"):
		return matchPath(index, strings.TrimPrefix(expr, "path:")), nil
	case strings.HasPrefix(expr, "tag:"):
		return matchTag(index, strings.TrimPrefix(expr, "tag:")), nil
	case strings.HasPrefix(expr, "owner:"):
		return matchOwner(index, strings.TrimPrefix(expr, "owner:")), nil
	case strings.HasPrefix(expr, "state:"):
		return evalState(graph, index, manifest, strings.TrimPrefix(expr, "state:"))
	case strings.HasPrefix(expr, "exposure:"):
		return matchExposure(graph, exposures, strings.TrimPrefix(expr, "exposure:")), nil
	default:
		return evalGraphForm(graph, expr)
	}
}

// matchExposure returns every ancestor of the named exposure's declared
// dependency models, plus the dependency models themselves: the set of
// models that must build successfully for the exposure to be current.
func matchExposure(graph *dag.Graph, exposures Exposures, name string) []string {
	deps, ok := exposures[name]
	if !ok {
		return nil
	}

	all := make(map[string]bool, len(deps))

	for _, dep := range deps {
		all[dep] = true

		for _, a := range graph.AncestorsBounded(dep, unboundedDepth(graph)) {
			all[a] = true
		}
	}

	out := make([]string, 0, len(all))
	for name := range all {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

func matchPath(index Index, pattern string) []string {
	var out []string

	for name, info := range index {
		if ok, _ := filepath.Match(pattern, info.Path); ok {
			out = append(out, name)
		}
	}

	return out
}

func matchTag(index Index, tag string) []string {
	var out []string

	for name, info := range index {
		for _, t := range info.Tags {
			if t == tag {
				out = append(out, name)
				break
			}
		}
	}

	return out
}

func matchOwner(index Index, owner string) []string {
	var out []string

	for name, info := range index {
		if info.Owner == owner {
			out = append(out, name)
		}
	}

	return out
}

func evalState(graph *dag.Graph, index Index, manifest ReferenceManifest, rest string) ([]string, error) {
	withDescendants := strings.HasSuffix(rest, "+")
	kind := strings.TrimSuffix(rest, "+")

	var base []string

	switch kind {
	case "modified":
		base = modifiedModels(graph, index, manifest)
	case "new":
		base = newModels(graph, manifest)
	default:
		return nil, &SyntaxError{Selector: "state:" + rest}
	}

	if !withDescendants {
		return base, nil
	}

	all := make(map[string]bool, len(base))
	for _, name := range base {
		all[name] = true

		for _, d := range graph.DescendantsBounded(name, unboundedDepth(graph)) {
			all[d] = true
		}
	}

	out := make([]string, 0, len(all))
	for name := range all {
		out = append(out, name)
	}

	return out, nil
}

func modifiedModels(graph *dag.Graph, index Index, manifest ReferenceManifest) []string {
	var out []string

	for _, name := range graph.Nodes() {
		if !manifest.ContainsModel(name) {
			continue
		}

		ref, _ := manifest.GetModelRef(name)
		info := index[name]

		if info.SQLChecksum != ref.SQLChecksum || info.Schema != ref.Schema {
			out = append(out, name)
			continue
		}

		if !equalStringSlices(graph.Dependencies(name), sortedCopy(ref.DependsOn)) {
			out = append(out, name)
		}
	}

	return out
}

func newModels(graph *dag.Graph, manifest ReferenceManifest) []string {
	var out []string

	for _, name := range graph.Nodes() {
		if !manifest.ContainsModel(name) {
			out = append(out, name)
		}
	}

	return out
}

func evalGraphForm(graph *dag.Graph, expr string) ([]string, error) {
	name, ancestors, ancestorDepth, descendants, descendantDepth, err := parseGraphForm(expr)
	if err != nil {
		return nil, err
	}

	result := map[string]bool{name: true}

	if ancestors {
		depth := ancestorDepth
		if depth < 0 {
			depth = unboundedDepth(graph)
		}

		for _, a := range graph.AncestorsBounded(name, depth) {
			result[a] = true
		}
	}

	if descendants {
		depth := descendantDepth
		if depth < 0 {
			depth = unboundedDepth(graph)
		}

		for _, d := range graph.DescendantsBounded(name, depth) {
			result[d] = true
		}
	}

	out := make([]string, 0, len(result))
	for name := range result {
		out = append(out, name)
	}

	return out, nil
}

// parseGraphForm recognizes name, +name, name+, +name+, N+name, and
// name+N. A depth of -1 means "unbounded" (no explicit N was given).
func parseGraphForm(expr string) (name string, ancestors bool, ancestorDepth int, descendants bool, descendantDepth int, err error) {
	if expr == "" {
		return "", false, -1, false, -1, &SyntaxError{Selector: expr}
	}

	ancestorDepth = -1
	descendantDepth = -1
	rest := expr

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}

	switch {
	case i > 0 && i < len(rest) && rest[i] == '+':
		depth, convErr := strconv.Atoi(rest[:i])
		if convErr != nil {
			return "", false, -1, false, -1, &SyntaxError{Selector: expr}
		}

		ancestors = true
		ancestorDepth = depth
		rest = rest[i+1:]
	case strings.HasPrefix(rest, "+"):
		ancestors = true
		rest = rest[1:]
	}

	j := len(rest)

	k := j
	for k > 0 && rest[k-1] >= '0' && rest[k-1] <= '9' {
		k--
	}

	switch {
	case k < j && k > 0 && rest[k-1] == '+':
		depth, convErr := strconv.Atoi(rest[k:])
		if convErr != nil {
			return "", false, -1, false, -1, &SyntaxError{Selector: expr}
		}

		descendants = true
		descendantDepth = depth
		rest = rest[:k-1]
	case strings.HasSuffix(rest, "+"):
		descendants = true
		rest = rest[:len(rest)-1]
	}

	if rest == "" {
		return "", false, -1, false, -1, &SyntaxError{Selector: expr}
	}

	return rest, ancestors, ancestorDepth, descendants, descendantDepth, nil
}

func unboundedDepth(graph *dag.Graph) int {
	n := len(graph.Nodes())
	if n == 0 {
		return 1
	}

	return n
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)

	return out
}
