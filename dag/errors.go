package dag

import "strings"

// CircularDependency is returned by Build when the dependency map
// contains a cycle. Path lists the cycle, starting and ending at the
// same node.
type CircularDependency struct {
	Path []string
}

func (e *CircularDependency) Error() string {
	return "circular dependency: " + strings.Join(e.Path, " -> ")
}
