package catalog

import "fmt"

// PlanningError covers parse failure, an empty statement list, or any
// resolution failure encountered while planning a model's SQL.
type PlanningError struct {
	Message string
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning error: %s", e.Message)
}

// UnknownTable is raised when a model's SQL references a name that is
// neither in the schema catalog nor in the user-function namespace.
type UnknownTable struct {
	Model string
	Table string
}

func (e *UnknownTable) Error() string {
	return fmt.Sprintf("model %q references unknown table %q", e.Model, e.Table)
}
