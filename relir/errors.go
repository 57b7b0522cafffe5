package relir

import (
	"errors"
	"fmt"
)

// ErrUnsupportedStatement is returned by Lower when asked to lower
// anything other than a SELECT.
var ErrUnsupportedStatement = errors.New("unsupported statement")

// UnknownTable is returned by Lower when a FROM-clause name has no entry
// in the schema catalog.
type UnknownTable struct {
	Table string
}

func (e *UnknownTable) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}
