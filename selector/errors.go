package selector

import "fmt"

// SyntaxError is returned when a selector string does not match any
// recognized form.
type SyntaxError struct {
	Selector string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid selector: %q", e.Selector)
}
