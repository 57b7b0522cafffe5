package dialectparser

import (
	"errors"
	"fmt"
)

// ErrUnsupportedStatement names a statement form this package only
// recognizes superficially. Parse and ExtractDependencies do not return
// it: Parse records such a statement as an OtherStatement.
var ErrUnsupportedStatement = errors.New("unsupported statement")

// ParseError reports a syntax error at a specific source position.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}
