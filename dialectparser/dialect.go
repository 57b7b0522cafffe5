package dialectparser

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// Sensitivity reports whether a resolved identifier must be compared
// case-sensitively.
type Sensitivity int

const (
	CaseInsensitive Sensitivity = iota
	CaseSensitive
)

// ResolveIdent folds ident according to d's unquoted-case behavior.
// Quoted identifiers (wasQuoted == true) are always case-sensitive and
// passed through unchanged.
func ResolveIdent(d featherflow.Dialect, ident string, wasQuoted bool) (string, Sensitivity) {
	if wasQuoted {
		return ident, CaseSensitive
	}

	if d.UnquotedCaseBehavior() == featherflow.UpperFold {
		return strings.ToUpper(ident), CaseInsensitive
	}

	return ident, CaseInsensitive
}

// ObjectNameSensitivity reports the sensitivity of a multi-part object
// name: case-sensitive iff any resolved part is case-sensitive.
func ObjectNameSensitivity(parts []Sensitivity) Sensitivity {
	for _, s := range parts {
		if s == CaseSensitive {
			return CaseSensitive
		}
	}

	return CaseInsensitive
}

// QuoteIdentifier wraps name in d's quote character, doubling any
// embedded quote.
func QuoteIdentifier(d featherflow.Dialect, name string) string {
	q := string(d.QuoteChar())
	escaped := strings.ReplaceAll(name, q, q+q)

	return q + escaped + q
}
