package orchestrator

import (
	"context"
	"fmt"

	"github.com/datastx/Feather-Flow-sub003/project"
)

// TextSubstitutionRenderer is the built-in project.Renderer: it
// replaces every ref()/source() call with the physical table name its
// resolver returns and leaves the rest of the SQL untouched. No
// Jinja-like templating (conditionals, loops, macro expansion) is
// performed; models that need config()/var()/log() or control flow
// require a richer project.Renderer supplied by the caller (documented
// resolution, see DESIGN.md).
type TextSubstitutionRenderer struct{}

// Render implements project.Renderer.
func (TextSubstitutionRenderer) Render(_ context.Context, rawSQL string, _ project.RenderContext, refResolver project.RefResolver, sourceResolver project.SourceResolver) (string, error) {
	var firstErr error

	out := refCallPattern.ReplaceAllStringFunc(rawSQL, func(match string) string {
		sub := refCallPattern.FindStringSubmatch(match)

		table, err := refResolver(sub[1], sub[2])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			return match
		}

		return string(table)
	})
	if firstErr != nil {
		return "", firstErr
	}

	out = sourceCallPattern.ReplaceAllStringFunc(out, func(match string) string {
		sub := sourceCallPattern.FindStringSubmatch(match)

		table, err := sourceResolver(sub[1], sub[2])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			return match
		}

		return string(table)
	})
	if firstErr != nil {
		return "", firstErr
	}

	return out, nil
}

// errUnresolvedCall is returned by a strict resolver when asked for a
// name it has no physical table for.
type errUnresolvedCall struct {
	kind, name string
}

func (e *errUnresolvedCall) Error() string {
	return fmt.Sprintf("unresolved %s: %s", e.kind, e.name)
}
