package project

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueryMetadata is appended as a trailing SQL comment to every compiled
// query so it can be correlated back to the run that produced it in
// database server logs and slow-query reports.
type QueryMetadata struct {
	Model           string `json:"model"`
	Project         string `json:"project"`
	Materialization string `json:"materialization,omitempty"`
	CompiledAt      string `json:"compiled_at"`
	Target          string `json:"target,omitempty"`
	InvocationID    string `json:"invocation_id"`
	User            string `json:"user,omitempty"`
	Version         string `json:"featherflow_version"`
}

// queryCommentPrefix marks the start of an appended metadata comment so
// StripQueryComment can find and remove it without touching any other
// trailing comment a model's SQL happens to contain.
const queryCommentPrefix = "/* ff_metadata: "

// NewInvocationID returns a fresh invocation identifier for a single
// compile/run invocation, shared across every query comment it emits.
func NewInvocationID() string {
	return uuid.NewString()
}

// AppendQueryComment serializes meta and appends it to sql as a
// trailing block comment. compiledAt is formatted as RFC 3339.
func AppendQueryComment(sql string, meta QueryMetadata, compiledAt time.Time) (string, error) {
	meta.CompiledAt = compiledAt.UTC().Format(time.RFC3339)

	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal query metadata: %w", err)
	}

	return strings.TrimRight(sql, "\n") + "\n" + queryCommentPrefix + string(body) + " */\n", nil
}

// StripQueryComment removes a trailing ff_metadata comment appended by
// AppendQueryComment, if present, returning sql unchanged otherwise. A
// reader that doesn't know about the comment still sees valid,
// executable SQL either way.
func StripQueryComment(sql string) string {
	idx := strings.LastIndex(sql, queryCommentPrefix)
	if idx < 0 {
		return sql
	}

	end := strings.LastIndex(sql, "*/")
	if end < idx {
		return sql
	}

	return strings.TrimRight(sql[:idx], "\n \t")
}

// ParseQueryComment extracts and decodes the ff_metadata comment from
// sql, if one is present.
func ParseQueryComment(sql string) (QueryMetadata, bool, error) {
	idx := strings.LastIndex(sql, queryCommentPrefix)
	if idx < 0 {
		return QueryMetadata{}, false, nil
	}

	rest := sql[idx+len(queryCommentPrefix):]

	end := strings.LastIndex(rest, "*/")
	if end < 0 {
		return QueryMetadata{}, false, nil
	}

	var meta QueryMetadata
	if err := json.Unmarshal([]byte(strings.TrimSpace(rest[:end])), &meta); err != nil {
		return QueryMetadata{}, false, fmt.Errorf("failed to parse query metadata comment: %w", err)
	}

	return meta, true, nil
}
