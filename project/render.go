package project

import "context"

// TargetContext is the active database target exposed to a template as
// `target.*`.
type TargetContext struct {
	Name     string
	Schema   string
	DBType   string
	Database string
}

// ModelContext is one model's self-description exposed to its own
// template as `model.*`.
type ModelContext struct {
	Name         string
	Schema       string
	Materialized string
	Tags         []string
	Path         string
}

// RenderContext is the full set of ambient values a template sees
// alongside its callable helpers, for one model's compilation.
type RenderContext struct {
	ProjectName  string
	Target       TargetContext
	Executing    bool
	RunID        string
	RunStartedAt string // RFC 3339
	Version      string
	Model        ModelContext
	Vars         map[string]any
}

// Renderer compiles a model's templated SQL body into plain SQL,
// evaluating the helper calls its dialect of template exposes
// (config/var/ref/source/env/log/warn/error/from_json/to_json and the
// SQL-producing date/string/hash/surrogate-key helpers). No concrete
// template engine was present anywhere in the retrieved reference
// material, so this is an interface boundary: the orchestrator depends
// on it, and any template implementation (text/template with custom
// funcs, a CEL-based expression layer, or a hand-rolled mini-language)
// can satisfy it without the orchestrator's compile pipeline changing.
type Renderer interface {
	// Render compiles rawSQL using rc's ambient context and returns the
	// plain SQL it produces. refResolver and sourceResolver back the
	// template's ref()/source() calls; they return the physical table
	// name a reference compiles to.
	Render(ctx context.Context, rawSQL string, rc RenderContext, refResolver RefResolver, sourceResolver SourceResolver) (string, error)
}

// RefResolver resolves a ref(name[, version]) call to the physical
// table name of the referenced model.
type RefResolver func(name, version string) (TableName, error)

// SourceResolver resolves a source(sourceName, tableName) call to the
// physical table name of the referenced external table.
type SourceResolver func(sourceName, tableName string) (TableName, error)
