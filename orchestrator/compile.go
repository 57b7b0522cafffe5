package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/catalog"
	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/project"
	"github.com/datastx/Feather-Flow-sub003/relir"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// CompiledModel is one model after the full parse/render/qualify/plan
// pipeline has run against it.
type CompiledModel struct {
	Model       project.Model
	RenderedSQL string
	FinalSQL    string // RenderedSQL with the trailing ff_metadata comment
	Plan        relir.RelOp
	Schema      sqltype.RelationSchema
	Err         error // set if any stage failed; later stages are skipped
}

// Compiler owns the catalog and drives one model through render,
// qualify, and plan. It is not safe for concurrent use across models
// with data dependencies on each other's registered schema, so the
// orchestrator compiles strictly in topological order.
type Compiler struct {
	Config    *featherflow.Config
	Catalog   *catalog.Catalog
	Renderer  project.Renderer
	Models    []project.Model
	ProjectID string
	Version   string
	RunID     string
	RunStart  string // RFC 3339
	Target    project.TargetContext
}

// NewCompiler builds a Compiler with the default text-substitution
// renderer registered against dialect.
func NewCompiler(cfg *featherflow.Config, dialect featherflow.Dialect, models []project.Model) *Compiler {
	return &Compiler{
		Config:   cfg,
		Catalog:  catalog.New(dialect),
		Renderer: TextSubstitutionRenderer{},
		Models:   models,
	}
}

func (c *Compiler) refResolver() project.RefResolver {
	return func(name, version string) (project.TableName, error) {
		m, err := project.ResolveRef(c.Models, name, version)
		if err != nil {
			return "", err
		}

		return project.NewTableName(string(m.Name))
	}
}

func (c *Compiler) sourceResolver() project.SourceResolver {
	return func(_, table string) (project.TableName, error) {
		if _, ok := c.Config.ExternalTables[table]; !ok {
			return "", fmt.Errorf("unknown source table %q", table)
		}

		return project.NewTableName(table)
	}
}

// CompileModel renders, qualifies, and plans one model, registering its
// inferred schema in the compiler's catalog so downstream models can
// resolve it.
func (c *Compiler) CompileModel(ctx context.Context, m project.Model) CompiledModel {
	result := CompiledModel{Model: m}

	rc := project.RenderContext{
		ProjectName:  c.Config.Name,
		Target:       c.Target,
		Executing:    true,
		RunID:        c.RunID,
		RunStartedAt: c.RunStart,
		Version:      c.Version,
		Model: project.ModelContext{
			Name:         string(m.Name),
			Schema:       m.SchemaPath,
			Materialized: m.Materialization,
			Tags:         m.Tags,
			Path:         m.Path,
		},
		Vars: c.Config.Vars,
	}

	rendered, err := c.Renderer.Render(ctx, m.RawSQL, rc, c.refResolver(), c.sourceResolver())
	if err != nil {
		result.Err = fmt.Errorf("render %s: %w", m.Name, err)
		return result
	}

	result.RenderedSQL = rendered

	stmts, err := dialectparser.Parse(rendered)
	if err != nil {
		result.Err = fmt.Errorf("parse %s: %w", m.Name, err)
		return result
	}

	mapping := make(map[string]dialectparser.QualifiedName, len(c.Models))
	for _, other := range c.Models {
		mapping[string(other.Name)] = dialectparser.QualifiedName{
			Schema: c.Target.Schema,
			Table:  string(other.Name),
		}
	}

	qualified := dialectparser.QualifyTableReferences(stmts, mapping)

	if len(qualified) == 0 {
		result.Err = fmt.Errorf("plan %s: empty statement list", m.Name)
		return result
	}

	plan, err := relir.Lower(qualified[0], c.relirSnapshot())
	if err != nil {
		var unknown *relir.UnknownTable
		if errors.As(err, &unknown) {
			result.Err = fmt.Errorf("plan %s: %w", m.Name, &catalog.UnknownTable{Model: string(m.Name), Table: unknown.Table})
		} else {
			result.Err = fmt.Errorf("plan %s: %w", m.Name, err)
		}

		return result
	}

	result.Plan = plan
	result.Schema = plan.Schema()

	c.Catalog.Register(string(m.Name), result.Schema)

	meta := project.QueryMetadata{
		Model:           string(m.Name),
		Project:         c.Config.Name,
		Materialization: m.Materialization,
		Target:          c.Target.Name,
		InvocationID:    c.RunID,
		Version:         c.Version,
	}

	final, err := project.AppendQueryComment(rendered, meta, time.Now())
	if err != nil {
		result.Err = fmt.Errorf("append query comment for %s: %w", m.Name, err)
		return result
	}

	result.FinalSQL = final

	return result
}

// relirSnapshot builds a relir.Catalog view of every relation
// currently registered, for lowering the next model's qualified AST.
func (c *Compiler) relirSnapshot() relir.Catalog {
	snapshot := make(relir.Catalog, len(c.Catalog.Names()))

	for _, name := range c.Catalog.Names() {
		schema, ok := c.Catalog.Lookup(name)
		if ok {
			snapshot[name] = schema
		}
	}

	return snapshot
}

// CompileAll compiles every model in graphOrder (a topological order),
// stopping a model's own pipeline on its first error but continuing on
// to the rest of the models: a planning failure in one model does not
// block siblings that don't depend on it (§5's stage-scoped error
// handling).
func (c *Compiler) CompileAll(ctx context.Context, graphOrder []string) map[string]CompiledModel {
	byName := make(map[string]project.Model, len(c.Models))
	for _, m := range c.Models {
		byName[string(m.Name)] = m
	}

	results := make(map[string]CompiledModel, len(graphOrder))

	for _, name := range graphOrder {
		m, ok := byName[name]
		if !ok {
			continue
		}

		results[name] = c.CompileModel(ctx, m)
	}

	return results
}
