package analysis

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/dialectparser"
	"github.com/datastx/Feather-Flow-sub003/lineage"
	"github.com/datastx/Feather-Flow-sub003/relir"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

func intCol(name string) sqltype.TypedColumn {
	return sqltype.TypedColumn{Name: name, Type: sqltype.Integer(sqltype.Width32), Nullability: sqltype.NotNull}
}

func baseCatalog() relir.Catalog {
	return relir.Catalog{
		"orders": sqltype.NewRelationSchema(
			intCol("id"),
			intCol("customer_id"),
			sqltype.TypedColumn{Name: "amount", Type: sqltype.Decimal(10, 2), Nullability: sqltype.NotNull},
		),
		"customers": sqltype.NewRelationSchema(
			intCol("id"),
			sqltype.TypedColumn{Name: "region", Type: sqltype.String(nil), Nullability: sqltype.Nullable},
		),
	}
}

func lowerSQL(t *testing.T, sql string, catalog relir.Catalog) relir.RelOp {
	t.Helper()

	stmts, err := dialectparser.Parse(sql)
	assert.NoError(t, err)

	op, err := relir.Lower(stmts[0], catalog)
	assert.NoError(t, err)

	return op
}

func TestCrossModelConsistencyDetectsMissingAndExtra(t *testing.T) {
	plan := lowerSQL(t, "SELECT id, amount FROM orders", baseCatalog())

	ctx := &AnalysisContext{
		ModelOrder: []string{"stg_orders"},
		Plans:      map[string]relir.RelOp{"stg_orders": plan},
		DeclaredSchemas: map[string]DeclaredSchema{
			"stg_orders": {Columns: []DeclaredColumn{
				{Name: "id", Type: "integer", Nullable: false},
				{Name: "total", Type: "decimal(10,2)", Nullable: false},
			}},
		},
	}

	diags := CrossModelConsistencyPass{}.RunOnModel("stg_orders", plan, ctx)

	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}

	assert.Contains(t, codes, "AE-schema-extra")
	assert.Contains(t, codes, "AE-schema-missing")
}

func TestCrossModelConsistencyDetectsNullabilityMismatch(t *testing.T) {
	plan := lowerSQL(t, "SELECT id, region FROM customers", baseCatalog())

	ctx := &AnalysisContext{
		ModelOrder: []string{"stg_customers"},
		Plans:      map[string]relir.RelOp{"stg_customers": plan},
		DeclaredSchemas: map[string]DeclaredSchema{
			"stg_customers": {Columns: []DeclaredColumn{
				{Name: "id", Type: "integer", Nullable: false},
				{Name: "region", Type: "string", Nullable: false},
			}},
		},
	}

	diags := CrossModelConsistencyPass{}.RunOnModel("stg_customers", plan, ctx)

	var found *Diagnostic
	for i := range diags {
		if diags[i].Code == "AE-schema-nullability" {
			found = &diags[i]
		}
	}

	assert.True(t, found != nil)
	assert.Contains(t, found.Hint, "guard the SQL")
}

func TestCrossModelConsistencyNoDeclaredSchemaSkips(t *testing.T) {
	plan := lowerSQL(t, "SELECT id FROM orders", baseCatalog())
	ctx := &AnalysisContext{DeclaredSchemas: map[string]DeclaredSchema{}}

	diags := CrossModelConsistencyPass{}.RunOnModel("stg_orders", plan, ctx)
	assert.Equal(t, 0, len(diags))
}

func TestDescriptionDriftFlagsMissingDownstreamDescription(t *testing.T) {
	plan := lowerSQL(t, "SELECT id AS order_id FROM orders", baseCatalog())

	ctx := &AnalysisContext{
		DeclaredSchemas: map[string]DeclaredSchema{
			"orders": {Columns: []DeclaredColumn{{Name: "id", Description: "primary key"}}},
			"stg_orders": {Columns: []DeclaredColumn{
				{Name: "order_id", Description: ""},
			}},
		},
		Lineage: map[string][]lineage.LineageEdge{
			"stg_orders": {{TargetColumn: "order_id", SourceTable: "orders", SourceColumn: "id", Kind: lineage.KindRename}},
		},
	}

	diags := DescriptionDriftPass{}.RunOnModel("stg_orders", plan, ctx)
	assert.Equal(t, 1, len(diags))
	assert.Equal(t, "A050", diags[0].Code)
}

func TestDescriptionDriftFlagsDivergentDescription(t *testing.T) {
	plan := lowerSQL(t, "SELECT id AS order_id FROM orders", baseCatalog())

	ctx := &AnalysisContext{
		DeclaredSchemas: map[string]DeclaredSchema{
			"orders":     {Columns: []DeclaredColumn{{Name: "id", Description: "primary key"}}},
			"stg_orders": {Columns: []DeclaredColumn{{Name: "order_id", Description: "order identifier"}}},
		},
		Lineage: map[string][]lineage.LineageEdge{
			"stg_orders": {{TargetColumn: "order_id", SourceTable: "orders", SourceColumn: "id", Kind: lineage.KindRename}},
		},
	}

	diags := DescriptionDriftPass{}.RunOnModel("stg_orders", plan, ctx)
	assert.Equal(t, 1, len(diags))
	assert.Equal(t, "A051", diags[0].Code)
}

func TestDescriptionDriftInspectEdgeWarnsOnlyWhenUndocumented(t *testing.T) {
	plan := lowerSQL(t, "SELECT id FROM orders WHERE amount > 0", baseCatalog())

	ctx := &AnalysisContext{
		DeclaredSchemas: map[string]DeclaredSchema{
			"orders":     {Columns: []DeclaredColumn{{Name: "amount", Description: "order total"}}},
			"stg_orders": {Columns: []DeclaredColumn{{Name: "id", Description: ""}}},
		},
		Lineage: map[string][]lineage.LineageEdge{
			"stg_orders": {{TargetColumn: "", SourceTable: "orders", SourceColumn: "amount", Kind: lineage.KindInspect}},
		},
	}

	diags := DescriptionDriftPass{}.RunOnModel("stg_orders", plan, ctx)
	assert.Equal(t, 1, len(diags))
	assert.Equal(t, "A052", diags[0].Code)
}

func TestJoinKeyPassFlagsCartesianJoin(t *testing.T) {
	op, err := relir.Lower(mustParseOne(t, "SELECT o.id, c.id FROM orders o, customers c"), baseCatalog())
	assert.NoError(t, err)

	diags := JoinKeyPass{}.RunOnModel("m", op, &AnalysisContext{})

	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}

	assert.Contains(t, codes, "A032")
}

func TestJoinKeyPassFlagsTypeMismatch(t *testing.T) {
	catalog := baseCatalog()
	catalog["customers"] = sqltype.NewRelationSchema(
		sqltype.TypedColumn{Name: "id", Type: sqltype.String(nil), Nullability: sqltype.NotNull},
		sqltype.TypedColumn{Name: "region", Type: sqltype.String(nil), Nullability: sqltype.Nullable},
	)

	op, err := relir.Lower(mustParseOne(t, "SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id"), catalog)
	assert.NoError(t, err)

	diags := JoinKeyPass{}.RunOnModel("m", op, &AnalysisContext{})

	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}

	assert.Contains(t, codes, "A030")
}

func TestJoinKeyPassFlagsNonEquiCondition(t *testing.T) {
	op, err := relir.Lower(mustParseOne(t, "SELECT o.id FROM orders o JOIN customers c ON o.customer_id > c.id"), baseCatalog())
	assert.NoError(t, err)

	diags := JoinKeyPass{}.RunOnModel("m", op, &AnalysisContext{})

	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}

	assert.Contains(t, codes, "A033")
}

func TestJoinKeyPassCleanEquiJoinHasNoFindings(t *testing.T) {
	op, err := relir.Lower(mustParseOne(t, "SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id"), baseCatalog())
	assert.NoError(t, err)

	diags := JoinKeyPass{}.RunOnModel("m", op, &AnalysisContext{})
	assert.Equal(t, 0, len(diags))
}

func TestUnusedColumnsFlagsUnreferencedOutput(t *testing.T) {
	plan := lowerSQL(t, "SELECT id, customer_id, amount FROM orders", baseCatalog())

	ctx := &AnalysisContext{
		ModelOrder: []string{"stg_orders"},
		Dependents: map[string][]string{"stg_orders": {"fct_orders"}},
		Lineage: map[string][]lineage.LineageEdge{
			"fct_orders": {{TargetColumn: "order_id", SourceTable: "stg_orders", SourceColumn: "id", Kind: lineage.KindRename}},
		},
	}

	models := map[string]ModelEntry{"stg_orders": {Plan: plan}}

	diags := UnusedColumnsPass{}.RunOnProject(models, ctx)

	var columns []string
	for _, d := range diags {
		columns = append(columns, d.Column)
	}

	assert.Contains(t, columns, "customer_id")
	assert.Contains(t, columns, "amount")
	assert.NotContains(t, columns, "id")
}

func TestUnusedColumnsSkipsLeafModels(t *testing.T) {
	plan := lowerSQL(t, "SELECT id FROM orders", baseCatalog())
	ctx := &AnalysisContext{ModelOrder: []string{"stg_orders"}}
	models := map[string]ModelEntry{"stg_orders": {Plan: plan}}

	diags := UnusedColumnsPass{}.RunOnProject(models, ctx)
	assert.Equal(t, 0, len(diags))
}

func TestClassificationPropagationFlagsUnderclassifiedColumn(t *testing.T) {
	upstreamPlan := lowerSQL(t, "SELECT id, region FROM customers", baseCatalog())
	downstreamPlan := lowerSQL(t, "SELECT id AS customer_region_id FROM customers", baseCatalog())

	ctx := &AnalysisContext{
		ModelOrder: []string{"stg_customers", "dim_customers"},
		DeclaredSchemas: map[string]DeclaredSchema{
			"stg_customers": {Columns: []DeclaredColumn{
				{Name: "region", Classification: featherflow.ClassificationPII},
			}},
			"dim_customers": {Columns: []DeclaredColumn{
				{Name: "customer_region_id", Classification: featherflow.ClassificationPublic},
			}},
		},
		Lineage: map[string][]lineage.LineageEdge{
			"dim_customers": {{TargetColumn: "customer_region_id", SourceTable: "stg_customers", SourceColumn: "region", Kind: lineage.KindRename}},
		},
	}

	models := map[string]ModelEntry{
		"stg_customers": {Plan: upstreamPlan},
		"dim_customers": {Plan: downstreamPlan},
	}

	diags := ClassificationPropagationPass{}.RunOnProject(models, ctx)
	assert.Equal(t, 1, len(diags))
	assert.Equal(t, "A070", diags[0].Code)
	assert.Equal(t, "customer_region_id", diags[0].Column)
}

func TestClassificationPropagationNoFindingWhenDeclaredAtLeastAsHigh(t *testing.T) {
	upstreamPlan := lowerSQL(t, "SELECT id, region FROM customers", baseCatalog())
	downstreamPlan := lowerSQL(t, "SELECT id AS customer_region_id FROM customers", baseCatalog())

	ctx := &AnalysisContext{
		ModelOrder: []string{"stg_customers", "dim_customers"},
		DeclaredSchemas: map[string]DeclaredSchema{
			"stg_customers": {Columns: []DeclaredColumn{
				{Name: "region", Classification: featherflow.ClassificationPII},
			}},
			"dim_customers": {Columns: []DeclaredColumn{
				{Name: "customer_region_id", Classification: featherflow.ClassificationPII},
			}},
		},
		Lineage: map[string][]lineage.LineageEdge{
			"dim_customers": {{TargetColumn: "customer_region_id", SourceTable: "stg_customers", SourceColumn: "region", Kind: lineage.KindRename}},
		},
	}

	models := map[string]ModelEntry{
		"stg_customers": {Plan: upstreamPlan},
		"dim_customers": {Plan: downstreamPlan},
	}

	diags := ClassificationPropagationPass{}.RunOnProject(models, ctx)
	assert.Equal(t, 0, len(diags))
}

func TestManagerRunAppliesSeverityOverrides(t *testing.T) {
	plan := lowerSQL(t, "SELECT id, amount FROM orders", baseCatalog())

	ctx := &AnalysisContext{
		ModelOrder: []string{"stg_orders"},
		Plans:      map[string]relir.RelOp{"stg_orders": plan},
		DeclaredSchemas: map[string]DeclaredSchema{
			"stg_orders": {Columns: []DeclaredColumn{
				{Name: "id", Type: "integer", Nullable: false},
			}},
		},
	}

	manager := NewManager([]PlanPass{CrossModelConsistencyPass{}}, nil)
	diags := manager.Run(ctx, nil, SeverityOverrides{"AE-schema-extra": "off"})

	assert.Equal(t, 0, len(diags))
}

func TestManagerRunRespectsNameFilter(t *testing.T) {
	plan := lowerSQL(t, "SELECT id FROM orders", baseCatalog())

	ctx := &AnalysisContext{
		ModelOrder: []string{"stg_orders", "stg_customers"},
		Plans: map[string]relir.RelOp{
			"stg_orders":    plan,
			"stg_customers": plan,
		},
		DeclaredSchemas: map[string]DeclaredSchema{
			"stg_orders":    {Columns: []DeclaredColumn{{Name: "missing_col"}}},
			"stg_customers": {Columns: []DeclaredColumn{{Name: "missing_col"}}},
		},
	}

	manager := NewManager([]PlanPass{CrossModelConsistencyPass{}}, nil)
	diags := manager.Run(ctx, map[string]bool{"stg_orders": true}, nil)

	for _, d := range diags {
		assert.Equal(t, "stg_orders", d.Model)
	}

	// stg_orders yields one AE-schema-extra (id) and one
	// AE-schema-missing (missing_col).
	assert.Equal(t, 2, len(diags))
}

func mustParseOne(t *testing.T, sql string) dialectparser.Statement {
	t.Helper()

	stmts, err := dialectparser.Parse(sql)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(stmts))

	return stmts[0]
}
