package analysis

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// SeverityOverrides maps a diagnostic code or pass-name prefix to the
// severity it should be rewritten to. "off" removes the diagnostic
// entirely; anything else replaces its severity.
type SeverityOverrides map[string]string

// Manager runs a fixed set of per-model and project-wide passes and
// applies severity overrides to the collected diagnostics.
type Manager struct {
	planPasses    []PlanPass
	dagPlanPasses []DagPlanPass
}

// NewManager builds a Manager from the given passes.
func NewManager(planPasses []PlanPass, dagPlanPasses []DagPlanPass) *Manager {
	return &Manager{planPasses: planPasses, dagPlanPasses: dagPlanPasses}
}

// Run executes every registered pass over ctx, restricting per-model
// passes to the (optional) nameFilter set, then applies overrides. A nil
// or empty nameFilter runs every model in ctx.ModelOrder.
func (m *Manager) Run(ctx *AnalysisContext, nameFilter map[string]bool, overrides SeverityOverrides) []Diagnostic {
	var diagnostics []Diagnostic

	models := make(map[string]ModelEntry, len(ctx.ModelOrder))

	for _, name := range ctx.ModelOrder {
		if nameFilter != nil && len(nameFilter) > 0 && !nameFilter[name] {
			continue
		}

		plan, ok := ctx.Plans[name]
		if !ok {
			continue
		}

		var modelDiags []Diagnostic

		for _, pass := range m.planPasses {
			found := pass.RunOnModel(name, plan, ctx)
			for i := range found {
				found[i].PassName = pass.Name()
				found[i].Model = name
			}

			modelDiags = append(modelDiags, found...)
		}

		diagnostics = append(diagnostics, modelDiags...)
		models[name] = ModelEntry{Plan: plan, Mismatches: modelDiags}
	}

	for _, pass := range m.dagPlanPasses {
		found := pass.RunOnProject(models, ctx)
		for i := range found {
			found[i].PassName = pass.Name()
		}

		diagnostics = append(diagnostics, found...)
	}

	return applyOverrides(diagnostics, overrides)
}

func applyOverrides(diagnostics []Diagnostic, overrides SeverityOverrides) []Diagnostic {
	if len(overrides) == 0 {
		return diagnostics
	}

	out := make([]Diagnostic, 0, len(diagnostics))

	for _, d := range diagnostics {
		override, ok := lookupOverride(overrides, d)
		if ok {
			if override == "off" {
				continue
			}

			d.Severity = featherflow.Severity(override)
		}

		out = append(out, d)
	}

	return out
}

func lookupOverride(overrides SeverityOverrides, d Diagnostic) (string, bool) {
	if v, ok := overrides[d.Code]; ok {
		return v, true
	}

	if v, ok := overrides[d.PassName]; ok {
		return v, true
	}

	for key, v := range overrides {
		if strings.HasSuffix(key, "*") && strings.HasPrefix(d.Code, strings.TrimSuffix(key, "*")) {
			return v, true
		}
	}

	return "", false
}
