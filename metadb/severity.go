package metadb

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// EvaluateSeverityExpr compiles and runs expr (a CEL expression over
// `violation_count` and `rule_name` that evaluates to a string) and
// returns that string normalized as a severity; a result of any other
// type is an error. Used by the rules engine to
// let a project escalate a rule's severity based on how many rows it
// matched, instead of a single static severity.
func EvaluateSeverityExpr(expr string, ruleName string, violationCount int) (string, error) {
	env, err := cel.NewEnv(
		cel.Variable("violation_count", cel.IntType),
		cel.Variable("rule_name", cel.StringType),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create severity CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return "", fmt.Errorf("failed to compile severity expression %q: %w", expr, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return "", fmt.Errorf("failed to build severity program for %q: %w", expr, err)
	}

	out, _, err := program.Eval(map[string]any{
		"violation_count": int64(violationCount),
		"rule_name":       ruleName,
	})
	if err != nil {
		return "", fmt.Errorf("severity expression %q failed: %w", expr, err)
	}

	result, ok := out.Value().(string)
	if !ok {
		return "", fmt.Errorf("severity expression %q did not evaluate to a string", expr)
	}

	return normalizeSeverity(result), nil
}
