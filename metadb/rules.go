package metadb

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Rule is one discovered rule file: a SQL query plus header metadata.
type Rule struct {
	Name        string
	Path        string
	Severity    string
	Description string
	SQL         string
}

// DiscoverRules walks dir for .sql files, parses their `-- rule: name`,
// `-- severity: error|warn|warning`, `-- description: ...` header lines,
// and returns them sorted by name. A file with no `-- rule:` header
// takes its base filename (without extension) as the rule name; a file
// with no `-- severity:` header takes defaultSeverity.
func DiscoverRules(dir, defaultSeverity string) ([]Rule, error) {
	var rules []Rule

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read rules directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		rule, err := parseRuleFile(path, defaultSeverity)
		if err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })

	return rules, nil
}

func parseRuleFile(path, defaultSeverity string) (Rule, error) {
	file, err := os.Open(path)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to open rule file %s: %w", path, err)
	}
	defer file.Close()

	base := filepath.Base(path)
	rule := Rule{
		Name:     strings.TrimSuffix(base, filepath.Ext(base)),
		Path:     path,
		Severity: normalizeSeverity(defaultSeverity),
	}

	var (
		bodyLines   []string
		sawNonEmpty bool
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !sawNonEmpty && strings.HasPrefix(trimmed, "--") {
			header := strings.TrimSpace(strings.TrimPrefix(trimmed, "--"))

			if value, ok := splitHeader(header, "rule:"); ok {
				rule.Name = value
				continue
			}

			if value, ok := splitHeader(header, "severity:"); ok {
				rule.Severity = normalizeSeverity(value)
				continue
			}

			if value, ok := splitHeader(header, "description:"); ok {
				rule.Description = value
				continue
			}

			continue
		}

		if trimmed != "" {
			sawNonEmpty = true
		}

		bodyLines = append(bodyLines, line)
	}

	if err := scanner.Err(); err != nil {
		return Rule{}, fmt.Errorf("failed to scan rule file %s: %w", path, err)
	}

	rule.SQL = strings.TrimSpace(strings.Join(bodyLines, "\n"))

	return rule, nil
}

func splitHeader(header, prefix string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(header), prefix) {
		return "", false
	}

	return strings.TrimSpace(header[len(prefix):]), true
}

func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "warning":
		return "warning"
	case "error":
		return "error"
	case "":
		return "warning"
	default:
		return strings.ToLower(strings.TrimSpace(s))
	}
}

// RuleViolation is one row returned by a rule's SQL, ready to insert
// into rule_violations.
type RuleViolation struct {
	RuleName    string
	RulePath    string
	Severity    string
	EntityName  string
	Message     string
	ContextJSON string
}

// RunRule executes rule's SQL against db and returns one RuleViolation
// per returned row. The message column (or a violation column, or the
// first non-null value) becomes the message; an optional
// entity_name/model_name column becomes the subject; every other
// returned column lands in a JSON context field. A SQL error is
// returned wrapped with the rule name (a rule-level error, not a
// violation).
func RunRule(ctx context.Context, db *sql.DB, rule Rule) ([]RuleViolation, error) {
	rows, err := db.QueryContext(ctx, rule.SQL)
	if err != nil {
		return nil, fmt.Errorf("rule %s failed: %w", rule.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("rule %s: failed to read columns: %w", rule.Name, err)
	}

	var violations []RuleViolation

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("rule %s: failed to scan row: %w", rule.Name, err)
		}

		violations = append(violations, buildViolation(rule, columns, values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rule %s: row iteration failed: %w", rule.Name, err)
	}

	return violations, nil
}

func buildViolation(rule Rule, columns []string, values []any) RuleViolation {
	byName := make(map[string]any, len(columns))
	for i, col := range columns {
		byName[strings.ToLower(col)] = values[i]
	}

	violation := RuleViolation{RuleName: rule.Name, RulePath: rule.Path, Severity: rule.Severity}

	if m, ok := stringValue(byName["message"]); ok {
		violation.Message = m
	} else if v, ok := stringValue(byName["violation"]); ok {
		violation.Message = v
	} else {
		for _, col := range columns {
			if s, ok := stringValue(byName[strings.ToLower(col)]); ok {
				violation.Message = s
				break
			}
		}
	}

	if e, ok := stringValue(byName["entity_name"]); ok {
		violation.EntityName = e
	} else if e, ok := stringValue(byName["model_name"]); ok {
		violation.EntityName = e
	}

	context := make(map[string]any)

	for _, col := range columns {
		lower := strings.ToLower(col)
		if lower == "message" || lower == "violation" || lower == "entity_name" || lower == "model_name" {
			continue
		}

		context[col] = byName[lower]
	}

	if len(context) > 0 {
		if data, err := json.Marshal(context); err == nil {
			violation.ContextJSON = string(data)
		}
	}

	return violation
}

func stringValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// InsertRuleViolation writes one rule evaluation result into
// rule_violations for the given run.
func InsertRuleViolation(ctx context.Context, db *sql.DB, runID int64, v RuleViolation) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO rule_violations (run_id, rule_name, rule_path, severity, entity_name, message, context_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, v.RuleName, v.RulePath, v.Severity, v.EntityName, v.Message, v.ContextJSON)
	if err != nil {
		return fmt.Errorf("failed to insert rule violation for %s: %w", v.RuleName, err)
	}

	return nil
}
