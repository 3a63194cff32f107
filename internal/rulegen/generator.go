// Package rulegen generates DQX-style rule definitions from a natural
// language requirement using keyword matching. It is the in-process
// fallback for the AI-assisted generation job and mirrors its output shape.
package rulegen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
)

const (
	emailRegex = `^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`
	phoneRegex = `^\+?[0-9]{10,15}$`
)

type suggestedCheck struct {
	Function    string
	Description string
}

type Generator struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Generator {
	return &Generator{log: log.With("service", "RuleGenerator")}
}

// Generate builds a rule set for the prompt. When a table sample is
// available, detected columns are restricted to columns that actually
// exist; otherwise placeholders pass through for the user to edit.
func (g *Generator) Generate(tableName, userPrompt string, sample *types.TableSample) *types.GenerationResult {
	checks := parseRequirements(userPrompt)
	columns := extractColumns(userPrompt)

	if sample != nil && len(sample.Columns) > 0 {
		columns = matchToTableColumns(columns, sample.Columns)
	}
	if len(columns) == 0 {
		columns = []string{"column_name"}
	}

	ruleSet := []types.Rule{}
	for _, check := range checks {
		for _, column := range columns {
			ruleSet = append(ruleSet, buildRule(check.Function, column))
		}
	}
	if len(ruleSet) == 0 {
		ruleSet = append(ruleSet, buildRule("is_not_null_and_not_empty", columns[0]))
	}

	functions := make([]string, 0, len(ruleSet))
	for _, r := range ruleSet {
		functions = append(functions, r.Check.Function)
	}
	summary := fmt.Sprintf("Generated %d DQ rules: %s", len(ruleSet), strings.Join(functions, ", "))

	result := &types.GenerationResult{
		TableName:  tableName,
		UserPrompt: userPrompt,
		Summary:    summary,
		Rules:      ruleSet,
		Metadata: map[string]interface{}{
			"rules_generated": len(ruleSet),
			"generator":       "keyword_heuristic",
		},
	}
	if sample != nil {
		result.Metadata["column_count"] = len(sample.Columns)
		result.Metadata["row_count"] = sample.RowCount
		result.Metadata["columns"] = sample.Columns
		for _, col := range sample.Columns {
			result.ColumnProfiles = append(result.ColumnProfiles, types.ColumnProfile{
				Name:   col,
				Column: col,
			})
		}
	}
	if g.log != nil {
		g.log.Debug("heuristic generation", "table", tableName, "rules", len(ruleSet))
	}
	return result
}

// parseRequirements maps requirement keywords to check functions.
func parseRequirements(requirements string) []suggestedCheck {
	lower := strings.ToLower(requirements)
	var out []suggestedCheck

	if containsAny(lower, "null", "empty", "missing", "required", "mandatory") {
		out = append(out, suggestedCheck{"is_not_null_and_not_empty", "Checks for null or empty values"})
	}
	if containsAny(lower, "positive", "greater than 0", "> 0", "non-negative") {
		out = append(out, suggestedCheck{"is_greater_than", "Ensures values are positive"})
	}
	if containsAny(lower, "email", "e-mail") {
		out = append(out, suggestedCheck{"matches_regex", "Validates email format"})
	}
	if containsAny(lower, "phone", "telephone", "mobile") {
		out = append(out, suggestedCheck{"matches_regex", "Validates phone number format"})
	}
	if containsAny(lower, "date", "future", "past") {
		if strings.Contains(lower, "future") {
			out = append(out, suggestedCheck{"is_not_in_future", "Ensures dates are not in the future"})
		}
		if strings.Contains(lower, "past") {
			out = append(out, suggestedCheck{"is_not_in_past", "Ensures dates are not in the past"})
		}
	}
	if containsAny(lower, "unique", "distinct", "no duplicates", "primary key") {
		out = append(out, suggestedCheck{"is_unique", "Ensures values are unique"})
	}
	if containsAny(lower, "range", "between", "within") {
		out = append(out, suggestedCheck{"is_in_range", "Ensures values are within a specified range"})
	}
	if containsAny(lower, "list", "allowed values", "valid values", "enum") {
		out = append(out, suggestedCheck{"is_in_list", "Ensures values are in an allowed list"})
	}
	if containsAny(lower, "length", "characters", "max length", "min length") {
		out = append(out, suggestedCheck{"has_length", "Validates string length"})
	}
	return out
}

var (
	quotedColPattern    = regexp.MustCompile(`["']([a-zA-Z_][a-zA-Z0-9_]*)["']`)
	snakeCaseColPattern = regexp.MustCompile(`\b([a-z]+_[a-z_]+)\b`)
)

var commonColumnVocabulary = []struct {
	Column   string
	Patterns []string
}{
	{"email", []string{"email", "e-mail", "email_address"}},
	{"phone", []string{"phone", "telephone", "mobile", "phone_number"}},
	{"amount", []string{"amount", "price", "cost", "total", "value"}},
	{"date", []string{"date", "created_at", "updated_at", "timestamp"}},
	{"id", []string{"id", "customer_id", "user_id", "order_id"}},
	{"name", []string{"name", "first_name", "last_name", "full_name"}},
	{"status", []string{"status", "state", "type"}},
}

// extractColumns pulls likely column names out of the requirement text:
// quoted identifiers, snake_case tokens, and a small common vocabulary.
func extractColumns(requirements string) []string {
	lower := strings.ToLower(requirements)
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, m := range quotedColPattern.FindAllStringSubmatch(requirements, -1) {
		add(m[1])
	}
	for _, m := range snakeCaseColPattern.FindAllStringSubmatch(lower, -1) {
		add(m[1])
	}
	for _, entry := range commonColumnVocabulary {
		for _, pattern := range entry.Patterns {
			if strings.Contains(lower, pattern) {
				add(entry.Column)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// matchToTableColumns keeps detected names that match a real column by
// exact name or substring (so "email" binds to "email_address").
func matchToTableColumns(detected, actual []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, want := range detected {
		for _, col := range actual {
			lowerCol := strings.ToLower(col)
			if lowerCol == want || strings.Contains(lowerCol, want) {
				if !seen[col] {
					seen[col] = true
					out = append(out, col)
				}
				break
			}
		}
	}
	return out
}

func buildRule(function, column string) types.Rule {
	rule := types.Rule{
		Name:        fmt.Sprintf("%s_%s_check", function, column),
		Criticality: types.CriticalityWarn,
		Check: types.Check{
			Function:  function,
			Arguments: map[string]interface{}{"col_name": column},
		},
	}

	switch function {
	case "is_greater_than":
		rule.Check.Arguments["limit"] = 0
	case "is_in_range":
		rule.Check.Arguments["min_val"] = 0
		rule.Check.Arguments["max_val"] = 100
	case "matches_regex":
		if strings.Contains(strings.ToLower(column), "phone") {
			rule.Check.Arguments["regex"] = phoneRegex
		} else {
			rule.Check.Arguments["regex"] = emailRegex
		}
	case "is_in_list":
		rule.Check.Arguments["allowed_values"] = []string{"value1", "value2", "value3"}
	case "has_length":
		rule.Check.Arguments["min_length"] = 1
		rule.Check.Arguments["max_length"] = 255
	}
	return rule
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
