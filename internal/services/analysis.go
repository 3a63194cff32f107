package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
	"github.com/dediggibyte/databricks-dqx-agent/internal/platform/databricks"
)

// AnalysisResult mirrors the wire payload of /api/analyze.
type AnalysisResult struct {
	Success  bool                   `json:"success"`
	Analysis map[string]interface{} `json:"analysis,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// AnalysisService asks the model-serving endpoint (via ai_query on a SQL
// warehouse) for a structured critique of a rule set.
type AnalysisService interface {
	Analyze(ctx context.Context, rules []types.Rule, tableName, userPrompt string) *AnalysisResult
}

type analysisService struct {
	log         *logger.Logger
	dbx         databricks.Client
	warehouseID string
	endpoint    string
}

func NewAnalysisService(log *logger.Logger, dbx databricks.Client, warehouseID, endpoint string) AnalysisService {
	return &analysisService{
		log:         log.With("service", "AnalysisService"),
		dbx:         dbx,
		warehouseID: warehouseID,
		endpoint:    endpoint,
	}
}

func (s *analysisService) Analyze(ctx context.Context, rules []types.Rule, tableName, userPrompt string) *AnalysisResult {
	if s.warehouseID == "" {
		return &AnalysisResult{Success: false, Error: "No SQL warehouse available"}
	}

	prompt, err := buildAnalysisPrompt(rules, tableName, userPrompt)
	if err != nil {
		return &AnalysisResult{Success: false, Error: err.Error()}
	}

	stmt := fmt.Sprintf(
		"SELECT ai_query('%s', '%s') as analysis",
		sqlEscape(s.endpoint),
		sqlEscape(prompt),
	)

	result, err := s.dbx.ExecuteStatement(ctx, s.warehouseID, stmt)
	if err != nil {
		s.log.Warn("ai analysis failed", "table", tableName, "error", err)
		return &AnalysisResult{Success: false, Error: err.Error()}
	}

	if len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return &AnalysisResult{Success: false, Error: "No response from ai_query"}
	}
	content, _ := result.Rows[0][0].(string)
	if content == "" {
		return &AnalysisResult{Success: false, Error: "No response from ai_query"}
	}

	if analysis, ok := extractJSONObject(content); ok {
		return &AnalysisResult{Success: true, Analysis: analysis}
	}
	// Unparseable model output degrades to a raw passthrough, not a failure.
	return &AnalysisResult{Success: true, Analysis: map[string]interface{}{
		"summary":      content,
		"raw_response": true,
	}}
}

func buildAnalysisPrompt(rules []types.Rule, tableName, userPrompt string) (string, error) {
	rulesJSON, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode rules: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a Data Quality expert. Analyze the following DQ rules generated for table '%s'.\n\n", tableName)
	fmt.Fprintf(&b, "User's original requirement: %s\n\n", userPrompt)
	fmt.Fprintf(&b, "Generated DQ Rules:\n%s\n\n", string(rulesJSON))
	b.WriteString(`Analyze each rule and provide a JSON response with this EXACT structure:
{
    "summary": "2-3 sentence summary of what these rules check",
    "rule_analysis": [
        {
            "rule_function": "the check function name from the rule (e.g., is_not_null, is_in_range)",
            "column": "the column name this rule applies to (from arguments.col_name or arguments.col_names)",
            "explanation": "what this rule checks",
            "importance": "why this rule is important for data quality",
            "criticality": "error or warn"
        }
    ],
    "coverage_assessment": "how well do these rules cover the user's requirements",
    "recommendations": ["additional rule suggestion 1", "additional rule suggestion 2"],
    "overall_quality_score": 8
}

IMPORTANT: For each rule in rule_analysis, extract the rule_function from check.function and the column from check.arguments.col_name or check.arguments.col_names[0]. Return ONLY valid JSON.`)
	return b.String(), nil
}

func sqlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

// extractJSONObject finds the first balanced {...} object in text and
// decodes it. String literals and escapes are respected while scanning.
func extractJSONObject(text string) (map[string]interface{}, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				var out map[string]interface{}
				if err := json.Unmarshal([]byte(text[start:i+1]), &out); err != nil {
					return nil, false
				}
				return out, true
			}
		}
	}
	return nil, false
}
