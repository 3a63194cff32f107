package domain

// Rule is a single DQX-style check definition as exchanged between
// generation, analysis, storage and validation.
type Rule struct {
	Name        string  `json:"name"`
	Criticality string  `json:"criticality"`
	Check       Check   `json:"check"`
	Filter      *string `json:"filter"`
}

type Check struct {
	Function  string                 `json:"function"`
	Arguments map[string]interface{} `json:"arguments"`
}

const (
	CriticalityError = "error"
	CriticalityWarn  = "warn"
	CriticalityInfo  = "info"
)

// Column returns the column the check targets, from arguments.col_name or
// the first entry of arguments.col_names.
func (r Rule) Column() string {
	if r.Check.Arguments == nil {
		return ""
	}
	if v, ok := r.Check.Arguments["col_name"].(string); ok {
		return v
	}
	if names, ok := r.Check.Arguments["col_names"].([]interface{}); ok && len(names) > 0 {
		if v, ok := names[0].(string); ok {
			return v
		}
	}
	return ""
}

// TableSample is a preview of table rows with column metadata.
type TableSample struct {
	Columns  []string                 `json:"columns"`
	Rows     []map[string]interface{} `json:"rows"`
	RowCount int                      `json:"row_count"`
	Error    string                   `json:"error,omitempty"`
}

// GenerationResult is the payload a completed generation run returns.
type GenerationResult struct {
	TableName      string                 `json:"table_name"`
	UserPrompt     string                 `json:"user_prompt"`
	Summary        string                 `json:"summary"`
	Rules          []Rule                 `json:"rules"`
	ColumnProfiles []ColumnProfile        `json:"column_profiles"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// ColumnProfile is the simplified per-column profile surfaced to the UI.
// The profiler output shape varies across DQX versions, so every field
// beyond the column name is optional.
type ColumnProfile struct {
	Name        string                 `json:"name"`
	Column      string                 `json:"column"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}
