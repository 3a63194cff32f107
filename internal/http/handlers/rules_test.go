package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubJobService struct {
	triggerGeneration func(tableName, userPrompt string, sampleLimit *int) (int64, error)
	triggerValidation func(tableName string, rules []types.Rule) (int64, error)
	status            func(runID int64) *services.RunStatus
}

func (s *stubJobService) TriggerGeneration(_ context.Context, tableName, userPrompt string, sampleLimit *int) (int64, error) {
	return s.triggerGeneration(tableName, userPrompt, sampleLimit)
}

func (s *stubJobService) TriggerValidation(_ context.Context, tableName string, rules []types.Rule) (int64, error) {
	return s.triggerValidation(tableName, rules)
}

func (s *stubJobService) Status(_ context.Context, runID int64) *services.RunStatus {
	return s.status(runID)
}

type stubAnalysisService struct {
	analyze func(rules []types.Rule, tableName, userPrompt string) *services.AnalysisResult
}

func (s *stubAnalysisService) Analyze(_ context.Context, rules []types.Rule, tableName, userPrompt string) *services.AnalysisResult {
	return s.analyze(rules, tableName, userPrompt)
}

type stubRuleStore struct {
	save    func(tableName string, rules []types.Rule, userPrompt string, aiSummary, metadata map[string]interface{}) *services.SaveResult
	history func(tableName string, limit int) *services.HistoryResult
	tables  func() ([]string, error)
	status  func() *services.StoreStatus
}

func (s *stubRuleStore) Save(_ context.Context, tableName string, rules []types.Rule, userPrompt string, aiSummary, metadata map[string]interface{}) *services.SaveResult {
	return s.save(tableName, rules, userPrompt, aiSummary, metadata)
}

func (s *stubRuleStore) History(_ context.Context, tableName string, limit int) *services.HistoryResult {
	return s.history(tableName, limit)
}

func (s *stubRuleStore) Tables(_ context.Context) ([]string, error) {
	return s.tables()
}

func (s *stubRuleStore) Status(_ context.Context) *services.StoreStatus {
	return s.status()
}

func newRulesRouter(h *RulesHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/generate", h.Generate)
	r.GET("/api/status/:run_id", h.GetStatus)
	r.POST("/api/analyze", h.Analyze)
	r.POST("/api/confirm", h.Confirm)
	r.GET("/api/history/:table_name", h.GetHistory)
	r.POST("/api/validate", h.Validate)
	r.GET("/api/validate/status/:run_id", h.GetValidationStatus)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func testRules() []types.Rule {
	return []types.Rule{{
		Name:        "email_is_not_null",
		Criticality: types.CriticalityError,
		Check:       types.Check{Function: "is_not_null_and_not_empty", Arguments: map[string]interface{}{"col_name": "email"}},
	}}
}

func TestGenerateMissingFields(t *testing.T) {
	h := NewRulesHandler(&stubJobService{}, nil, nil)
	r := newRulesRouter(h)

	w := postJSON(t, r, "/api/generate", gin.H{"table_name": "main.sales.customers"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "Missing table_name or user_prompt" {
		t.Fatalf("body: %v", body)
	}
}

func TestGenerateReturnsRunID(t *testing.T) {
	jobs := &stubJobService{
		triggerGeneration: func(tableName, userPrompt string, sampleLimit *int) (int64, error) {
			if tableName != "main.sales.customers" || userPrompt != "no null emails" {
				t.Errorf("args: %q %q", tableName, userPrompt)
			}
			if sampleLimit == nil || *sampleLimit != 25 {
				t.Errorf("sample_limit: %v", sampleLimit)
			}
			return 42, nil
		},
	}
	r := newRulesRouter(NewRulesHandler(jobs, nil, nil))

	w := postJSON(t, r, "/api/generate", gin.H{
		"table_name":   "main.sales.customers",
		"user_prompt":  "no null emails",
		"sample_limit": 25,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["run_id"] != float64(42) {
		t.Fatalf("body: %v", body)
	}
}

func TestGenerateTriggerErrorIsPayload(t *testing.T) {
	jobs := &stubJobService{
		triggerGeneration: func(string, string, *int) (int64, error) {
			return 0, fmt.Errorf("DQ_GENERATION_JOB_ID not configured")
		},
	}
	r := newRulesRouter(NewRulesHandler(jobs, nil, nil))

	w := postJSON(t, r, "/api/generate", gin.H{"table_name": "t", "user_prompt": "p"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "DQ_GENERATION_JOB_ID not configured" {
		t.Fatalf("body: %v", body)
	}
}

func TestGetStatusInvalidRunID(t *testing.T) {
	h := NewRulesHandler(&stubJobService{}, nil, nil)
	r := newRulesRouter(h)

	w := getJSON(t, r, "/api/status/not-a-number")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestGetStatusPassesThrough(t *testing.T) {
	jobs := &stubJobService{
		status: func(runID int64) *services.RunStatus {
			if runID != 42 {
				t.Errorf("run_id: got %d", runID)
			}
			return &services.RunStatus{Status: services.RunStatusRunning, State: "RUNNING"}
		},
	}
	r := newRulesRouter(NewRulesHandler(jobs, nil, nil))

	w := getJSON(t, r, "/api/status/42")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "running" {
		t.Fatalf("body: %v", body)
	}
}

func TestAnalyzeNoRules(t *testing.T) {
	r := newRulesRouter(NewRulesHandler(nil, &stubAnalysisService{}, nil))

	w := postJSON(t, r, "/api/analyze", gin.H{"table_name": "t", "rules": []types.Rule{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != false || body["error"] != "No rules provided" {
		t.Fatalf("body: %v", body)
	}
}

func TestAnalyzeReturnsResult(t *testing.T) {
	analysis := &stubAnalysisService{
		analyze: func(rules []types.Rule, tableName, userPrompt string) *services.AnalysisResult {
			return &services.AnalysisResult{Success: true, Analysis: map[string]interface{}{"summary": "fine"}}
		},
	}
	r := newRulesRouter(NewRulesHandler(nil, analysis, nil))

	w := postJSON(t, r, "/api/analyze", gin.H{"table_name": "t", "user_prompt": "p", "rules": testRules()})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Fatalf("body: %v", body)
	}
}

func TestConfirmValidation(t *testing.T) {
	r := newRulesRouter(NewRulesHandler(nil, nil, &stubRuleStore{}))

	w := postJSON(t, r, "/api/confirm", gin.H{"table_name": "t"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "No rules provided" {
		t.Fatalf("body: %v", body)
	}

	w = postJSON(t, r, "/api/confirm", gin.H{"rules": testRules()})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "No table name provided" {
		t.Fatalf("body: %v", body)
	}
}

func TestConfirmSaves(t *testing.T) {
	store := &stubRuleStore{
		save: func(tableName string, rules []types.Rule, userPrompt string, aiSummary, metadata map[string]interface{}) *services.SaveResult {
			if tableName != "main.sales.customers" || len(rules) != 1 {
				t.Errorf("args: %q %d rules", tableName, len(rules))
			}
			if aiSummary["summary"] != "fine" {
				t.Errorf("ai_summary: %v", aiSummary)
			}
			return &services.SaveResult{Success: true, ID: "abc", Version: 2, CreatedAt: "2026-08-30T00:00:00Z"}
		},
	}
	r := newRulesRouter(NewRulesHandler(nil, nil, store))

	w := postJSON(t, r, "/api/confirm", gin.H{
		"table_name":  "main.sales.customers",
		"user_prompt": "p",
		"rules":       testRules(),
		"ai_summary":  gin.H{"summary": "fine"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != true || body["version"] != float64(2) {
		t.Fatalf("body: %v", body)
	}
}

func TestGetHistoryLimit(t *testing.T) {
	store := &stubRuleStore{
		history: func(tableName string, limit int) *services.HistoryResult {
			if tableName != "main.sales.customers" {
				t.Errorf("table: %q", tableName)
			}
			if limit != 5 {
				t.Errorf("limit: %d", limit)
			}
			return &services.HistoryResult{Success: true, History: []*types.RuleEvent{}}
		},
	}
	r := newRulesRouter(NewRulesHandler(nil, nil, store))

	w := getJSON(t, r, "/api/history/main.sales.customers?limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestGetHistoryDefaultLimit(t *testing.T) {
	store := &stubRuleStore{
		history: func(_ string, limit int) *services.HistoryResult {
			if limit != 10 {
				t.Errorf("limit: %d", limit)
			}
			return &services.HistoryResult{Success: true}
		},
	}
	r := newRulesRouter(NewRulesHandler(nil, nil, store))

	if w := getJSON(t, r, "/api/history/t"); w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestValidateValidation(t *testing.T) {
	r := newRulesRouter(NewRulesHandler(&stubJobService{}, nil, nil))

	w := postJSON(t, r, "/api/validate", gin.H{"rules": testRules()})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "Missing table_name" {
		t.Fatalf("body: %v", body)
	}

	w = postJSON(t, r, "/api/validate", gin.H{"table_name": "t"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "Missing rules" {
		t.Fatalf("body: %v", body)
	}
}

func TestValidateReturnsRunID(t *testing.T) {
	jobs := &stubJobService{
		triggerValidation: func(tableName string, rules []types.Rule) (int64, error) {
			return 77, nil
		},
	}
	r := newRulesRouter(NewRulesHandler(jobs, nil, nil))

	w := postJSON(t, r, "/api/validate", gin.H{"table_name": "t", "rules": testRules()})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if body := decodeBody(t, w); body["run_id"] != float64(77) {
		t.Fatalf("body: %v", body)
	}
}

func TestValidationStatusSharesStatusRoute(t *testing.T) {
	jobs := &stubJobService{
		status: func(int64) *services.RunStatus {
			return &services.RunStatus{Status: services.RunStatusCompleted}
		},
	}
	r := newRulesRouter(NewRulesHandler(jobs, nil, nil))

	w := getJSON(t, r, "/api/validate/status/9")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "completed" {
		t.Fatalf("body: %v", body)
	}
}

func TestLakebaseTables(t *testing.T) {
	store := &stubRuleStore{
		tables: func() ([]string, error) {
			return []string{"main.sales.customers"}, nil
		},
	}
	h := NewLakebaseHandler(store)
	r := gin.New()
	r.GET("/api/lakebase/tables", h.GetTables)

	w := getJSON(t, r, "/api/lakebase/tables")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Fatalf("body: %v", body)
	}
	tables, _ := body["tables"].([]interface{})
	if len(tables) != 1 || tables[0] != "main.sales.customers" {
		t.Fatalf("tables: %v", tables)
	}
}

func TestLakebaseStatus(t *testing.T) {
	store := &stubRuleStore{
		status: func() *services.StoreStatus {
			return &services.StoreStatus{Connected: false, Configured: false, Message: "Lakebase host not configured"}
		},
	}
	h := NewLakebaseHandler(store)
	r := gin.New()
	r.GET("/api/lakebase/status", h.GetStatus)

	w := getJSON(t, r, "/api/lakebase/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["configured"] != false {
		t.Fatalf("body: %v", body)
	}
}
