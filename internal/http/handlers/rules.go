package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/http/response"
	"github.com/dediggibyte/databricks-dqx-agent/internal/services"
)

type RulesHandler struct {
	jobs     services.JobService
	analysis services.AnalysisService
	store    services.RuleStoreService
}

func NewRulesHandler(jobs services.JobService, analysis services.AnalysisService, store services.RuleStoreService) *RulesHandler {
	return &RulesHandler{jobs: jobs, analysis: analysis, store: store}
}

type generateRequest struct {
	TableName   string `json:"table_name"`
	UserPrompt  string `json:"user_prompt"`
	SampleLimit *int   `json:"sample_limit,omitempty"`
}

// POST /api/generate
func (h *RulesHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorMessage(c, http.StatusBadRequest, "Missing table_name or user_prompt")
		return
	}
	if req.TableName == "" || req.UserPrompt == "" {
		response.RespondErrorMessage(c, http.StatusBadRequest, "Missing table_name or user_prompt")
		return
	}

	runID, err := h.jobs.TriggerGeneration(c.Request.Context(), req.TableName, req.UserPrompt, req.SampleLimit)
	if err != nil {
		response.RespondError(c, http.StatusOK, err)
		return
	}
	response.RespondOK(c, gin.H{"run_id": runID})
}

// GET /api/status/:run_id
func (h *RulesHandler) GetStatus(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("run_id"), 10, 64)
	if err != nil {
		response.RespondErrorMessage(c, http.StatusBadRequest, "Invalid run_id")
		return
	}
	response.RespondOK(c, h.jobs.Status(c.Request.Context(), runID))
}

type analyzeRequest struct {
	Rules      []types.Rule `json:"rules"`
	TableName  string       `json:"table_name"`
	UserPrompt string       `json:"user_prompt"`
}

// POST /api/analyze
func (h *RulesHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Rules) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No rules provided"})
		return
	}
	response.RespondOK(c, h.analysis.Analyze(c.Request.Context(), req.Rules, req.TableName, req.UserPrompt))
}

type confirmRequest struct {
	Rules      []types.Rule           `json:"rules"`
	TableName  string                 `json:"table_name"`
	UserPrompt string                 `json:"user_prompt"`
	AISummary  map[string]interface{} `json:"ai_summary,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// POST /api/confirm
func (h *RulesHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Rules) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No rules provided"})
		return
	}
	if req.TableName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No table name provided"})
		return
	}
	response.RespondOK(c, h.store.Save(c.Request.Context(), req.TableName, req.Rules, req.UserPrompt, req.AISummary, req.Metadata))
}

// GET /api/history/:table_name
func (h *RulesHandler) GetHistory(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	response.RespondOK(c, h.store.History(c.Request.Context(), c.Param("table_name"), limit))
}

type validateRequest struct {
	TableName string       `json:"table_name"`
	Rules     []types.Rule `json:"rules"`
}

// POST /api/validate
func (h *RulesHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TableName == "" {
		response.RespondErrorMessage(c, http.StatusBadRequest, "Missing table_name")
		return
	}
	if len(req.Rules) == 0 {
		response.RespondErrorMessage(c, http.StatusBadRequest, "Missing rules")
		return
	}

	runID, err := h.jobs.TriggerValidation(c.Request.Context(), req.TableName, req.Rules)
	if err != nil {
		response.RespondError(c, http.StatusOK, err)
		return
	}
	response.RespondOK(c, gin.H{"run_id": runID})
}

// GET /api/validate/status/:run_id
func (h *RulesHandler) GetValidationStatus(c *gin.Context) {
	h.GetStatus(c)
}
