package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dediggibyte/databricks-dqx-agent/internal/http/response"
	"github.com/dediggibyte/databricks-dqx-agent/internal/services"
)

type LakebaseHandler struct {
	store services.RuleStoreService
}

func NewLakebaseHandler(store services.RuleStoreService) *LakebaseHandler {
	return &LakebaseHandler{store: store}
}

// GET /api/lakebase/status
func (h *LakebaseHandler) GetStatus(c *gin.Context) {
	response.RespondOK(c, h.store.Status(c.Request.Context()))
}

// GET /api/lakebase/tables
func (h *LakebaseHandler) GetTables(c *gin.Context) {
	tables, err := h.store.Tables(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	response.RespondOK(c, gin.H{"success": true, "tables": tables})
}
