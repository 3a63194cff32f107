package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dediggibyte/databricks-dqx-agent/internal/http/response"
	"github.com/dediggibyte/databricks-dqx-agent/internal/services"
)

type CatalogHandler struct {
	catalog     CatalogBrowser
	sampleLimit int
}

// CatalogBrowser is the slice of services.CatalogService the handler needs.
type CatalogBrowser = services.CatalogService

func NewCatalogHandler(catalog CatalogBrowser, sampleLimit int) *CatalogHandler {
	if sampleLimit <= 0 {
		sampleLimit = 100
	}
	return &CatalogHandler{catalog: catalog, sampleLimit: sampleLimit}
}

// GET /api/catalogs
func (h *CatalogHandler) GetCatalogs(c *gin.Context) {
	response.RespondOK(c, h.catalog.Catalogs(c.Request.Context()))
}

// GET /api/schemas/:catalog
func (h *CatalogHandler) GetSchemas(c *gin.Context) {
	response.RespondOK(c, h.catalog.Schemas(c.Request.Context(), c.Param("catalog")))
}

// GET /api/tables/:catalog/:schema
func (h *CatalogHandler) GetTables(c *gin.Context) {
	response.RespondOK(c, h.catalog.Tables(c.Request.Context(), c.Param("catalog"), c.Param("schema")))
}

// GET /api/sample/:catalog/:schema/:table
func (h *CatalogHandler) GetSample(c *gin.Context) {
	fqtn := fmt.Sprintf("%s.%s.%s", c.Param("catalog"), c.Param("schema"), c.Param("table"))
	limit := h.sampleLimit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	response.RespondOK(c, h.catalog.Sample(c.Request.Context(), fqtn, limit))
}
