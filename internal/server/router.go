package server

import (
	"github.com/gin-gonic/gin"

	"github.com/dediggibyte/databricks-dqx-agent/internal/http/handlers"
	"github.com/dediggibyte/databricks-dqx-agent/internal/http/middleware"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	HealthHandler   *handlers.HealthHandler
	CatalogHandler  *handlers.CatalogHandler
	RulesHandler    *handlers.RulesHandler
	LakebaseHandler *handlers.LakebaseHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.ForwardedAuth())

	router.GET("/health", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		// Unity Catalog browsing
		api.GET("/catalogs", cfg.CatalogHandler.GetCatalogs)
		api.GET("/schemas/:catalog", cfg.CatalogHandler.GetSchemas)
		api.GET("/tables/:catalog/:schema", cfg.CatalogHandler.GetTables)
		api.GET("/sample/:catalog/:schema/:table", cfg.CatalogHandler.GetSample)

		// Rule generation and review
		api.POST("/generate", cfg.RulesHandler.Generate)
		api.GET("/status/:run_id", cfg.RulesHandler.GetStatus)
		api.POST("/analyze", cfg.RulesHandler.Analyze)
		api.POST("/confirm", cfg.RulesHandler.Confirm)
		api.GET("/history/:table_name", cfg.RulesHandler.GetHistory)

		// Rule validation
		api.POST("/validate", cfg.RulesHandler.Validate)
		api.GET("/validate/status/:run_id", cfg.RulesHandler.GetValidationStatus)

		// Rule store
		api.GET("/lakebase/status", cfg.LakebaseHandler.GetStatus)
		api.GET("/lakebase/tables", cfg.LakebaseHandler.GetTables)
	}

	return router
}
