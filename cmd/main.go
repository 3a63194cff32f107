package main

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dediggibyte/databricks-dqx-agent/internal/config"
	"github.com/dediggibyte/databricks-dqx-agent/internal/data/db"
	"github.com/dediggibyte/databricks-dqx-agent/internal/data/repos/rules"
	"github.com/dediggibyte/databricks-dqx-agent/internal/http/handlers"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
	"github.com/dediggibyte/databricks-dqx-agent/internal/platform/databricks"
	"github.com/dediggibyte/databricks-dqx-agent/internal/rulegen"
	"github.com/dediggibyte/databricks-dqx-agent/internal/server"
	"github.com/dediggibyte/databricks-dqx-agent/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading configuration...")
	cfg := config.Load(log)

	// Credentials
	creds := services.NewCredentialProvider(cfg)

	// Databricks clients: SQL runs on behalf of the forwarded user, job
	// operations use the app's own token.
	var sqlClient, jobsClient databricks.Client
	if cfg.DatabricksHost != "" {
		sqlClient, err = databricks.NewClient(log, cfg.DatabricksHost, creds.(databricks.TokenSource))
		if err != nil {
			log.Error("Could not init Databricks SQL client", "error", err)
			os.Exit(1)
		}
		jobsClient, err = databricks.NewClient(log, cfg.DatabricksHost, databricks.StaticTokenSource(cfg.DatabricksToken))
		if err != nil {
			log.Error("Could not init Databricks jobs client", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("DATABRICKS_HOST not set, catalog browsing and job triggers will fail")
		sqlClient = databricks.Unconfigured()
		jobsClient = sqlClient
	}

	// Lakebase
	var lakebase *db.LakebaseService
	var ruleRepo rules.RuleEventRepo
	if cfg.IsLakebaseConfigured() {
		lakebase, err = db.NewLakebaseService(cfg, log)
		if err != nil {
			log.Warn("Lakebase init failed", "error", err)
		} else {
			if err := lakebase.AutoMigrateAll(); err != nil {
				log.Warn("Lakebase auto migration failed", "error", err)
			}
			ruleRepo = rules.NewRuleEventRepo(lakebase.DB(), log)
		}
	}

	// Optional listing cache
	var cache *goredis.Client
	if cfg.RedisAddr != "" {
		cache = goredis.NewClient(&goredis.Options{
			Addr:        cfg.RedisAddr,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cache.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unreachable, listing cache disabled", "error", err)
			_ = cache.Close()
			cache = nil
		}
		cancel()
	}

	// Services
	log.Info("Setting up services...")
	catalogService := services.NewCatalogService(log, sqlClient, cfg.SQLWarehouseID, cache)
	generator := rulegen.New(log)
	jobService := services.NewJobService(log, cfg, jobsClient, generator, catalogService)
	analysisService := services.NewAnalysisService(log, sqlClient, cfg.SQLWarehouseID, cfg.ModelServingEndpoint)
	ruleStoreService := services.NewRuleStoreService(log, cfg, lakebase, ruleRepo, creds)

	// Handlers
	log.Info("Setting up handlers...")
	healthHandler := handlers.NewHealthHandler()
	catalogHandler := handlers.NewCatalogHandler(catalogService, cfg.SampleDataLimit)
	rulesHandler := handlers.NewRulesHandler(jobService, analysisService, ruleStoreService)
	lakebaseHandler := handlers.NewLakebaseHandler(ruleStoreService)

	// Router
	log.Info("Setting up router...")
	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		HealthHandler:   healthHandler,
		CatalogHandler:  catalogHandler,
		RulesHandler:    rulesHandler,
		LakebaseHandler: lakebaseHandler,
	})

	log.Info("Server listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
