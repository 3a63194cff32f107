package config

import (
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
	"github.com/dediggibyte/databricks-dqx-agent/internal/platform/envutil"
)

// Config holds the environment-driven settings, read once at startup.
type Config struct {
	Port string

	// Databricks jobs
	GenerationJobID int64
	ValidationJobID int64

	// SQL warehouse
	SQLWarehouseID string

	// Sample data
	SampleDataLimit int

	// Lakebase (PostgreSQL)
	LakebaseHost     string
	LakebaseDatabase string
	LakebasePort     int
	LakebaseUser     string
	LakebasePassword string
	LakebaseSSLMode  string

	// AI model serving
	ModelServingEndpoint string

	// Databricks workspace
	DatabricksHost  string
	DatabricksToken string

	// Optional listing cache
	RedisAddr string
}

func Load(log *logger.Logger) *Config {
	cfg := &Config{
		Port:                 envutil.String("PORT", "8080"),
		GenerationJobID:      int64(envutil.Int("DQ_GENERATION_JOB_ID", 0)),
		ValidationJobID:      int64(envutil.Int("DQ_VALIDATION_JOB_ID", 0)),
		SQLWarehouseID:       envutil.String("SQL_WAREHOUSE_ID", ""),
		SampleDataLimit:      envutil.Int("SAMPLE_DATA_LIMIT", 100),
		LakebaseHost:         envutil.String("LAKEBASE_HOST", ""),
		LakebaseDatabase:     envutil.String("LAKEBASE_DATABASE", "databricks_postgres"),
		LakebasePort:         envutil.Int("LAKEBASE_PORT", 5432),
		LakebaseUser:         envutil.String("LAKEBASE_USER", ""),
		LakebasePassword:     envutil.String("LAKEBASE_PASSWORD", ""),
		LakebaseSSLMode:      envutil.String("LAKEBASE_SSLMODE", "require"),
		ModelServingEndpoint: envutil.String("MODEL_SERVING_ENDPOINT", "databricks-claude-sonnet-4-5"),
		DatabricksHost:       envutil.String("DATABRICKS_HOST", ""),
		DatabricksToken:      envutil.String("DATABRICKS_TOKEN", ""),
		RedisAddr:            envutil.String("REDIS_ADDR", ""),
	}

	if log != nil {
		if cfg.GenerationJobID == 0 {
			log.Warn("DQ_GENERATION_JOB_ID not set, rule generation falls back to the local heuristic")
		}
		if cfg.LakebaseHost == "" {
			log.Warn("LAKEBASE_HOST not set, rule persistence disabled")
		}
	}
	return cfg
}

func (c *Config) IsLakebaseConfigured() bool {
	return c.LakebaseHost != ""
}

func (c *Config) IsGenerationJobConfigured() bool {
	return c.GenerationJobID != 0
}

func (c *Config) IsValidationJobConfigured() bool {
	return c.ValidationJobID != 0
}
