package db

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/dediggibyte/databricks-dqx-agent/internal/config"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
)

// LakebaseService owns the connection pool to the Lakebase Postgres
// instance backing rule storage.
type LakebaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLakebaseService(cfg *config.Config, logg *logger.Logger) (*LakebaseService, error) {
	serviceLog := logg.With("service", "LakebaseService")

	if cfg.LakebaseHost == "" {
		return nil, fmt.Errorf("Lakebase connection not configured. Set LAKEBASE_HOST")
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.LakebaseHost,
		cfg.LakebasePort,
		cfg.LakebaseDatabase,
		cfg.LakebaseUser,
		cfg.LakebasePassword,
		cfg.LakebaseSSLMode,
	)

	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Lakebase: %w", err)
	}

	return &LakebaseService{db: gdb, log: serviceLog}, nil
}

func (s *LakebaseService) DB() *gorm.DB { return s.db }

// Ping reports reachability without raising; used by the status endpoint.
func (s *LakebaseService) Ping() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("lakebase not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
