package db

import (
	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
)

// AutoMigrateAll ensures the rule event table and its indexes exist.
// Idempotent, safe to run on every startup.
func (s *LakebaseService) AutoMigrateAll() error {
	return s.db.AutoMigrate(
		&types.RuleEvent{},
	)
}
