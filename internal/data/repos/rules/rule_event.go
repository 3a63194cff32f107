package rules

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/dbctx"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
)

type RuleEventRepo interface {
	// Save assigns the next version for the event's table, deactivates the
	// previously active version and inserts the new row, all inside one
	// transaction serialized per table.
	Save(dbc dbctx.Context, event *types.RuleEvent) (*types.RuleEvent, error)
	History(dbc dbctx.Context, tableName string, limit int) ([]*types.RuleEvent, error)
	Active(dbc dbctx.Context, tableName string) (*types.RuleEvent, error)
	NextVersion(dbc dbctx.Context, tableName string) (int, error)
	TablesWithRules(dbc dbctx.Context) ([]string, error)
}

type ruleEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleEventRepo(db *gorm.DB, baseLog *logger.Logger) RuleEventRepo {
	return &ruleEventRepo{
		db:  db,
		log: baseLog.With("repo", "RuleEventRepo"),
	}
}

func (r *ruleEventRepo) Save(dbc dbctx.Context, event *types.RuleEvent) (*types.RuleEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	err := transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent saves for the same table so the computed
		// version and the single-active-row invariant hold.
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, event.Table).Error; err != nil {
			return err
		}

		var next int
		if err := tx.Raw(
			`SELECT COALESCE(MAX(version), 0) + 1 FROM dq_rule_events WHERE table_name = ?`,
			event.Table,
		).Scan(&next).Error; err != nil {
			return err
		}

		if err := tx.Model(&types.RuleEvent{}).
			Where("table_name = ? AND is_active = ?", event.Table, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		event.Version = next
		event.IsActive = true
		return tx.Create(event).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("version conflict for table %s: %w", event.Table, err)
		}
		return nil, err
	}
	return event, nil
}

func (r *ruleEventRepo) History(dbc dbctx.Context, tableName string, limit int) ([]*types.RuleEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var out []*types.RuleEvent
	if err := transaction.WithContext(dbc.Ctx).
		Where("table_name = ?", tableName).
		Order("version DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ruleEventRepo) Active(dbc dbctx.Context, tableName string) (*types.RuleEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var event types.RuleEvent
	err := transaction.WithContext(dbc.Ctx).
		Where("table_name = ? AND is_active = ?", tableName, true).
		Order("version DESC").
		Limit(1).
		Find(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == uuid.Nil {
		return nil, nil
	}
	return &event, nil
}

func (r *ruleEventRepo) NextVersion(dbc dbctx.Context, tableName string) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var next int
	if err := transaction.WithContext(dbc.Ctx).Raw(
		`SELECT COALESCE(MAX(version), 0) + 1 FROM dq_rule_events WHERE table_name = ?`,
		tableName,
	).Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *ruleEventRepo) TablesWithRules(dbc dbctx.Context) ([]string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var names []string
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.RuleEvent{}).
		Distinct("table_name").
		Order("table_name").
		Pluck("table_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
