package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/dediggibyte/databricks-dqx-agent/internal/config"
	"github.com/dediggibyte/databricks-dqx-agent/internal/data/db"
	"github.com/dediggibyte/databricks-dqx-agent/internal/data/repos/rules"
	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/dbctx"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
)

// SaveResult mirrors the wire payload of /api/confirm.
type SaveResult struct {
	Success   bool   `json:"success"`
	ID        string `json:"id,omitempty"`
	Version   int    `json:"version,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HistoryResult mirrors the wire payload of /api/history.
type HistoryResult struct {
	Success bool               `json:"success"`
	History []*types.RuleEvent `json:"history,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// StoreStatus reports reachability and configuration without raising.
type StoreStatus struct {
	Connected  bool   `json:"connected"`
	Configured bool   `json:"configured"`
	Host       string `json:"host,omitempty"`
	Database   string `json:"database,omitempty"`
	AuthType   string `json:"auth_type,omitempty"`
	User       string `json:"user,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RuleStoreService persists rule sets to Lakebase with per-table
// versioning. Write failures are returned in the payload, never swallowed.
type RuleStoreService interface {
	Save(ctx context.Context, tableName string, ruleSet []types.Rule, userPrompt string, aiSummary, metadata map[string]interface{}) *SaveResult
	History(ctx context.Context, tableName string, limit int) *HistoryResult
	Tables(ctx context.Context) ([]string, error)
	Status(ctx context.Context) *StoreStatus
}

type ruleStoreService struct {
	log      *logger.Logger
	cfg      *config.Config
	lakebase *db.LakebaseService
	repo     rules.RuleEventRepo
	creds    CredentialProvider
}

// NewRuleStoreService accepts a nil lakebase/repo pair; the service then
// reports unconfigured and rejects writes with the configuration error.
func NewRuleStoreService(log *logger.Logger, cfg *config.Config, lakebase *db.LakebaseService, repo rules.RuleEventRepo, creds CredentialProvider) RuleStoreService {
	return &ruleStoreService{
		log:      log.With("service", "RuleStoreService"),
		cfg:      cfg,
		lakebase: lakebase,
		repo:     repo,
		creds:    creds,
	}
}

func (s *ruleStoreService) Save(ctx context.Context, tableName string, ruleSet []types.Rule, userPrompt string, aiSummary, metadata map[string]interface{}) *SaveResult {
	if s.repo == nil {
		return &SaveResult{Success: false, Error: "Lakebase connection not configured. Set LAKEBASE_HOST"}
	}

	rulesJSON, err := json.Marshal(ruleSet)
	if err != nil {
		return &SaveResult{Success: false, Error: err.Error()}
	}
	event := &types.RuleEvent{
		Table:      tableName,
		Rules:      datatypes.JSON(rulesJSON),
		UserPrompt: userPrompt,
		CreatedBy:  s.creds.Identity(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if aiSummary != nil {
		raw, err := json.Marshal(aiSummary)
		if err != nil {
			return &SaveResult{Success: false, Error: err.Error()}
		}
		event.AISummary = datatypes.JSON(raw)
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return &SaveResult{Success: false, Error: err.Error()}
		}
		event.Metadata = datatypes.JSON(raw)
	}

	saved, err := s.repo.Save(dbctx.New(ctx), event)
	if err != nil {
		s.log.Error("saving rules failed", "table", tableName, "error", err)
		return &SaveResult{Success: false, Error: err.Error()}
	}

	s.log.Info("rules saved", "table", tableName, "version", saved.Version, "id", saved.ID.String())
	return &SaveResult{
		Success:   true,
		ID:        saved.ID.String(),
		Version:   saved.Version,
		CreatedAt: saved.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *ruleStoreService) History(ctx context.Context, tableName string, limit int) *HistoryResult {
	if s.repo == nil {
		return &HistoryResult{Success: false, Error: "Lakebase connection not configured. Set LAKEBASE_HOST"}
	}
	events, err := s.repo.History(dbctx.New(ctx), tableName, limit)
	if err != nil {
		s.log.Error("rules history failed", "table", tableName, "error", err)
		return &HistoryResult{Success: false, Error: err.Error()}
	}
	if events == nil {
		events = []*types.RuleEvent{}
	}
	return &HistoryResult{Success: true, History: events}
}

func (s *ruleStoreService) Tables(ctx context.Context) ([]string, error) {
	if s.repo == nil {
		return []string{}, nil
	}
	return s.repo.TablesWithRules(dbctx.New(ctx))
}

func (s *ruleStoreService) Status(ctx context.Context) *StoreStatus {
	if !s.cfg.IsLakebaseConfigured() {
		return &StoreStatus{
			Connected:  false,
			Configured: false,
			Message:    "Lakebase host not configured",
		}
	}
	if s.lakebase == nil {
		return &StoreStatus{
			Connected:  false,
			Configured: true,
			Message:    "Lakebase connection not initialized",
		}
	}
	if err := s.lakebase.Ping(); err != nil {
		return &StoreStatus{
			Connected:  false,
			Configured: true,
			Error:      err.Error(),
		}
	}
	return &StoreStatus{
		Connected:  true,
		Configured: true,
		Host:       s.cfg.LakebaseHost,
		Database:   s.cfg.LakebaseDatabase,
		AuthType:   "oauth",
		User:       s.creds.Identity(ctx),
	}
}
