package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/dediggibyte/databricks-dqx-agent/internal/config"
	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
	"github.com/dediggibyte/databricks-dqx-agent/internal/platform/databricks"
)

// Run statuses reported to callers.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusError     = "error"
)

// RunStatus is a single observation of a job run. Polling cadence and
// give-up policy belong to the caller; a long-running run keeps reporting
// "running" here.
type RunStatus struct {
	Status  string      `json:"status"`
	State   string      `json:"state,omitempty"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// LocalGenerator produces rules in-process when no generation job is
// configured.
type LocalGenerator interface {
	Generate(tableName, userPrompt string, sample *types.TableSample) *types.GenerationResult
}

// JobService triggers generation/validation runs on the Databricks Jobs
// service and reports their state. Failed runs are never retried here; the
// caller resubmits.
type JobService interface {
	TriggerGeneration(ctx context.Context, tableName, userPrompt string, sampleLimit *int) (int64, error)
	TriggerValidation(ctx context.Context, tableName string, rules []types.Rule) (int64, error)
	Status(ctx context.Context, runID int64) *RunStatus
}

type jobService struct {
	log     *logger.Logger
	cfg     *config.Config
	dbx     databricks.Client
	local   LocalGenerator
	catalog CatalogService

	mu        sync.Mutex
	localRuns map[int64]*RunStatus
	nextLocal int64
}

func NewJobService(log *logger.Logger, cfg *config.Config, dbx databricks.Client, local LocalGenerator, catalog CatalogService) JobService {
	return &jobService{
		log:       log.With("service", "JobService"),
		cfg:       cfg,
		dbx:       dbx,
		local:     local,
		catalog:   catalog,
		localRuns: map[int64]*RunStatus{},
		nextLocal: 1,
	}
}

func (s *jobService) TriggerGeneration(ctx context.Context, tableName, userPrompt string, sampleLimit *int) (int64, error) {
	if !s.cfg.IsGenerationJobConfigured() {
		if s.local != nil {
			return s.runLocalGeneration(ctx, tableName, userPrompt, sampleLimit), nil
		}
		return 0, fmt.Errorf("DQ_GENERATION_JOB_ID not configured")
	}

	params := map[string]string{
		"table_name":  tableName,
		"user_prompt": userPrompt,
	}
	if sampleLimit != nil {
		params["sample_limit"] = strconv.Itoa(*sampleLimit)
	}
	runID, err := s.dbx.RunNow(ctx, s.cfg.GenerationJobID, params)
	if err != nil {
		return 0, err
	}
	s.log.Info("generation job triggered", "table", tableName, "run_id", runID)
	return runID, nil
}

func (s *jobService) TriggerValidation(ctx context.Context, tableName string, rules []types.Rule) (int64, error) {
	if !s.cfg.IsValidationJobConfigured() {
		return 0, fmt.Errorf("DQ_VALIDATION_JOB_ID not configured")
	}
	encoded, err := json.Marshal(rules)
	if err != nil {
		return 0, fmt.Errorf("encode rules: %w", err)
	}
	runID, err := s.dbx.RunNow(ctx, s.cfg.ValidationJobID, map[string]string{
		"table_name": tableName,
		"rules":      string(encoded),
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("validation job triggered", "table", tableName, "run_id", runID)
	return runID, nil
}

func (s *jobService) Status(ctx context.Context, runID int64) *RunStatus {
	if st := s.localRun(runID); st != nil {
		return st
	}

	run, err := s.dbx.GetRun(ctx, runID)
	if err != nil {
		return &RunStatus{Status: RunStatusError, Message: err.Error()}
	}

	switch run.State.LifeCycleState {
	case databricks.LifeCycleTerminated:
		if run.State.ResultState == databricks.ResultSuccess {
			return &RunStatus{Status: RunStatusCompleted, Result: s.runOutput(ctx, run)}
		}
		return &RunStatus{Status: RunStatusFailed, Message: run.State.StateMessage}
	case databricks.LifeCycleInternalError:
		return &RunStatus{Status: RunStatusError, Message: run.State.StateMessage}
	default:
		return &RunStatus{Status: RunStatusRunning, State: run.State.LifeCycleState}
	}
}

// runOutput extracts the notebook output of a completed run. Multi-task
// runs are walked for the first task with a non-empty result; single-task
// runs are read directly. Output that isn't valid JSON is returned as the
// raw string.
func (s *jobService) runOutput(ctx context.Context, run *databricks.Run) interface{} {
	if len(run.Tasks) > 0 {
		for _, task := range run.Tasks {
			if task.RunID == 0 {
				continue
			}
			out, err := s.dbx.GetRunOutput(ctx, task.RunID)
			if err != nil {
				s.log.Warn("task output fetch failed", "task_run_id", task.RunID, "error", err)
				continue
			}
			if out.NotebookOutput != nil && out.NotebookOutput.Result != "" {
				return decodeNotebookResult(out.NotebookOutput.Result)
			}
		}
		return nil
	}

	out, err := s.dbx.GetRunOutput(ctx, run.RunID)
	if err != nil {
		s.log.Warn("run output fetch failed", "run_id", run.RunID, "error", err)
		return nil
	}
	if out.NotebookOutput == nil || out.NotebookOutput.Result == "" {
		return nil
	}
	return decodeNotebookResult(out.NotebookOutput.Result)
}

func decodeNotebookResult(raw string) interface{} {
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	return decoded
}

// runLocalGeneration synthesizes a completed run from the in-process
// heuristic generator, so the app stays usable with no job configured.
func (s *jobService) runLocalGeneration(ctx context.Context, tableName, userPrompt string, sampleLimit *int) int64 {
	limit := s.cfg.SampleDataLimit
	if sampleLimit != nil {
		limit = *sampleLimit
	}

	var sample *types.TableSample
	if s.catalog != nil {
		sample = s.catalog.Sample(ctx, tableName, limit)
	}
	result := s.local.Generate(tableName, userPrompt, sample)

	s.mu.Lock()
	defer s.mu.Unlock()
	runID := s.nextLocal
	s.nextLocal++
	s.localRuns[runID] = &RunStatus{Status: RunStatusCompleted, Result: result}
	s.log.Info("local generation run completed", "table", tableName, "run_id", runID, "rules", len(result.Rules))
	return runID
}

func (s *jobService) localRun(runID int64) *RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localRuns[runID]
}
