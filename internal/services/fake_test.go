package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
	"github.com/dediggibyte/databricks-dqx-agent/internal/platform/databricks"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// fakeDatabricks scripts the Databricks client surface for service tests.
type fakeDatabricks struct {
	runNow       func(jobID int64, params map[string]string) (int64, error)
	getRun       func(runID int64) (*databricks.Run, error)
	getRunOutput func(runID int64) (*databricks.RunOutput, error)
	execute      func(warehouseID, statement string) (*databricks.StatementResult, error)

	statements []string
}

func (f *fakeDatabricks) RunNow(_ context.Context, jobID int64, params map[string]string) (int64, error) {
	if f.runNow == nil {
		return 0, fmt.Errorf("unexpected RunNow")
	}
	return f.runNow(jobID, params)
}

func (f *fakeDatabricks) GetRun(_ context.Context, runID int64) (*databricks.Run, error) {
	if f.getRun == nil {
		return nil, fmt.Errorf("unexpected GetRun")
	}
	return f.getRun(runID)
}

func (f *fakeDatabricks) GetRunOutput(_ context.Context, runID int64) (*databricks.RunOutput, error) {
	if f.getRunOutput == nil {
		return nil, fmt.Errorf("unexpected GetRunOutput")
	}
	return f.getRunOutput(runID)
}

func (f *fakeDatabricks) ExecuteStatement(_ context.Context, warehouseID, statement string) (*databricks.StatementResult, error) {
	f.statements = append(f.statements, statement)
	if f.execute == nil {
		return nil, fmt.Errorf("unexpected ExecuteStatement")
	}
	return f.execute(warehouseID, statement)
}
