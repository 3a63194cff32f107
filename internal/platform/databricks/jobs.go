package databricks

import (
	"context"
	"fmt"
	"net/http"
)

// Run lifecycle states reported by the Jobs API.
const (
	LifeCycleTerminated    = "TERMINATED"
	LifeCycleInternalError = "INTERNAL_ERROR"
	ResultSuccess          = "SUCCESS"
)

type Run struct {
	RunID int64     `json:"run_id"`
	State RunState  `json:"state"`
	Tasks []RunTask `json:"tasks,omitempty"`
}

type RunState struct {
	LifeCycleState string `json:"life_cycle_state"`
	ResultState    string `json:"result_state,omitempty"`
	StateMessage   string `json:"state_message,omitempty"`
}

type RunTask struct {
	RunID   int64  `json:"run_id"`
	TaskKey string `json:"task_key,omitempty"`
}

type RunOutput struct {
	NotebookOutput *NotebookOutput `json:"notebook_output,omitempty"`
	Error          string          `json:"error,omitempty"`
}

type NotebookOutput struct {
	Result    string `json:"result"`
	Truncated bool   `json:"truncated,omitempty"`
}

type runNowRequest struct {
	JobID         int64             `json:"job_id"`
	JobParameters map[string]string `json:"job_parameters,omitempty"`
}

type runNowResponse struct {
	RunID int64 `json:"run_id"`
}

// RunNow submits a job run and returns its run ID. The run executes
// out-of-process; completion is observed via GetRun.
func (c *client) RunNow(ctx context.Context, jobID int64, params map[string]string) (int64, error) {
	var resp runNowResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/2.1/jobs/run-now", runNowRequest{
		JobID:         jobID,
		JobParameters: params,
	}, &resp)
	if err != nil {
		return 0, err
	}
	if resp.RunID == 0 {
		return 0, fmt.Errorf("run-now returned no run_id for job %d", jobID)
	}
	return resp.RunID, nil
}

func (c *client) GetRun(ctx context.Context, runID int64) (*Run, error) {
	var run Run
	path := fmt.Sprintf("/api/2.1/jobs/runs/get?run_id=%d", runID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *client) GetRunOutput(ctx context.Context, runID int64) (*RunOutput, error) {
	var out RunOutput
	path := fmt.Sprintf("/api/2.1/jobs/runs/get-output?run_id=%d", runID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
