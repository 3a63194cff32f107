package databricks

import (
	"context"
	"fmt"
)

// Unconfigured returns a Client whose calls fail with a configuration
// error. Used when DATABRICKS_HOST is absent so the app still starts and
// read paths degrade per their own fallback rules.
func Unconfigured() Client {
	return unconfigured{}
}

type unconfigured struct{}

func (unconfigured) err() error {
	return fmt.Errorf("DATABRICKS_HOST not configured")
}

func (u unconfigured) RunNow(context.Context, int64, map[string]string) (int64, error) {
	return 0, u.err()
}

func (u unconfigured) GetRun(context.Context, int64) (*Run, error) {
	return nil, u.err()
}

func (u unconfigured) GetRunOutput(context.Context, int64) (*RunOutput, error) {
	return nil, u.err()
}

func (u unconfigured) ExecuteStatement(context.Context, string, string) (*StatementResult, error) {
	return nil, u.err()
}
