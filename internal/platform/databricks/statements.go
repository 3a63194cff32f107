package databricks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Statement execution states.
const (
	statementSucceeded = "SUCCEEDED"
	statementFailed    = "FAILED"
	statementCanceled  = "CANCELED"
	statementClosed    = "CLOSED"
)

// StatementResult holds the completed result of a warehouse query.
type StatementResult struct {
	Columns []string
	Rows    [][]interface{}
}

type statementRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Statement   string `json:"statement"`
	WaitTimeout string `json:"wait_timeout"`
}

type statementResponse struct {
	StatementID string           `json:"statement_id"`
	Status      *statementStatus `json:"status,omitempty"`
	Manifest    *manifest        `json:"manifest,omitempty"`
	Result      *resultData      `json:"result,omitempty"`
}

type statementStatus struct {
	State string          `json:"state"`
	Error *statementError `json:"error,omitempty"`
}

type statementError struct {
	Message string `json:"message"`
}

type manifest struct {
	Schema *schema `json:"schema,omitempty"`
}

type schema struct {
	Columns []column `json:"columns"`
}

type column struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type resultData struct {
	DataArray [][]interface{} `json:"data_array"`
}

// ExecuteStatement submits a statement asynchronously and polls until it
// reaches a terminal state, up to the configured cap. Exceeding the cap is
// a timeout error.
func (c *client) ExecuteStatement(ctx context.Context, warehouseID string, statement string) (*StatementResult, error) {
	if warehouseID == "" {
		return nil, fmt.Errorf("SQL_WAREHOUSE_ID not configured")
	}

	var resp statementResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/2.0/sql/statements/", statementRequest{
		WarehouseID: warehouseID,
		Statement:   statement,
		WaitTimeout: "0s",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.StatementID == "" {
		return nil, fmt.Errorf("statement submission returned no statement_id")
	}

	deadline := time.Now().Add(c.statementMaxWait)
	for {
		state := ""
		if resp.Status != nil {
			state = resp.Status.State
		}
		switch state {
		case statementSucceeded:
			return decodeStatementResult(&resp), nil
		case statementFailed, statementCanceled, statementClosed:
			msg := "Unknown error"
			if resp.Status.Error != nil && resp.Status.Error.Message != "" {
				msg = resp.Status.Error.Message
			}
			return nil, fmt.Errorf("query failed: %s", msg)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("statement timed out after %s", c.statementMaxWait)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.statementPollInterval):
		}

		path := "/api/2.0/sql/statements/" + url.PathEscape(resp.StatementID)
		resp = statementResponse{StatementID: resp.StatementID}
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
	}
}

func decodeStatementResult(resp *statementResponse) *StatementResult {
	out := &StatementResult{}
	if resp.Manifest != nil && resp.Manifest.Schema != nil {
		for _, col := range resp.Manifest.Schema.Columns {
			out.Columns = append(out.Columns, col.Name)
		}
	}
	if resp.Result != nil {
		out.Rows = resp.Result.DataArray
	}
	return out
}
