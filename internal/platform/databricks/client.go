package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/httpx"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
	"github.com/dediggibyte/databricks-dqx-agent/internal/platform/envutil"
)

// TokenSource supplies a bearer token at call time. Resolving the token per
// request keeps forwarded user credentials fresh without any background
// refresh loop.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource wraps a configured PAT.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("no Databricks token configured")
	}
	return string(s), nil
}

// Client is the Databricks REST API surface the backend uses: the Jobs API
// for triggering and observing runs, and the SQL Statement Execution API
// for warehouse queries.
type Client interface {
	RunNow(ctx context.Context, jobID int64, params map[string]string) (int64, error)
	GetRun(ctx context.Context, runID int64) (*Run, error)
	GetRunOutput(ctx context.Context, runID int64) (*RunOutput, error)
	ExecuteStatement(ctx context.Context, warehouseID string, statement string) (*StatementResult, error)
}

type client struct {
	log    *logger.Logger
	host   string
	tokens TokenSource

	httpClient *http.Client
	maxRetries int

	statementPollInterval time.Duration
	statementMaxWait      time.Duration
}

type Option func(*client)

// WithStatementPolling overrides the statement poll cadence; used by tests.
func WithStatementPolling(interval, maxWait time.Duration) Option {
	return func(c *client) {
		c.statementPollInterval = interval
		c.statementMaxWait = maxWait
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *client) { c.httpClient = h }
}

func NewClient(log *logger.Logger, host string, tokens TokenSource, opts ...Option) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("missing Databricks host")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	host = strings.TrimRight(host, "/")
	if tokens == nil {
		return nil, fmt.Errorf("token source required")
	}

	timeoutSec := envutil.Int("DATABRICKS_TIMEOUT_SECONDS", 60)
	maxRetries := envutil.Int("DATABRICKS_MAX_RETRIES", 3)

	c := &client{
		log:                   log.With("service", "DatabricksClient"),
		host:                  host,
		tokens:                tokens,
		httpClient:            &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:            maxRetries,
		statementPollInterval: 2 * time.Second,
		statementMaxWait:      120 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type apiError struct {
	Status  int
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("databricks api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("databricks api error %d: %s", e.Status, e.Message)
}

func (e *apiError) HTTPStatusCode() int { return e.Status }

// doJSON issues a request with bearer auth, decoding the response into out.
// Retryable statuses are retried with jittered backoff.
func (c *client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(httpx.JitterSleep(time.Duration(attempt) * time.Second)):
			}
		}

		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if httpx.IsRetryableError(err) {
				continue
			}
			return err
		}

		raw, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := &apiError{Status: resp.StatusCode}
			_ = json.Unmarshal(raw, apiErr)
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(string(raw))
			}
			lastErr = apiErr
			if httpx.IsRetryableHTTPStatus(resp.StatusCode) {
				continue
			}
			return apiErr
		}

		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}
