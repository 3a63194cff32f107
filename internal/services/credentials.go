package services

import (
	"context"
	"fmt"

	"github.com/dediggibyte/databricks-dqx-agent/internal/config"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/ctxutil"
)

// DefaultCreatedBy is recorded when no forwarded user identity is present.
const DefaultCreatedBy = "dq-rule-generator-app"

// CredentialProvider resolves the acting identity at use time from the
// forwarded Databricks Apps headers, falling back to the configured PAT for
// local development. No shared token state, no background refresh.
type CredentialProvider interface {
	// UserToken returns the token SQL operations should run with (on-behalf-of
	// when forwarded, configured PAT otherwise).
	UserToken(ctx context.Context) (string, error)
	// Identity returns the creator identity string for persisted rows.
	Identity(ctx context.Context) string
	// HasForwardedToken reports whether the request carries a user OAuth token.
	HasForwardedToken(ctx context.Context) bool
}

type credentialProvider struct {
	cfg *config.Config
}

func NewCredentialProvider(cfg *config.Config) CredentialProvider {
	return &credentialProvider{cfg: cfg}
}

func (p *credentialProvider) UserToken(ctx context.Context) (string, error) {
	if id := ctxutil.GetIdentity(ctx); id != nil && id.Token != "" {
		return id.Token, nil
	}
	if p.cfg.DatabricksToken != "" {
		return p.cfg.DatabricksToken, nil
	}
	return "", fmt.Errorf("no OAuth token found. User must be authenticated via Databricks Apps")
}

func (p *credentialProvider) Identity(ctx context.Context) string {
	if id := ctxutil.GetIdentity(ctx); id != nil && id.Email != "" {
		return id.Email
	}
	return DefaultCreatedBy
}

func (p *credentialProvider) HasForwardedToken(ctx context.Context) bool {
	id := ctxutil.GetIdentity(ctx)
	return id != nil && id.Token != ""
}

// Token implements databricks.TokenSource so the SQL-path client can run
// on behalf of the requesting user.
func (p *credentialProvider) Token(ctx context.Context) (string, error) {
	return p.UserToken(ctx)
}
