package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/ctxutil"
)

// Databricks Apps forwards the authenticated user's OAuth credentials on
// every request via these headers.
const (
	headerForwardedToken = "X-Forwarded-Access-Token"
	headerForwardedEmail = "X-Forwarded-Email"
)

// ForwardedAuth captures the forwarded user identity into the request
// context. Requests without the headers pass through; read paths fall back
// to the configured PAT and write paths reject at use time.
func ForwardedAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(headerForwardedToken)
		email := c.GetHeader(headerForwardedEmail)
		if token != "" || email != "" {
			ctx := ctxutil.WithIdentity(c.Request.Context(), &ctxutil.Identity{
				Email: email,
				Token: token,
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
