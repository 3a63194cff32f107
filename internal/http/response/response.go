package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondError emits the flat error payload the UI consumes; the message
// is displayed verbatim.
func RespondError(c *gin.Context, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

func RespondErrorMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
