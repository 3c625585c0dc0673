package errors

import (
	"github.com/gin-gonic/gin"
)

// Respond writes the success envelope.
func Respond(c *gin.Context, status int, message string, body any) {
	c.JSON(status, gin.H{
		"message": message,
		"body":    body,
	})
}

// Fail writes the failure envelope for err and aborts the chain. The cause is attached to
// the gin context so the access log can report it.
func Fail(c *gin.Context, message string, err error) {
	appErr := As(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Code, gin.H{
		"message":   message,
		"errorMsg":  appErr.Error(),
		"errorKind": appErr.Kind,
	})
}
