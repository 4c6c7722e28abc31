package middleware

import (
	"github.com/gin-gonic/gin"

	"pollbox/internal/transport/httpdto"
	pollerrors "pollbox/pkg/errors"
	"pollbox/pkg/logger"
)

// ErrorHandler is the fallback for errors attached to the gin context that
// no handler turned into a response itself.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("request error: %s", err.Error())
		}
		c.JSON(pollerrors.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), pollerrors.Code(err)))
	}
}
