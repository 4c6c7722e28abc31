package middleware

import (
	"github.com/gin-gonic/gin"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	pollerrors "pollbox/pkg/errors"
)

// AdminMiddleware gates the admin surface. It runs after AuthMiddleware and
// checks the caller's profile on every request, so a demotion takes effect
// immediately rather than at next login.
func AdminMiddleware(service *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := service.RequireAdmin(c.Request.Context()); err != nil {
			c.JSON(pollerrors.HTTPStatus(err), httpdto.NewErrorResponse("admin access required", pollerrors.Code(err)))
			c.Abort()
			return
		}
		c.Next()
	}
}

// MainAdminMiddleware restricts admin roster management to the main admin.
func MainAdminMiddleware(service *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := service.RequireMainAdmin(c.Request.Context()); err != nil {
			c.JSON(pollerrors.HTTPStatus(err), httpdto.NewErrorResponse("main admin access required", pollerrors.Code(err)))
			c.Abort()
			return
		}
		c.Next()
	}
}
