package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	pollerrors "pollbox/pkg/errors"
	"pollbox/pkg/logger"
)

// AuthMiddleware rejects requests without a valid bearer token and a live
// session behind it.
func AuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, sessionID, ok := authenticate(c, service)
		if !ok {
			// Unauthenticated reads as 403 to match the original API contract.
			c.JSON(pollerrors.HTTPStatus(pollerrors.ErrUnauthorized), httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}
		attachIdentity(c, userID, sessionID)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves identity when a valid token is present but
// lets anonymous requests through untouched.
func OptionalAuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, sessionID, ok := authenticate(c, service); ok {
			attachIdentity(c, userID, sessionID)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, service *services.AuthService) (uuid.UUID, uuid.UUID, bool) {
	claims, err := service.ParseAccessToken(extractBearer(c))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}

	if _, err := service.ValidateSession(c.Request.Context(), sessionID, userID); err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

func attachIdentity(c *gin.Context, userID, sessionID uuid.UUID) {
	ctx := services.WithUserSessionContext(c.Request.Context(), userID, sessionID)
	ctx = context.WithValue(ctx, logger.UserIdKey, userID.String())
	c.Request = c.Request.WithContext(ctx)
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
