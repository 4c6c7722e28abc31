package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	pollerrors "pollbox/pkg/errors"
)

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	auth  *services.AuthService
	admin *services.AdminService
	votes *services.VoteService
}

func NewAuthHandler(auth *services.AuthService, admin *services.AdminService, votes *services.VoteService) *AuthHandler {
	return &AuthHandler{auth: auth, admin: admin, votes: votes}
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req httpdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c)
		return
	}

	res, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(res))
}

// Login handles user authentication.
func (h *AuthHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}

// Logout revokes the calling session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, ok := services.SessionIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, pollerrors.ErrUnauthorized)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"logged_out": true}))
}

// Me returns the calling user's identity, admin standing, and whether they
// hold any votes.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	u, err := h.auth.Me(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	hasVoted, err := h.votes.HasVoted(ctx, u.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MeResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		Name:     u.Name,
		IsAdmin:  h.admin.IsAdmin(u),
		HasVoted: hasVoted,
	}))
}
