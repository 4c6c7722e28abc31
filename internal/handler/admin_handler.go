package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
)

// AdminHandler serves admin statistics and roster management.
type AdminHandler struct {
	admin *services.AdminService
}

func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(stats))
}

func (h *AdminHandler) ListAdmins(c *gin.Context) {
	admins, err := h.admin.ListAdmins(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(admins))
}

func (h *AdminHandler) GrantAdmin(c *gin.Context) {
	var req httpdto.AdminEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c)
		return
	}

	info, err := h.admin.GrantAdmin(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(info))
}

func (h *AdminHandler) RevokeAdmin(c *gin.Context) {
	var req httpdto.AdminEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c)
		return
	}

	info, err := h.admin.RevokeAdmin(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(info))
}
