package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
)

// ResultsHandler serves aggregated vote results.
type ResultsHandler struct {
	results *services.ResultsService
	admin   *services.AdminService
}

func NewResultsHandler(results *services.ResultsService, admin *services.AdminService) *ResultsHandler {
	return &ResultsHandler{results: results, admin: admin}
}

// Summary returns percentages and totals over the caller's visible question
// set. Admins see hidden questions too.
func (h *ResultsHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	includeHidden := false
	if _, err := h.admin.RequireAdmin(ctx); err == nil {
		includeHidden = true
	}

	summary, err := h.results.Summary(ctx, includeHidden)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(summary))
}
