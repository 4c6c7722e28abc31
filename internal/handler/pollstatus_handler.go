package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pollbox/internal/domain/poll"
	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
)

// PollStatusHandler exposes the poll closure gate. Reading the status is
// public; flipping it is for admins and is idempotent.
type PollStatusHandler struct {
	status *services.PollStatusService
}

func NewPollStatusHandler(status *services.PollStatusService) *PollStatusHandler {
	return &PollStatusHandler{status: status}
}

func (h *PollStatusHandler) Get(c *gin.Context) {
	status, err := h.status.Status(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toPollStatusDTO(status)))
}

func (h *PollStatusHandler) Close(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := services.UserIDFromContext(ctx)

	status, err := h.status.Close(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toPollStatusDTO(status)))
}

func (h *PollStatusHandler) Reopen(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := services.UserIDFromContext(ctx)

	status, err := h.status.Reopen(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toPollStatusDTO(status)))
}

func toPollStatusDTO(status poll.PollStatus) httpdto.PollStatusResponse {
	dto := httpdto.PollStatusResponse{
		IsClosed: status.IsClosed,
		ClosedAt: status.ClosedAt,
	}
	if status.ClosedBy != nil && *status.ClosedBy != uuid.Nil {
		dto.ClosedBy = status.ClosedBy.String()
	}
	return dto
}
