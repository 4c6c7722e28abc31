package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	pollerrors "pollbox/pkg/errors"
)

// VoteHandler handles vote submission and retrieval.
type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Submit replaces the caller's entire vote set with the submitted selections.
// An empty or omitted votes map clears every vote the caller holds.
func (h *VoteHandler) Submit(c *gin.Context) {
	var req httpdto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c)
		return
	}

	ctx := c.Request.Context()
	userID, _ := services.UserIDFromContext(ctx)

	if err := h.votes.Submit(ctx, userID, req.Votes); err != nil {
		writeError(c, err)
		return
	}

	votes := req.Votes
	if votes == nil {
		votes = map[uint]uint{}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.VoteResponse{Votes: votes}))
}

// Mine returns the caller's current selections.
func (h *VoteHandler) Mine(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := services.UserIDFromContext(ctx)
	if !ok || userID == uuid.Nil {
		writeError(c, pollerrors.ErrUnauthorized)
		return
	}

	votes, err := h.votes.UserVotes(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.VoteResponse{Votes: votes}))
}
