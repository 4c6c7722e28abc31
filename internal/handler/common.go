// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pollbox/internal/domain/poll"
	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	pollerrors "pollbox/pkg/errors"
)

func writeError(c *gin.Context, err error) {
	c.JSON(pollerrors.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), pollerrors.Code(err)))
}

func writeInvalidRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func toQuestionDTO(q poll.Question, now time.Time) httpdto.QuestionDTO {
	dto := httpdto.QuestionDTO{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		PubDate:      q.PubDate,
		IsPublished:  q.IsPublished(now),
		Choices:      make([]httpdto.ChoiceDTO, 0, len(q.Choices)),
	}
	for _, ch := range q.Choices {
		dto.Choices = append(dto.Choices, httpdto.ChoiceDTO{
			ID:         ch.ID,
			ChoiceText: ch.ChoiceText,
			Votes:      ch.Votes,
		})
	}
	return dto
}

func toQuestionPage(page services.PagedQuestions, now time.Time) httpdto.QuestionPageResponse {
	res := httpdto.QuestionPageResponse{
		Count:      page.Count,
		Next:       page.Next,
		Previous:   page.Previous,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		PageSize:   page.PageSize,
		Results:    make([]httpdto.QuestionDTO, 0, len(page.Results)),
	}
	for _, q := range page.Results {
		res.Results = append(res.Results, toQuestionDTO(q, now))
	}
	return res
}
