package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pollbox/config"
	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
)

// AdminQuestionHandler serves the admin question surface: every question
// regardless of visibility, plus create, update, and delete.
type AdminQuestionHandler struct {
	questions *services.QuestionService
	pageSize  int
}

func NewAdminQuestionHandler(questions *services.QuestionService, cfg *config.Config) *AdminQuestionHandler {
	return &AdminQuestionHandler{questions: questions, pageSize: cfg.AdminPageSize}
}

// List returns every question grouped by visibility bucket: published with
// choices first, then upcoming, then the choiceless ones.
func (h *AdminQuestionHandler) List(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", h.pageSize)

	result, err := h.questions.AdminList(c.Request.Context(), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toQuestionPage(result, time.Now())))
}

func (h *AdminQuestionHandler) Detail(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		writeInvalidRequest(c)
		return
	}

	q, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toQuestionDTO(q, time.Now())))
}

func (h *AdminQuestionHandler) Create(c *gin.Context) {
	var req httpdto.QuestionUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c)
		return
	}

	q, err := h.questions.Create(c.Request.Context(), toQuestionInput(req))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(toQuestionDTO(q, time.Now())))
}

// Update replaces the question's text, publication date, and choice set.
// Choices omitted from the request are removed together with their votes.
func (h *AdminQuestionHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		writeInvalidRequest(c)
		return
	}

	var req httpdto.QuestionUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c)
		return
	}

	q, err := h.questions.Update(c.Request.Context(), id, toQuestionInput(req))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toQuestionDTO(q, time.Now())))
}

// Delete removes one question and everything hanging off it. Only the
// addressed question is touched.
func (h *AdminQuestionHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		writeInvalidRequest(c)
		return
	}

	if err := h.questions.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": id}))
}

func toQuestionInput(req httpdto.QuestionUpsertRequest) services.QuestionInput {
	in := services.QuestionInput{
		QuestionText: req.QuestionText,
		PubDate:      req.PubDate,
		Choices:      make([]services.ChoiceInput, 0, len(req.Choices)),
	}
	for _, ch := range req.Choices {
		in.Choices = append(in.Choices, services.ChoiceInput{
			ID:         ch.ID,
			ChoiceText: ch.ChoiceText,
			Votes:      ch.Votes,
		})
	}
	return in
}
