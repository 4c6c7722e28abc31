package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pollbox/config"
	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
)

// QuestionHandler serves the public question surface: published questions
// with at least one choice, nothing else.
type QuestionHandler struct {
	questions *services.QuestionService
	pageSize  int
}

func NewQuestionHandler(questions *services.QuestionService, cfg *config.Config) *QuestionHandler {
	return &QuestionHandler{questions: questions, pageSize: cfg.ClientPageSize}
}

// List returns a page of visible questions. page_size=all returns the whole
// set in one page.
func (h *QuestionHandler) List(c *gin.Context) {
	page := intQuery(c, "page", 1)
	all := c.Query("page_size") == "all"

	result, err := h.questions.PublicList(c.Request.Context(), page, h.pageSize, all)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toQuestionPage(result, time.Now())))
}

// Detail returns one visible question. Unpublished questions read as 404 so
// their existence is not leaked.
func (h *QuestionHandler) Detail(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		writeInvalidRequest(c)
		return
	}

	q, err := h.questions.PublicDetail(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toQuestionDTO(q, time.Now())))
}
