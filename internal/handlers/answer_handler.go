package handlers

import (
	"net/http"

	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// AnswerHandler handles answers on questions
type AnswerHandler struct {
	posts *service.PostService
}

// NewAnswerHandler creates a new AnswerHandler
func NewAnswerHandler(posts *service.PostService) *AnswerHandler {
	return &AnswerHandler{posts: posts}
}

// RegisterAnswerRoutes registers answer-related routes
func (h *AnswerHandler) RegisterAnswerRoutes(g *echo.Group) {
	g.POST("/posts/:id/answers", h.CreateAnswer)
	g.POST("/posts/:id/answers/:answerId/helpful", h.MarkHelpful)
}

// CreateAnswer appends an answer to a post
func (h *AnswerHandler) CreateAnswer(c echo.Context) error {
	var req models.CreateAnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	answer, err := h.posts.SubmitAnswer(c.Request().Context(), middleware.Actor(c), c.Param("id"), req.Text)
	if err != nil {
		return fail("submit answer", err)
	}
	return c.JSON(http.StatusCreated, answer)
}

// MarkHelpful resolves the question with the given answer
func (h *AnswerHandler) MarkHelpful(c echo.Context) error {
	err := h.posts.MarkHelpful(c.Request().Context(), middleware.Actor(c), c.Param("id"), c.Param("answerId"))
	if err != nil {
		return fail("mark answer as helpful", err)
	}
	return c.NoContent(http.StatusNoContent)
}
