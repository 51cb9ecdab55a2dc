package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/:id/reports", h.ReportPost)
}

// CreatePost creates a new post from a multipart form with an optional image
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	in := service.CreatePostInput{Category: req.Category, Title: req.Title, Description: req.Description}

	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid image upload")
	default:
		file, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid image upload")
		}
		defer file.Close()
		in.Image = &service.ImageUpload{
			Filename:    fh.Filename,
			ContentType: contentType(fh, file),
			Size:        fh.Size,
			Reader:      file,
		}
	}

	post, err := h.posts.CreatePost(c.Request().Context(), middleware.Actor(c), in)
	if err != nil {
		return fail("create post", err)
	}
	return c.JSON(http.StatusCreated, post)
}

// contentType trusts the part header and sniffs the bytes when it is missing.
func contentType(fh *multipart.FileHeader, file multipart.File) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	head := make([]byte, 512)
	n, _ := file.Read(head)
	if _, err := file.Seek(0, 0); err != nil {
		return ""
	}
	return http.DetectContentType(head[:n])
}

// GetPost retrieves a post with its answers
func (h *PostHandler) GetPost(c echo.Context) error {
	detail, err := h.posts.GetPost(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return fail("load post", err)
	}
	return c.JSON(http.StatusOK, detail)
}

// DeletePost deletes the caller's own post
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.posts.DeletePost(c.Request().Context(), middleware.Actor(c), c.Param("id")); err != nil {
		return fail("delete post", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReportPost flags a post for review
func (h *PostHandler) ReportPost(c echo.Context) error {
	var req models.CreateReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	report, err := h.posts.SubmitReport(c.Request().Context(), middleware.Actor(c), c.Param("id"), service.ReportInput{
		Reason:  req.Reason,
		Details: req.Details,
	})
	if err != nil {
		return fail("submit report", err)
	}
	return c.JSON(http.StatusCreated, report)
}
