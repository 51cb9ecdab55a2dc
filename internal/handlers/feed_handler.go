package handlers

import (
	"net/http"

	"github.com/anonto42/campus-p2p/backend/internal/feed"
	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed, portal and announcement reads
type FeedHandler struct {
	posts *service.PostService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(posts *service.PostService) *FeedHandler {
	return &FeedHandler{posts: posts}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/posts", h.GetFeed)
	g.GET("/posts/mine", h.GetMyPosts)
	g.GET("/settings/portals", h.GetPortals)
	g.GET("/announcements/latest", h.GetLatestAnnouncement)
}

// GetFeed returns the posts for a page, tab and search term
func (h *FeedHandler) GetFeed(c echo.Context) error {
	posts, err := h.posts.ListFeed(c.Request().Context(), middleware.Actor(c), service.FeedQuery{
		Page:   feed.Page(c.QueryParam("page")),
		Filter: c.QueryParam("filter"),
		Search: c.QueryParam("q"),
	})
	if err != nil {
		return fail("load posts", err)
	}
	return c.JSON(http.StatusOK, posts)
}

// GetMyPosts returns every post by the caller
func (h *FeedHandler) GetMyPosts(c echo.Context) error {
	posts, err := h.posts.MyPosts(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return fail("load your posts", err)
	}
	return c.JSON(http.StatusOK, posts)
}

// GetPortals returns the portal switches
func (h *FeedHandler) GetPortals(c echo.Context) error {
	portals, err := h.posts.Portals(c.Request().Context())
	if err != nil {
		return fail("load settings", err)
	}
	return c.JSON(http.StatusOK, portals)
}

// GetLatestAnnouncement returns the newest announcement, or 204 when there is none
func (h *FeedHandler) GetLatestAnnouncement(c echo.Context) error {
	a, err := h.posts.LatestAnnouncement(c.Request().Context())
	if models.IsCode(err, models.CodeNotFound) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return fail("load announcement", err)
	}
	return c.JSON(http.StatusOK, a)
}
