package handlers

import (
	"fmt"
	"net/http"

	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// AdminHandler serves the moderation console
type AdminHandler struct {
	moderation *service.ModerationService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(moderation *service.ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

// RegisterAdminRoutes registers moderation routes. The group must require the admin claim.
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/dashboard", h.GetDashboard)
	g.POST("/posts/:id/deny", h.DenyReport)
	g.POST("/posts/:id/hide", h.HidePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.DELETE("/posts", h.DeleteAllPosts)
	g.GET("/flagged-users", h.GetFlaggedUsers)
	g.GET("/flagged-users/export", h.ExportFlaggedUsers)
	g.PUT("/settings/portals", h.UpdatePortals)
	g.POST("/announcements", h.PostAnnouncement)
	g.POST("/reconcile", h.Reconcile)
}

// GetDashboard returns stats, the review queue and the leaderboard
func (h *AdminHandler) GetDashboard(c echo.Context) error {
	d, err := h.moderation.Dashboard(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return fail("load dashboard", err)
	}
	return c.JSON(http.StatusOK, d)
}

// DenyReport dismisses a post's reports
func (h *AdminHandler) DenyReport(c echo.Context) error {
	removed, err := h.moderation.DenyReport(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return fail("deny report", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reports_removed": removed})
}

// HidePost hides a post from the feed
func (h *AdminHandler) HidePost(c echo.Context) error {
	if err := h.moderation.HidePost(c.Request().Context(), middleware.Actor(c), c.Param("id")); err != nil {
		return fail("hide post", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeletePost deletes any post
func (h *AdminHandler) DeletePost(c echo.Context) error {
	removed, err := h.moderation.DeletePost(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return fail("delete post", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reports_removed": removed})
}

// DeleteAllPosts wipes every post. The caller must confirm with ?confirm=true.
func (h *AdminHandler) DeleteAllPosts(c echo.Context) error {
	if c.QueryParam("confirm") != "true" {
		return fail("delete all posts", models.NewValidationError("Confirmation required"))
	}
	n, err := h.moderation.DeleteAllPosts(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return fail("delete all posts", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts_removed": n})
}

// GetFlaggedUsers returns the flagged-user leaderboard
func (h *AdminHandler) GetFlaggedUsers(c echo.Context) error {
	view, err := h.moderation.FlaggedUsers(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return fail("load flagged users", err)
	}
	return c.JSON(http.StatusOK, view)
}

// ExportFlaggedUsers downloads the leaderboard as PDF or XLSX
func (h *AdminHandler) ExportFlaggedUsers(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = "pdf"
	}
	res, err := h.moderation.ExportFlaggedUsers(c.Request().Context(), middleware.Actor(c), format)
	if err != nil {
		return fail("export report", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return c.Blob(http.StatusOK, res.MimeType, res.Data)
}

// UpdatePortals switches portals on or off
func (h *AdminHandler) UpdatePortals(c echo.Context) error {
	var req models.UpdatePortalsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	portals, err := h.moderation.UpdatePortals(c.Request().Context(), middleware.Actor(c), req)
	if err != nil {
		return fail("update settings", err)
	}
	return c.JSON(http.StatusOK, portals)
}

// PostAnnouncement publishes an announcement
func (h *AdminHandler) PostAnnouncement(c echo.Context) error {
	var req models.CreateAnnouncementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	a, err := h.moderation.PostAnnouncement(c.Request().Context(), middleware.Actor(c), req.Text)
	if err != nil {
		return fail("post announcement", err)
	}
	return c.JSON(http.StatusCreated, a)
}

// Reconcile sweeps orphaned reports now
func (h *AdminHandler) Reconcile(c echo.Context) error {
	n, err := h.moderation.Reconcile(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return fail("reconcile reports", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reports_removed": n})
}
