package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	profiles *service.ProfileService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(profiles *service.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/profile/batches", h.GetBatches)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:uid", h.GetUser)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.profiles.Me(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return fail("load your profile", err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile saves the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.profiles.Save(c.Request().Context(), middleware.Actor(c), req)
	if err != nil {
		return fail("save your profile", err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetBatches lists the batches a profile may select
func (h *UserHandler) GetBatches(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"batches": h.profiles.Batches()})
}

// GetUser returns another user's public profile
func (h *UserHandler) GetUser(c echo.Context) error {
	profile, err := h.profiles.Public(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return fail("load the profile", err)
	}
	return c.JSON(http.StatusOK, profile)
}

// SearchUsers finds users by name, register number or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	users, err := h.profiles.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return fail("search users", err)
	}
	return c.JSON(http.StatusOK, users)
}
