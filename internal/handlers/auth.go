package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// AuthConfig holds the session settings.
type AuthConfig struct {
	JWTSecret         string
	SessionTTL        time.Duration
	InstitutionDomain string
}

// AuthHandler exchanges Firebase ID tokens for session JWTs
type AuthHandler struct {
	verifier middleware.TokenVerifier
	profiles *service.ProfileService
	cfg      AuthConfig
	now      func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(verifier middleware.TokenVerifier, profiles *service.ProfileService, cfg AuthConfig) *AuthHandler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 72 * time.Hour
	}
	return &AuthHandler{verifier: verifier, profiles: profiles, cfg: cfg, now: time.Now}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/session", h.CreateSession)
}

// SessionRequest defines the request body for signing in
type SessionRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// SessionResponse is returned on a successful sign-in.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// CreateSession verifies the Firebase ID token and issues a session JWT
func (h *AuthHandler) CreateSession(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	actor, err := middleware.VerifyFirebaseToken(ctx, h.verifier, req.IDToken)
	if err != nil {
		return fail("sign in", err)
	}
	if !middleware.InstitutionEmail(actor.Email, h.cfg.InstitutionDomain) {
		return fail("sign in", models.NewPermissionDeniedError("Please sign in with your @"+h.cfg.InstitutionDomain+" email"))
	}

	if err := h.profiles.Ensure(ctx, actor); err != nil {
		return fail("sign in", err)
	}
	user, err := h.profiles.Me(ctx, actor)
	if err != nil {
		return fail("sign in", err)
	}

	token, expires, err := h.generateJWT(actor)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	observability.LogServiceCall(ctx, "AuthHandler", "CreateSession", map[string]interface{}{
		"uid": actor.UID, "admin": actor.IsAdmin,
	})
	return c.JSON(http.StatusOK, SessionResponse{Token: token, ExpiresAt: expires, User: user})
}

// generateJWT signs a session token for the verified identity
func (h *AuthHandler) generateJWT(actor models.Actor) (string, time.Time, error) {
	now := h.now()
	expires := now.Add(h.cfg.SessionTTL)
	claims := &models.JwtCustomClaims{
		UID:   actor.UID,
		Email: actor.Email,
		Name:  actor.Name,
		Admin: actor.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return t, expires, nil
}
