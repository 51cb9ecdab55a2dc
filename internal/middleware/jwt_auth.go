package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ContextKeyClaims is where verified session claims are stored on the echo context.
const ContextKeyClaims = "user"

// accessTokenParam carries the session token for clients that cannot set
// headers, such as browser websockets.
const accessTokenParam = "access_token"

// JWTAuthMiddleware checks for a valid session JWT and stores its claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := ParseSessionToken(secret, tokenString)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Session expired, please sign in again")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if t := c.QueryParam(accessTokenParam); t != "" {
			return t, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}

// ParseSessionToken verifies an HS256 session token and returns its claims.
func ParseSessionToken(secret, tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Actor returns the authenticated caller. It is the zero Actor on routes
// that skip JWTAuthMiddleware.
func Actor(c echo.Context) models.Actor {
	claims, ok := c.Get(ContextKeyClaims).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return models.Actor{}
	}
	return claims.Actor()
}

// RecheckAdmin re-reads the admin claim from Firebase for sessions that carry
// it, so a revoked role stops working before the session JWT expires. Sessions
// without the claim pass through untouched. A nil lookup disables the check.
func RecheckAdmin(lookup AdminLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ContextKeyClaims).(*models.JwtCustomClaims)
			if lookup == nil || !ok || claims == nil || !claims.Admin {
				return next(c)
			}
			user, err := lookup.GetUser(c.Request().Context(), claims.UID)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not confirm admin access")
			}
			if user.Disabled {
				return echo.NewHTTPError(http.StatusUnauthorized, "This account has been disabled")
			}
			if admin, _ := user.CustomClaims[AdminClaim].(bool); !admin {
				downgraded := *claims
				downgraded.Admin = false
				c.Set(ContextKeyClaims, &downgraded)
			}
			return next(c)
		}
	}
}

// RequireAdmin rejects callers whose session does not carry the admin claim.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !Actor(c).IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}
