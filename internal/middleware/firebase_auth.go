package middleware

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// AdminClaim is the custom claim that grants moderation rights.
const AdminClaim = "admin"

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AdminLookup reads a user's current custom claims. *auth.Client satisfies it.
type AdminLookup interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// FirebaseAuth is the part of *auth.Client the server routes use.
type FirebaseAuth interface {
	TokenVerifier
	AdminLookup
}

// VerifyFirebaseToken verifies an ID token and returns the identity it
// proves. Failures come back as UNAUTHORIZED errors with a readable message.
func VerifyFirebaseToken(ctx context.Context, verifier TokenVerifier, idToken string) (models.Actor, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return models.Actor{}, models.NewUnauthorizedError("Missing ID token")
	}
	token, err := verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return models.Actor{}, &models.AppError{Code: models.CodeUnauthorized, Message: FirebaseErrorMessage(err), Err: err}
	}

	actor := models.Actor{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		actor.Email = strings.ToLower(email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		actor.Name = name
	}
	if admin, ok := token.Claims[AdminClaim].(bool); ok {
		actor.IsAdmin = admin
	}
	if actor.Email == "" {
		return models.Actor{}, models.NewUnauthorizedError("Your account has no email address")
	}
	return actor, nil
}

// FirebaseErrorMessage maps a token verification failure to a message a student can act on.
func FirebaseErrorMessage(err error) string {
	switch {
	case auth.IsIDTokenExpired(err):
		return "Your sign-in has expired, please sign in again"
	case auth.IsIDTokenRevoked(err):
		return "Your session was revoked, please sign in again"
	case auth.IsUserDisabled(err):
		return "This account has been disabled"
	case auth.IsIDTokenInvalid(err):
		return "Invalid sign-in token"
	default:
		return "Could not verify your sign-in"
	}
}

// InstitutionEmail reports whether email belongs to domain or one of its subdomains.
func InstitutionEmail(email, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
	at := strings.LastIndex(email, "@")
	if domain == "" || at < 0 {
		return false
	}
	host := strings.ToLower(email[at+1:])
	return host == domain || strings.HasSuffix(host, "."+domain)
}
