package service

import (
	"context"
	"strings"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
)

// ProfileService manages student profiles.
type ProfileService struct {
	users   repositories.UserRepository
	batches []string
}

// NewProfileService creates a new ProfileService
func NewProfileService(users repositories.UserRepository, batches []string) *ProfileService {
	return &ProfileService{users: users, batches: batches}
}

// Batches returns the selectable batches.
func (s *ProfileService) Batches() []string {
	return s.batches
}

// Ensure creates the caller's profile row on first sign-in.
func (s *ProfileService) Ensure(ctx context.Context, actor models.Actor) error {
	if err := s.users.EnsureUser(ctx, actor.UID, actor.Email); err != nil {
		return failed(ctx, "ProfileService", "Ensure", err)
	}
	return nil
}

// Me returns the caller's full profile, including private fields.
func (s *ProfileService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := s.users.GetUserByUID(ctx, actor.UID)
	if models.IsCode(err, models.CodeNotFound) {
		return &models.User{UID: actor.UID, Email: actor.Email, FullName: actor.Name, Role: roleOf(actor)}, nil
	}
	if err != nil {
		return nil, failed(ctx, "ProfileService", "Me", err)
	}
	user.Role = roleOf(actor)
	return user, nil
}

func roleOf(actor models.Actor) string {
	if actor.IsAdmin {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// Save validates and stores the caller's profile and marks it complete.
func (s *ProfileService) Save(ctx context.Context, actor models.Actor, req models.UpdateProfileRequest) (*models.User, error) {
	user := &models.User{
		UID:            actor.UID,
		Email:          actor.Email,
		FullName:       strings.TrimSpace(req.FullName),
		RegisterNumber: strings.ToUpper(strings.TrimSpace(req.RegisterNumber)),
		Batch:          strings.TrimSpace(req.Batch),
		ContactNumber:  strings.TrimSpace(req.ContactNumber),
	}
	if user.FullName == "" || user.RegisterNumber == "" || user.Batch == "" || user.ContactNumber == "" {
		return nil, models.NewValidationError("Please fill in all required fields")
	}
	if !s.knownBatch(user.Batch) {
		return nil, models.NewValidationError("Please select a valid batch")
	}
	user.ProfileCompleted = true

	if err := s.users.SaveProfile(ctx, user); err != nil {
		return nil, failed(ctx, "ProfileService", "Save", err)
	}
	observability.LogServiceCall(ctx, "ProfileService", "Save", map[string]interface{}{"uid": actor.UID})
	return s.Me(ctx, actor)
}

func (s *ProfileService) knownBatch(batch string) bool {
	if len(s.batches) == 0 {
		return true
	}
	for _, b := range s.batches {
		if b == batch {
			return true
		}
	}
	return false
}

// Public returns another user's public profile.
func (s *ProfileService) Public(ctx context.Context, uid string) (*models.PublicProfile, error) {
	user, err := s.users.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, failed(ctx, "ProfileService", "Public", err)
	}
	p := user.Public()
	return &p, nil
}

// Search finds users by name, register number or email.
func (s *ProfileService) Search(ctx context.Context, query string, limit int) ([]models.PublicProfile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.PublicProfile{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	users, err := s.users.SearchUsers(ctx, query, limit)
	if err != nil {
		return nil, failed(ctx, "ProfileService", "Search", err)
	}
	out := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}
