package repositories

import (
	"context"

	"github.com/anonto42/campus-p2p/backend/internal/cache"
	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// CachedUserRepository serves single-profile lookups from the cache.
type CachedUserRepository struct {
	UserRepository
	cache *cache.Cache
}

// NewCachedUserRepository wraps inner with cache-aside reads.
func NewCachedUserRepository(inner UserRepository, c *cache.Cache) *CachedUserRepository {
	return &CachedUserRepository{UserRepository: inner, cache: c}
}

func (r *CachedUserRepository) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := r.cache.Aside(ctx, cache.UserKey(uid), &user, cache.UserTTL, func() error {
		u, err := r.UserRepository.GetUserByUID(ctx, uid)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *CachedUserRepository) SaveProfile(ctx context.Context, user *models.User) error {
	if err := r.UserRepository.SaveProfile(ctx, user); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cache.UserKey(user.UID))
	return nil
}

// CachedSettingsRepository serves the portal switches from the cache.
type CachedSettingsRepository struct {
	SettingsRepository
	cache *cache.Cache
}

// NewCachedSettingsRepository wraps inner with cache-aside reads.
func NewCachedSettingsRepository(inner SettingsRepository, c *cache.Cache) *CachedSettingsRepository {
	return &CachedSettingsRepository{SettingsRepository: inner, cache: c}
}

func (r *CachedSettingsRepository) GetPortals(ctx context.Context) (models.Portals, error) {
	var portals models.Portals
	err := r.cache.Aside(ctx, cache.PortalsKey, &portals, cache.PortalsTTL, func() error {
		p, err := r.SettingsRepository.GetPortals(ctx)
		portals = p
		return err
	})
	return portals, err
}

func (r *CachedSettingsRepository) SavePortals(ctx context.Context, portals models.Portals) error {
	if err := r.SettingsRepository.SavePortals(ctx, portals); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cache.PortalsKey)
	return nil
}
