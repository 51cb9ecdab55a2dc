package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	// EnsureUser creates a bare profile row for uid unless one exists.
	EnsureUser(ctx context.Context, uid, email string) error
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	GetUsersByUIDs(ctx context.Context, uids []string) ([]models.User, error)
	SaveProfile(ctx context.Context, user *models.User) error
	CountUsers(ctx context.Context) (int64, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// EnsureUser inserts a profile row on first sign-in.
func (r *PostgresUserRepository) EnsureUser(ctx context.Context, uid, email string) error {
	user := &models.User{UID: uid, Email: email, Role: models.RoleUser}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
	return translate("create user", "User", uid, err)
}

// GetUserByUID retrieves a user by uid from PostgreSQL
func (r *PostgresUserRepository) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		return nil, translate("load user", "User", uid, err)
	}
	return &user, nil
}

// GetUsersByUIDs retrieves the users that exist among uids
func (r *PostgresUserRepository) GetUsersByUIDs(ctx context.Context, uids []string) ([]models.User, error) {
	var users []models.User
	if len(uids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("uid IN ?", uids).Find(&users).Error; err != nil {
		return nil, translate("load users", "User", "", err)
	}
	return users, nil
}

// SaveProfile upserts the profile fields. CreatedAt survives updates.
func (r *PostgresUserRepository) SaveProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "full_name", "register_number", "batch", "contact_number", "profile_completed", "updated_at",
		}),
	}).Create(user).Error
	return translate("save profile", "User", user.UID, err)
}

// CountUsers returns the number of profiles
func (r *PostgresUserRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, translate("count users", "User", "", err)
	}
	return n, nil
}

// SearchUsers searches for users by name, register number or email
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(full_name) LIKE ? OR LOWER(register_number) LIKE ? OR LOWER(email) LIKE ?", like, like, like).
		Order("full_name").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, translate("search users", "User", "", err)
	}
	return users, nil
}
