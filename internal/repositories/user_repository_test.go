package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestUserRepo(t *testing.T) *PostgresUserRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewPostgresUserRepository(db)
}

func TestUserRepository_EnsureAndSaveProfile(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepo(t)

	require.NoError(t, repo.EnsureUser(ctx, "u1", "asha@college.edu"))
	require.NoError(t, repo.EnsureUser(ctx, "u1", "asha@college.edu"))

	first, err := repo.GetUserByUID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, first.ProfileCompleted)
	assert.Equal(t, models.RoleUser, first.Role)

	require.NoError(t, repo.SaveProfile(ctx, &models.User{
		UID:              "u1",
		Email:            "asha@college.edu",
		FullName:         "Asha Raman",
		RegisterNumber:   "2117230001",
		Batch:            "23-27",
		ContactNumber:    "9876543210",
		ProfileCompleted: true,
	}))

	saved, err := repo.GetUserByUID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Raman", saved.FullName)
	assert.True(t, saved.ProfileCompleted)
	assert.Equal(t, first.CreatedAt.Unix(), saved.CreatedAt.Unix())

	n, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserRepository_NotFoundIsClassified(t *testing.T) {
	repo := newTestUserRepo(t)

	_, err := repo.GetUserByUID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_LookupsAndSearch(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepo(t)

	for _, u := range []models.User{
		{UID: "a", Email: "a@college.edu", FullName: "Arun Kumar", RegisterNumber: "111"},
		{UID: "b", Email: "b@college.edu", FullName: "Bhavna Iyer", RegisterNumber: "222"},
		{UID: "c", Email: "c@college.edu", FullName: "Charles Arul", RegisterNumber: "333"},
	} {
		u := u
		require.NoError(t, repo.SaveProfile(ctx, &u))
	}

	users, err := repo.GetUsersByUIDs(ctx, []string{"a", "c", "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	empty, err := repo.GetUsersByUIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	found, err := repo.SearchUsers(ctx, "  ARU ", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Arun Kumar", found[0].FullName)
	assert.Equal(t, "Charles Arul", found[1].FullName)

	byRegNo, err := repo.SearchUsers(ctx, "222", 10)
	require.NoError(t, err)
	require.Len(t, byRegNo, 1)
	assert.Equal(t, "b", byRegNo[0].UID)
}
