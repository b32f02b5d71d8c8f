package repo

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkpress/blog_platform/internal/models"
)

func newTestRepo(t *testing.T) *UserRepo {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return &UserRepo{DB: db}
}

func seedUser(t *testing.T, r *UserRepo) *models.User {
	t.Helper()

	user := &models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice Cooper",
		PasswordHash: "hashed",
	}
	require.NoError(t, r.Create(user))
	return user
}

func TestFindByIdentifier(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	user := seedUser(t, r)

	byName, err := r.FindByIdentifier("alice", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := r.FindByIdentifier("", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = r.FindByIdentifier("mallory", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateRefreshToken_ConditionalSwap(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	user := seedUser(t, r)

	require.NoError(t, r.SetRefreshToken(user.ID, "token-a"))

	// swap succeeds while token-a is stored
	require.NoError(t, r.RotateRefreshToken(user.ID, "token-a", "token-b"))

	got, err := r.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "token-b", *got.RefreshToken)

	// a second swap against the superseded value loses
	err = r.RotateRefreshToken(user.ID, "token-a", "token-c")
	assert.ErrorIs(t, err, ErrTokenMismatch)

	got, err = r.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "token-b", *got.RefreshToken)
}

func TestClearRefreshToken_Idempotent(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	user := seedUser(t, r)

	require.NoError(t, r.SetRefreshToken(user.ID, "token-a"))
	require.NoError(t, r.ClearRefreshToken(user.ID))

	got, err := r.FindByID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RefreshToken)

	require.NoError(t, r.ClearRefreshToken(user.ID))
}
