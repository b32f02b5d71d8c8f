package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkpress/blog_platform/internal/models"
	"github.com/inkpress/blog_platform/internal/repo"
	"github.com/inkpress/blog_platform/internal/tokens"
)

func newTestIdentity(t *testing.T) (*Identity, *models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	stored := "some-refresh-token"
	user := models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice Cooper",
		PasswordHash: "hashed",
		RefreshToken: &stored,
	}
	require.NoError(t, db.Create(&user).Error)

	identity := &Identity{
		Users: &repo.UserRepo{DB: db},
		Codec: &tokens.Codec{
			AccessSecret:  []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		},
	}
	return identity, &user
}

func doRequest(t *testing.T, identity *Identity, decorate func(*http.Request)) (echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	err := identity.RequireLogin(next)(c)
	return c, err
}

func TestRequireLogin_CookieToken(t *testing.T) {
	t.Parallel()

	identity, user := newTestIdentity(t)
	token, err := identity.Codec.IssueAccess(user.ID, time.Now().Add(tokens.AccessTTL))
	require.NoError(t, err)

	c, err := doRequest(t, identity, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	})
	require.NoError(t, err)

	got, ok := c.Get(UserKey).(models.User)
	require.True(t, ok)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.PasswordHash, "hash must not reach downstream handlers")
	assert.Nil(t, got.RefreshToken, "refresh token must not reach downstream handlers")
	assert.Equal(t, user.ID, c.Get(UserIDKey).(uint))
}

func TestRequireLogin_BearerToken(t *testing.T) {
	t.Parallel()

	identity, user := newTestIdentity(t)
	token, err := identity.Codec.IssueAccess(user.ID, time.Now().Add(tokens.AccessTTL))
	require.NoError(t, err)

	_, err = doRequest(t, identity, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	require.NoError(t, err)
}

func TestRequireLogin_MissingToken(t *testing.T) {
	t.Parallel()

	identity, _ := newTestIdentity(t)

	_, err := doRequest(t, identity, nil)
	he := &echo.HTTPError{}
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLogin_ExpiredToken(t *testing.T) {
	t.Parallel()

	identity, user := newTestIdentity(t)
	token, err := identity.Codec.IssueAccess(user.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = doRequest(t, identity, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	})
	he := &echo.HTTPError{}
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLogin_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	t.Parallel()

	identity, user := newTestIdentity(t)
	token, err := identity.Codec.IssueRefresh(user.ID, time.Now().Add(tokens.RefreshTTL))
	require.NoError(t, err)

	_, err = doRequest(t, identity, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	})
	he := &echo.HTTPError{}
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLogin_DeletedAccount(t *testing.T) {
	t.Parallel()

	identity, user := newTestIdentity(t)
	token, err := identity.Codec.IssueAccess(user.ID, time.Now().Add(tokens.AccessTTL))
	require.NoError(t, err)

	require.NoError(t, identity.Users.DB.Delete(&models.User{}, user.ID).Error)

	_, err = doRequest(t, identity, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	})
	he := &echo.HTTPError{}
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
