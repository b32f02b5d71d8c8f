package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	mwauth "github.com/inkpress/blog_platform/internal/middleware/auth"
	"github.com/inkpress/blog_platform/internal/models"
	"github.com/inkpress/blog_platform/internal/repo"
	"github.com/inkpress/blog_platform/internal/service"
	"github.com/inkpress/blog_platform/internal/tokens"
)

// memPublisher records events instead of talking to a broker.
type memPublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *memPublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := event.(map[string]any)
	e["topic"] = topic
	p.events = append(p.events, e)
	return nil
}

func (p *memPublisher) last(t *testing.T) map[string]any {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	return p.events[len(p.events)-1]
}

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Users    *repo.UserRepo
	Svc      *service.SessionService
	Identity *mwauth.Identity
	Auth     *AuthHandler
	Posts    *PostHandler
	Comments *CommentHandler
	Events   *memPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
	))

	users := &repo.UserRepo{DB: db}
	codec := &tokens.Codec{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	svc := &service.SessionService{Users: users, Codec: codec}
	events := &memPublisher{}

	return &testEnv{
		T:        t,
		E:        echo.New(),
		DB:       db,
		Users:    users,
		Svc:      svc,
		Identity: &mwauth.Identity{Users: users, Codec: codec},
		Auth:     &AuthHandler{Svc: svc, Producer: events},
		Posts:    &PostHandler{DB: db, Producer: events},
		Comments: &CommentHandler{DB: db, Producer: events},
		Events:   events,
	}
}

func (env *testEnv) doJSONRequest(method, path string, payload any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	env.T.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(env.T, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// register + login, returning the user and the issued pair.
func (env *testEnv) loginAs(username, password string) (*models.User, *service.LoginResult) {
	env.T.Helper()

	user, err := env.Svc.Register(context.Background(), service.RegisterParams{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: password,
	})
	require.NoError(env.T, err)

	res, err := env.Svc.Login(context.Background(), username, "", password)
	require.NoError(env.T, err)
	return user, res
}

// asUser seeds the identity context the way the middleware would.
func asUser(c echo.Context, user *models.User) {
	c.Set(mwauth.UserKey, user.Sanitized())
	c.Set(mwauth.UserIDKey, user.ID)
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := rec.Result()
	defer res.Body.Close()
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
