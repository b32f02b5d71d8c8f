package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inkpress/blog_platform/internal/repo"
	"github.com/inkpress/blog_platform/internal/tokens"
)

const (
	UserKey   = "user"
	UserIDKey = "userID"
)

// Identity authenticates protected requests: it pulls the access token
// from the accessToken cookie or the Authorization header, verifies it
// and loads the sanitized account into the echo context.
type Identity struct {
	Users *repo.UserRepo
	Codec *tokens.Codec
}

func (i *Identity) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "access token missing")
		}

		claims, err := i.Codec.ParseAccess(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		userID, err := tokens.UserID(claims.RegisteredClaims)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		user, err := i.Users.FindByID(userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		c.Set(UserKey, user.Sanitized())
		c.Set(UserIDKey, user.ID)
		return next(c)
	}
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
