package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inkpress/blog_platform/internal/logging"
	mwauth "github.com/inkpress/blog_platform/internal/middleware/auth"
	"github.com/inkpress/blog_platform/internal/models"
	"github.com/inkpress/blog_platform/internal/mykafka"
	"github.com/inkpress/blog_platform/internal/service"
)

type AuthHandler struct {
	Svc      *service.SessionService
	Producer mykafka.Publisher
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["user_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.RegisterParams
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(CreateCookie("accessToken", res.AccessToken, "/", res.AccessExp))
	c.SetCookie(CreateCookie("refreshToken", res.RefreshToken, "/", res.RefreshExp))

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"user_id":  res.User.ID,
		"username": res.User.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user":          res.User,
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	presented := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	res, err := h.Svc.Refresh(ctx, presented)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(CreateCookie("accessToken", res.AccessToken, "/", res.AccessExp))
	c.SetCookie(CreateCookie("refreshToken", res.RefreshToken, "/", res.RefreshExp))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get(mwauth.UserIDKey).(uint)

	if err := h.Svc.Logout(ctx, userID); err != nil {
		c.SetCookie(DeleteCookie("accessToken", "/"))
		c.SetCookie(DeleteCookie("refreshToken", "/"))
		return httpError(err)
	}

	c.SetCookie(DeleteCookie("accessToken", "/"))
	c.SetCookie(DeleteCookie("refreshToken", "/"))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get(mwauth.UserIDKey).(uint)

	var req struct {
		Password    string `json:"password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ChangePassword(ctx, userID, req.Password, req.NewPassword); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "password changed",
	})
}

func (h *AuthHandler) CurrentUser(c echo.Context) error {
	user := c.Get(mwauth.UserKey).(models.User)
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateDetails(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Bio      string `json:"bio"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" && req.Email == "" && req.FullName == "" && req.Bio == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one field is required")
	}

	fields := map[string]any{}
	if req.Username != "" {
		fields["username"] = strings.ToLower(req.Username)
	}
	if req.Email != "" {
		fields["email"] = strings.ToLower(req.Email)
	}
	if req.FullName != "" {
		fields["full_name"] = req.FullName
	}
	if req.Bio != "" {
		fields["bio"] = req.Bio
	}

	user, err := h.Svc.Users.UpdateDetails(userID, fields)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user.Sanitized())
}
