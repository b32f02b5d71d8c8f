package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/inkpress/blog_platform/internal/middleware/auth"
	"github.com/inkpress/blog_platform/internal/repo"
	"github.com/inkpress/blog_platform/internal/storage"
)

// MediaHandler hands out presigned upload urls and records the
// resulting object keys on the user profile. The actual bytes never
// pass through this backend.
type MediaHandler struct {
	Users *repo.UserRepo
	Store *storage.MediaStore
}

func (h *MediaHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatars", "avatar")
}

func (h *MediaHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "covers", "cover_image")
}

func (h *MediaHandler) updateImage(c echo.Context, prefix, column string) error {
	ctx := c.Request().Context()
	userID := c.Get(mwauth.UserIDKey).(uint)

	key, uploadURL, err := h.Store.PresignUpload(ctx, prefix)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	user, err := h.Users.UpdateDetails(userID, map[string]any{column: key})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":       user.Sanitized(),
		"upload_url": uploadURL,
		"key":        key,
	})
}

// UploadURL presigns a PUT for a post image; the returned key goes
// into the post's post_image field on create or update.
func (h *MediaHandler) UploadURL(c echo.Context) error {
	ctx := c.Request().Context()

	key, uploadURL, err := h.Store.PresignUpload(ctx, "posts")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"upload_url": uploadURL,
		"key":        key,
	})
}

// Download resolves a stored key to a temporary GET url.
func (h *MediaHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()

	key := c.QueryParam("key")
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}

	url, err := h.Store.PresignDownload(ctx, key)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url})
}
