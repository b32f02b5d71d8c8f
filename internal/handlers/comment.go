package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/inkpress/blog_platform/internal/logging"
	mwauth "github.com/inkpress/blog_platform/internal/middleware/auth"
	"github.com/inkpress/blog_platform/internal/models"
	"github.com/inkpress/blog_platform/internal/mykafka"
)

type CommentHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
}

func (h *CommentHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "comment_events", fmt.Sprint(event["comment_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	postID, err := strconv.Atoi(c.Param("postId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comment content is required")
	}

	var post models.Post
	if err := h.DB.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: userID,
		Content:  content,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.publish(c, map[string]any{
		"type":       "comment_created",
		"comment_id": comment.ID,
		"post_id":    post.ID,
		"author_id":  userID,
	})

	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) GetComments(c echo.Context) error {
	postID, err := strconv.Atoi(c.Param("postId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var comments []models.Comment
	if err := h.DB.Where("post_id = ?", postID).Order("created_at DESC").Find(&comments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	commentID, err := strconv.Atoi(c.Param("commentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid comment id")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if comment.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "only the author may delete this comment")
	}

	if err := h.DB.Delete(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	h.DB.Where("comment_id = ?", comment.ID).Delete(&models.CommentLike{})

	h.publish(c, map[string]any{
		"type":       "comment_deleted",
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author_id":  userID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "comment deleted"})
}

func (h *CommentHandler) ToggleLike(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	commentID, err := strconv.Atoi(c.Param("commentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid comment id")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var like models.CommentLike
	err = h.DB.Where("comment_id = ? AND user_id = ?", comment.ID, userID).First(&like).Error
	switch {
	case err == nil:
		if err := h.DB.Delete(&like).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "comment unliked"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		like = models.CommentLike{CommentID: comment.ID, UserID: userID}
		if err := h.DB.Create(&like).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "comment liked"})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
