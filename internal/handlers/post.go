package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/inkpress/blog_platform/internal/logging"
	mwauth "github.com/inkpress/blog_platform/internal/middleware/auth"
	"github.com/inkpress/blog_platform/internal/models"
	"github.com/inkpress/blog_platform/internal/mykafka"
	"github.com/inkpress/blog_platform/internal/util"
)

type PostHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
	Indexer  PostIndexer
}

// PostIndexer pushes posts into the search index. Indexing failures
// are logged, not surfaced; search lag must not fail a write.
type PostIndexer interface {
	IndexPost(ctx context.Context, post models.Post) error
	DeletePost(ctx context.Context, id uint) error
}

func (h *PostHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "post_events", fmt.Sprint(event["post_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *PostHandler) index(c echo.Context, post models.Post) {
	if h.Indexer == nil {
		return
	}
	if err := h.Indexer.IndexPost(c.Request().Context(), post); err != nil {
		logging.FromContext(c.Request().Context()).Error("index error", "post_id", post.ID, "error", err)
	}
}

// uniqueSlug appends a counter until the slug is free, same scheme the
// captions were published under historically.
func (h *PostHandler) uniqueSlug(caption string) (string, error) {
	base := util.Slugify(caption)
	slug := base
	for counter := 1; ; counter++ {
		var count int64
		if err := h.DB.Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	var req struct {
		Title     string `json:"title"`
		Caption   string `json:"caption"`
		Content   string `json:"content"`
		Tags      string `json:"tags"`
		Category  string `json:"category"`
		PostImage string `json:"post_image"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Content == "" || req.Caption == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title, content and caption are required")
	}

	slug, err := h.uniqueSlug(req.Caption)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	post := models.Post{
		AuthorID:    userID,
		Title:       req.Title,
		Caption:     req.Caption,
		Content:     req.Content,
		Tags:        util.NormalizeList(req.Tags),
		Category:    util.NormalizeList(req.Category),
		PostImage:   req.PostImage,
		Slug:        slug,
		IsPublished: true,
	}
	if err := h.DB.Create(&post).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.index(c, post)
	h.publish(c, map[string]any{
		"type":      "post_created",
		"post_id":   post.ID,
		"author_id": userID,
	})

	return c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetPosts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Post{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var posts []models.Post
	if err := h.DB.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": posts,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var likes int64
	h.DB.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likes)

	return c.JSON(http.StatusOK, echo.Map{
		"post":  post,
		"likes": likes,
	})
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "only the author may update this post")
	}

	var req struct {
		Title     string `json:"title"`
		Caption   string `json:"caption"`
		Content   string `json:"content"`
		Tags      string `json:"tags"`
		Category  string `json:"category"`
		PostImage string `json:"post_image"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Caption != "" && req.Caption != post.Caption {
		post.Caption = req.Caption
		slug, err := h.uniqueSlug(req.Caption)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		post.Slug = slug
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if req.Tags != "" {
		post.Tags = util.NormalizeList(req.Tags)
	}
	if req.Category != "" {
		post.Category = util.NormalizeList(req.Category)
	}
	if req.PostImage != "" {
		post.PostImage = req.PostImage
	}

	if err := h.DB.Save(&post).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.index(c, post)
	h.publish(c, map[string]any{
		"type":      "post_updated",
		"post_id":   post.ID,
		"author_id": userID,
	})

	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "only the author may delete this post")
	}

	if err := h.DB.Delete(&post).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	h.DB.Where("post_id = ?", post.ID).Delete(&models.PostLike{})
	h.DB.Where("post_id = ?", post.ID).Delete(&models.Comment{})

	if h.Indexer != nil {
		if err := h.Indexer.DeletePost(c.Request().Context(), post.ID); err != nil {
			logging.FromContext(c.Request().Context()).Error("index delete error", "post_id", post.ID, "error", err)
		}
	}
	h.publish(c, map[string]any{
		"type":      "post_deleted",
		"post_id":   post.ID,
		"author_id": userID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "post deleted"})
}

func (h *PostHandler) ToggleLike(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var like models.PostLike
	err = h.DB.Where("post_id = ? AND user_id = ?", post.ID, userID).First(&like).Error
	switch {
	case err == nil:
		if err := h.DB.Delete(&like).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "post unliked"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		like = models.PostLike{PostID: post.ID, UserID: userID}
		if err := h.DB.Create(&like).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "post liked"})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
