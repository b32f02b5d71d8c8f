package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	mwauth "github.com/inkpress/blog_platform/internal/middleware/auth"
	"github.com/inkpress/blog_platform/internal/models"
)

type AnalyticsHandler struct {
	DB *gorm.DB
}

type authorStats struct {
	AuthorID   uint   `json:"author_id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	TotalPosts int64  `json:"total_posts"`
	TotalLikes int64  `json:"total_likes"`
}

type likedPost struct {
	models.Post
	LikesCount int64 `json:"likes_count"`
}

// TopAuthors ranks the ten most liked authors, likes first, post count
// as tiebreaker.
func (h *AnalyticsHandler) TopAuthors(c echo.Context) error {
	var stats []authorStats
	err := h.DB.Model(&models.Post{}).
		Select("posts.author_id AS author_id, users.username, users.full_name, COUNT(DISTINCT posts.id) AS total_posts, COUNT(post_likes.id) AS total_likes").
		Joins("JOIN users ON users.id = posts.author_id").
		Joins("LEFT JOIN post_likes ON post_likes.post_id = posts.id").
		Group("posts.author_id, users.username, users.full_name").
		Order("total_likes DESC, total_posts DESC").
		Limit(10).
		Scan(&stats).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AnalyticsHandler) MostLikedPosts(c echo.Context) error {
	var posts []likedPost
	err := h.DB.Model(&models.Post{}).
		Select("posts.*, COUNT(post_likes.id) AS likes_count").
		Joins("LEFT JOIN post_likes ON post_likes.post_id = posts.id").
		Group("posts.id").
		Order("likes_count DESC, posts.created_at DESC").
		Limit(10).
		Scan(&posts).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, posts)
}

// DashboardStats summarizes the authenticated user's footprint: posts
// written, likes received on them, comments written.
func (h *AnalyticsHandler) DashboardStats(c echo.Context) error {
	userID := c.Get(mwauth.UserIDKey).(uint)

	var totalPosts int64
	if err := h.DB.Model(&models.Post{}).Where("author_id = ?", userID).Count(&totalPosts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var totalLikes int64
	err := h.DB.Model(&models.PostLike{}).
		Joins("JOIN posts ON posts.id = post_likes.post_id").
		Where("posts.author_id = ?", userID).
		Count(&totalLikes).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var totalComments int64
	if err := h.DB.Model(&models.Comment{}).Where("author_id = ?", userID).Count(&totalComments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_posts":    totalPosts,
		"total_likes":    totalLikes,
		"total_comments": totalComments,
	})
}
