package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/inkpress/blog_platform/internal/handlers"
	mwauth "github.com/inkpress/blog_platform/internal/middleware/auth"
)

type Deps struct {
	Identity  *mwauth.Identity
	Auth      *handlers.AuthHandler
	Posts     *handlers.PostHandler
	Comments  *handlers.CommentHandler
	Analytics *handlers.AnalyticsHandler
	Search    *handlers.SearchHandler
	Media     *handlers.MediaHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")
	login := d.Identity.RequireLogin

	users := v1.Group("/users")
	users.POST("/register", d.Auth.Register)
	users.POST("/login", d.Auth.Login)
	users.POST("/refresh-token", d.Auth.Refresh)
	users.POST("/logout", d.Auth.LogOut, login)
	users.POST("/change-password", d.Auth.ChangePassword, login)
	users.GET("/current-user", d.Auth.CurrentUser, login)
	users.PATCH("/user-details", d.Auth.UpdateDetails, login)
	users.POST("/update-avatar", d.Media.UpdateAvatar, login)
	users.POST("/update-cover-image", d.Media.UpdateCoverImage, login)

	posts := v1.Group("/posts")
	posts.GET("", d.Posts.GetPosts)
	posts.GET("/:id", d.Posts.GetPost)
	posts.POST("", d.Posts.CreatePost, login)
	posts.PATCH("/:id", d.Posts.UpdatePost, login)
	posts.DELETE("/:id", d.Posts.DeletePost, login)
	posts.POST("/:id/toggle-like", d.Posts.ToggleLike, login)
	posts.POST("/upload-image", d.Media.UploadURL, login)

	comments := v1.Group("/comments")
	comments.GET("/:postId", d.Comments.GetComments)
	comments.POST("/:postId", d.Comments.CreateComment, login)
	comments.DELETE("/:commentId", d.Comments.DeleteComment, login)
	comments.POST("/:commentId/like", d.Comments.ToggleLike, login)

	analytics := v1.Group("/analytics")
	analytics.GET("/top-authors", d.Analytics.TopAuthors)
	analytics.GET("/most-liked-posts", d.Analytics.MostLikedPosts)
	analytics.GET("/stats", d.Analytics.DashboardStats, login)

	v1.GET("/search", d.Search.Search)
	v1.GET("/media", d.Media.Download)
}
