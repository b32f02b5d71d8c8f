package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	FullName     string    `gorm:"not null"                 json:"full_name"`
	Bio          string    `json:"bio"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"cover_image"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sanitized strips the credential fields so the record can be handed
// to downstream handlers or serialized in a response.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = nil
	return u
}

type Post struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID    uint      `gorm:"index;not null"           json:"author_id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Caption     string    `gorm:"not null"                 json:"caption"`
	Content     string    `gorm:"not null"                 json:"content"`
	PostImage   string    `json:"post_image"`
	Tags        string    `json:"tags"`
	Category    string    `json:"category"`
	Slug        string    `gorm:"uniqueIndex"              json:"slug"`
	IsPublished bool      `gorm:"default:true"             json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint      `gorm:"index;not null"           json:"post_id"`
	AuthorID  uint      `gorm:"index;not null"           json:"author_id"`
	Content   string    `gorm:"not null"                 json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PostLike struct {
	ID     uint `gorm:"primaryKey"                     json:"id"`
	PostID uint `gorm:"uniqueIndex:idx_post_user"      json:"post_id"`
	UserID uint `gorm:"uniqueIndex:idx_post_user"      json:"user_id"`
}

type CommentLike struct {
	ID        uint `gorm:"primaryKey"                   json:"id"`
	CommentID uint `gorm:"uniqueIndex:idx_comment_user" json:"comment_id"`
	UserID    uint `gorm:"uniqueIndex:idx_comment_user" json:"user_id"`
}
