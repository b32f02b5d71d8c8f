package repo

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/inkpress/blog_platform/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrTokenMismatch means a conditional refresh-token write found a
	// different value than the one presented.
	ErrTokenMismatch = errors.New("stored refresh token mismatch")
)

// UserRepo is the credential store. It owns every read and write of
// the password hash and the single live refresh token.
type UserRepo struct {
	DB *gorm.DB
}

// FindByIdentifier matches on username or email, first match wins.
// Both identifiers are stored lowercased.
func (r *UserRepo) FindByIdentifier(username, email string) (*models.User, error) {
	var user models.User
	err := r.DB.Where("username = ? OR email = ?", username, email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) Create(user *models.User) error {
	if err := r.DB.Create(user).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *UserRepo) Exists(username, email string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepo) UpdatePassword(id uint, passwordHash string) error {
	err := r.DB.Model(&models.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *UserRepo) UpdateDetails(id uint, fields map[string]any) (*models.User, error) {
	err := r.DB.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.FindByID(id)
}

// SetRefreshToken overwrites the stored token unconditionally. Used on
// login, where the fresh password check authorizes replacing whatever
// session existed before.
func (r *UserRepo) SetRefreshToken(id uint, token string) error {
	err := r.DB.Model(&models.User{}).Where("id = ?", id).
		Update("refresh_token", token).Error
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RotateRefreshToken swaps the stored token only if it still equals
// the presented one. A zero-row update means the presented token was
// superseded between verification and the write.
func (r *UserRepo) RotateRefreshToken(id uint, presented, replacement string) error {
	res := r.DB.Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", id, presented).
		Update("refresh_token", replacement)
	if res.Error != nil {
		return fmt.Errorf("db error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTokenMismatch
	}
	return nil
}

// ClearRefreshToken is idempotent; clearing an already-empty token is
// not an error.
func (r *UserRepo) ClearRefreshToken(id uint) error {
	err := r.DB.Model(&models.User{}).Where("id = ?", id).
		Update("refresh_token", nil).Error
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
