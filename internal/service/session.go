package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/inkpress/blog_platform/internal/hash"
	"github.com/inkpress/blog_platform/internal/logging"
	"github.com/inkpress/blog_platform/internal/models"
	"github.com/inkpress/blog_platform/internal/repo"
	"github.com/inkpress/blog_platform/internal/tokens"
)

// SessionService owns the credential lifecycle: login, refresh-token
// rotation, logout and password changes. One live refresh token per
// account; issuing a new one invalidates the previous.
type SessionService struct {
	Users *repo.UserRepo
	Codec *tokens.Codec
}

type RegisterParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

type LoginResult struct {
	User         models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *SessionService) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.register")

	if p.Username == "" || p.Email == "" || p.FullName == "" || p.Password == "" {
		return nil, ErrMalformedRequest
	}
	username := strings.ToLower(strings.TrimSpace(p.Username))
	email := strings.ToLower(strings.TrimSpace(p.Email))

	exists, err := s.Users.Exists(username, email)
	if err != nil {
		l.Error("register_failed", "error", err)
		return nil, err
	}
	if exists {
		l.Warn("register_failed", "status", 409, "reason", "user already exists")
		return nil, ErrAlreadyExists
	}

	pwHash, err := hash.HashPassword(p.Password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		FullName:     p.FullName,
		Bio:          p.Bio,
		PasswordHash: pwHash,
	}
	if err := s.Users.Create(&user); err != nil {
		l.Error("register_failed", "error", err)
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID)
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Login verifies the password and issues a fresh token pair. The new
// refresh token overwrites whatever was stored, so any earlier session
// loses its refresh capability. Unknown identifier and wrong password
// return the same error so callers cannot probe which accounts exist.
func (s *SessionService) Login(ctx context.Context, username, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	if (username == "" && email == "") || password == "" {
		return nil, ErrMalformedRequest
	}
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Users.FindByIdentifier(username, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown identifier")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	res, err := s.issuePair(user.ID)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	if err := s.Users.SetRefreshToken(user.ID, res.RefreshToken); err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	res.User = user.Sanitized()
	return res, nil
}

// Refresh exchanges a refresh token for a new pair. The presented
// token must verify statelessly and match the stored value exactly;
// the swap is a conditional write so two racing refreshes cannot both
// succeed with the same token.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	if presented == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.Codec.ParseRefresh(presented)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "token verification", "error", err)
		return nil, ErrInvalidToken
	}

	userID, err := tokens.UserID(claims.RegisteredClaims)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown account")
			return nil, ErrInvalidToken
		}
		l.Error("refresh_failed", "error", err)
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != presented {
		l.Warn("refresh_failed", "status", 401, "reason", "token superseded or revoked", "user_id", user.ID)
		return nil, ErrTokenReused
	}

	res, err := s.issuePair(user.ID)
	if err != nil {
		l.Error("refresh_failed", "error", err)
		return nil, err
	}

	if err := s.Users.RotateRefreshToken(user.ID, presented, res.RefreshToken); err != nil {
		if errors.Is(err, repo.ErrTokenMismatch) {
			l.Warn("refresh_failed", "status", 401, "reason", "lost rotation race", "user_id", user.ID)
			return nil, ErrTokenReused
		}
		l.Error("refresh_failed", "error", err)
		return nil, err
	}

	l.Info("token_refreshed", "user_id", user.ID)
	res.User = user.Sanitized()
	return res, nil
}

// Logout drops the stored refresh token. Logging out twice is fine.
func (s *SessionService) Logout(ctx context.Context, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "session.logout")

	if err := s.Users.ClearRefreshToken(userID); err != nil {
		l.Error("logout_failed", "error", err, "user_id", userID)
		return err
	}
	l.Info("logout_successful", "user_id", userID)
	return nil
}

// ChangePassword re-hashes after verifying the old password. It does
// not clear the stored refresh token, so an existing session stays
// live across the change.
func (s *SessionService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "session.change_password")

	if oldPassword == "" || newPassword == "" {
		return ErrMalformedRequest
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !hash.CheckPassword(user.PasswordHash, oldPassword) {
		l.Warn("change_password_failed", "status", 401, "reason", "old password mismatch", "user_id", userID)
		return ErrInvalidCredentials
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		l.Error("change_password_failed", "error", err)
		return err
	}

	if err := s.Users.UpdatePassword(userID, pwHash); err != nil {
		l.Error("change_password_failed", "error", err)
		return err
	}

	l.Info("password_changed", "user_id", userID)
	return nil
}

func (s *SessionService) issuePair(userID uint) (*LoginResult, error) {
	accessExp := time.Now().Add(tokens.AccessTTL)
	access, err := s.Codec.IssueAccess(userID, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	refresh, err := s.Codec.IssueRefresh(userID, refreshExp)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}
