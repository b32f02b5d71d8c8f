package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrExpiredToken   = errors.New("token expired")
	ErrMalformedToken = errors.New("malformed token")
)

type AccessClaims struct {
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Codec signs and verifies the two token kinds. Each kind has its own
// secret so a leak of one cannot forge the other.
type Codec struct {
	AccessSecret  []byte
	RefreshSecret []byte
}

func (c *Codec) IssueAccess(userID uint, exp time.Time) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.AccessSecret)
}

func (c *Codec) IssueRefresh(userID uint, exp time.Time) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.RefreshSecret)
}

func (c *Codec) ParseAccess(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(raw, &claims, c.AccessSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (c *Codec) ParseRefresh(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(raw, &claims, c.RefreshSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func parse(raw string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrMalformedToken
	}
	if !tkn.Valid {
		return ErrMalformedToken
	}
	return nil
}

// UserID decodes the numeric subject claim.
func UserID(c jwt.RegisteredClaims) (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrMalformedToken
	}
	return uint(id), nil
}
