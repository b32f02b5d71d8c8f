package service

import "errors"

// Session errors. Handlers map these to stable HTTP statuses; anything
// else that bubbles up is infrastructure trouble and becomes a 500.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrTokenReused        = errors.New("refresh token expired or already used")
	ErrMalformedRequest   = errors.New("missing required fields")
	ErrAlreadyExists      = errors.New("user already exists")
)
