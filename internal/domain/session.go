package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type AuthUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is persisted as a single record; the token is never parsed.
type Session struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

type Profile struct {
	Username string
	Role     string
}

type AuthRepo interface {
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context, token string) (Profile, error)
}

// SessionRepo is a durable key-value record store.
type SessionRepo interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// AuthError is returned for rejected credentials or an unusable login response.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrNoSession is returned when an operation needs a token and nobody is logged in.
var ErrNoSession = errors.New("no active session")
