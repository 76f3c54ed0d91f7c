package api

import (
	"context"
	"net/http"

	"roster-bot/internal/domain"
	"roster-bot/internal/model"
)

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	env, err := do[model.LoginData](ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   model.LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return "", err
	}
	if env.Data == nil || env.Data.Token == "" {
		return "", &domain.AuthError{Message: firstNonEmpty(env.Message, "Token tidak ditemukan")}
	}
	return env.Data.Token, nil
}

func (c *Client) Profile(ctx context.Context, token string) (domain.Profile, error) {
	env, err := do[model.ProfileData](ctx, c, request{
		method: http.MethodGet,
		path:   "/auth/me",
		token:  token,
	})
	if err != nil {
		return domain.Profile{}, err
	}
	if env.Data == nil {
		return domain.Profile{}, &domain.AuthError{Message: firstNonEmpty(env.Message, "Profile tidak ditemukan")}
	}
	return domain.Profile{Username: env.Data.Username, Role: env.Data.Role}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
