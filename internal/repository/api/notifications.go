package api

import (
	"context"
	"net/http"

	"roster-bot/internal/domain"
	"roster-bot/internal/model"
)

func (c *Client) Notifications(ctx context.Context, token string) ([]domain.NotificationItem, error) {
	env, err := do[[]domain.NotificationItem](ctx, c, request{
		method: http.MethodGet,
		path:   "/notifications",
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []domain.NotificationItem{}, nil
	}
	return *env.Data, nil
}

// MarkNotificationsRead sends an empty list to mark everything.
func (c *Client) MarkNotificationsRead(ctx context.Context, token string, ids []string) (int, error) {
	if ids == nil {
		ids = []string{}
	}
	env, err := do[model.ModifiedData](ctx, c, request{
		method: http.MethodPatch,
		path:   "/notifications/read",
		token:  token,
		body:   ids,
	})
	if err != nil {
		return 0, err
	}
	if env.Data == nil {
		return 0, nil
	}
	return env.Data.Modified, nil
}
