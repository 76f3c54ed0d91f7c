package domain

import (
	"context"
	"time"
)

type NotificationItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

type NotificationRepo interface {
	Notifications(ctx context.Context, token string) ([]NotificationItem, error)
	MarkNotificationsRead(ctx context.Context, token string, ids []string) (int, error)
}

type PushConn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

type PushDialer interface {
	DialPush(ctx context.Context, token string) (PushConn, error)
}
