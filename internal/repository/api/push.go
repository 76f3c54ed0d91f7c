package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"roster-bot/config"
	"roster-bot/internal/domain"
)

const pushPath = "/ws/notifications"

// PushURL derives the websocket endpoint from the API base unless an explicit
// push URL was configured.
func (c *Client) PushURL(token string) (string, error) {
	base := c.pushURL
	if base == "" {
		if c.baseURL == "" {
			return "", config.ErrNoAPIBaseURL{}
		}
		base = c.baseURL + pushPath
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrap(err, "parse push url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) DialPush(ctx context.Context, token string) (domain.PushConn, error) {
	target, err := c.PushURL(token)
	if err != nil {
		return nil, err
	}
	conn, resp, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "dial push channel (status %d)", resp.StatusCode)
		}
		return nil, errors.Wrap(err, "dial push channel")
	}
	return &pushConn{conn: conn}, nil
}

type pushConn struct {
	conn *websocket.Conn
}

func (p *pushConn) ReadMessage() ([]byte, error) {
	_, data, err := p.conn.ReadMessage()
	return data, err
}

func (p *pushConn) Close() error {
	return p.conn.Close()
}
