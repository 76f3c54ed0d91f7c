package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"roster-bot/config"
	"roster-bot/internal/metrics"
	"roster-bot/internal/model"
	"roster-bot/pkg/logging"
)

// Client performs single-attempt calls against the roster API. It does not
// retry and only times out when the caller's context or the configured
// http.Client says so.
type Client struct {
	baseURL string
	pushURL string
	http    *http.Client
	dialer  *websocket.Dialer
	log     *logrus.Entry
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithPushURL(u string) Option {
	return func(c *Client) { c.pushURL = strings.TrimRight(u, "/") }
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		dialer:  websocket.DefaultDialer,
		log:     logging.Component(nil, "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type formFile struct {
	field    string
	filename string
	r        io.Reader
}

type request struct {
	method string
	path   string
	token  string
	body   any
	form   *formFile
}

func do[T any](ctx context.Context, c *Client, req request) (model.Envelope[T], error) {
	var env model.Envelope[T]
	if c.baseURL == "" {
		return env, config.ErrNoAPIBaseURL{}
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return env, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return env, errors.Wrap(err, "create request")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	route := routeOf(req.path)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.method, route, 0)
		return env, errors.Wrapf(err, "%s %s", req.method, route)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(req.method, route, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, errors.Wrap(err, "read response")
	}

	c.log.WithFields(logrus.Fields{
		"method": req.method,
		"path":   route,
		"status": resp.StatusCode,
	}).Debug("api call")

	decodeErr := decodeEnvelope(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("Request failed with status %d", resp.StatusCode)
		}
		return env, &RequestError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return env, errors.Wrapf(decodeErr, "decode %s %s", req.method, route)
	}
	return env, nil
}

func encodeBody(req request) (io.Reader, string, error) {
	if req.form != nil {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile(req.form.field, req.form.filename)
		if err != nil {
			return nil, "", errors.Wrap(err, "create form file")
		}
		if _, err := io.Copy(part, req.form.r); err != nil {
			return nil, "", errors.Wrap(err, "copy form file")
		}
		if err := w.Close(); err != nil {
			return nil, "", errors.Wrap(err, "close form")
		}
		return &buf, w.FormDataContentType(), nil
	}
	if req.body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.body)
	if err != nil {
		return nil, "", errors.Wrap(err, "encode body")
	}
	return bytes.NewReader(data), "application/json", nil
}

func decodeEnvelope[T any](raw []byte, env *model.Envelope[T]) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, env)
}

func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
