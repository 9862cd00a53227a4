// Package api is the client of the birthday backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"golang.org/x/time/rate"
)

var (
	// ErrUnauthorized is returned when no token is available or the backend rejects it.
	ErrUnauthorized = errors.New(config.ErrUnauthorized)

	// ErrNotFound is returned when the backend has no record with the requested id.
	ErrNotFound = errors.New(config.ErrNotFound)
)

// TokenSource provides the bearer token of a user.
type TokenSource interface {
	Token(user string) (string, error)
}

// Client calls the backend on behalf of one user.
type Client struct {
	BaseURL string
	User    string
	HTTP    *http.Client
	Tokens  TokenSource

	limiter *rate.Limiter
}

// NewClient validates baseURL and returns a client with the default timeout and
// an outbound rate limit.
func NewClient(baseURL, user string, tokens TokenSource) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New(config.ErrAPIURLEmpty)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		User:    user,
		HTTP:    &http.Client{Timeout: config.HTTPTimeout},
		Tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(config.APIRequestsPerSec), config.APIBurst),
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The token is returned, not stored.
func (c *Client) Login(ctx context.Context, user, pass string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, config.APIPathLogin, loginRequest{user, pass}, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrUnauthorized
	}
	return resp.Token, nil
}

// ListBirthdays returns every record of the user, in backend order.
func (c *Client) ListBirthdays(ctx context.Context) ([]engine.BirthdayRecord, error) {
	var out []engine.BirthdayRecord
	if err := c.do(ctx, http.MethodGet, config.APIPathBirthdays, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBirthday returns one record.
func (c *Client) GetBirthday(ctx context.Context, id string) (engine.BirthdayRecord, error) {
	var out engine.BirthdayRecord
	path, err := recordPath(config.APIPathBirthdays, id)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, http.MethodGet, path, nil, &out, true)
	return out, err
}

// CreateBirthday stores a new record and returns it with its backend-assigned id.
func (c *Client) CreateBirthday(ctx context.Context, r engine.BirthdayRecord) (engine.BirthdayRecord, error) {
	r.ID = ""
	var out engine.BirthdayRecord
	err := c.do(ctx, http.MethodPost, config.APIPathBirthdays, r, &out, true)
	return out, err
}

// UpdateBirthday replaces the record with r.ID.
func (c *Client) UpdateBirthday(ctx context.Context, r engine.BirthdayRecord) (engine.BirthdayRecord, error) {
	var out engine.BirthdayRecord
	path, err := recordPath(config.APIPathBirthdays, r.ID)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, http.MethodPut, path, r, &out, true)
	return out, err
}

// DeleteBirthday removes a record.
func (c *Client) DeleteBirthday(ctx context.Context, id string) error {
	path, err := recordPath(config.APIPathBirthdays, id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil, true)
}

// ListNotifications returns the user's notifications, newest first as sent by the backend.
func (c *Client) ListNotifications(ctx context.Context) ([]engine.NotificationRecord, error) {
	var out []engine.NotificationRecord
	if err := c.do(ctx, http.MethodGet, config.APIPathNotifications, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path, err := recordPath(config.APIPathNotifications, id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path+config.APIPathMarkRead, nil, nil, true)
}

func recordPath(collection, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.New(config.ErrIDRequired)
	}
	return collection + "/" + url.PathEscape(id), nil
}

// do sends one JSON request. out may be nil when the response body is ignored.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	log := slog.With(
		config.LogKeyComponent, config.CompAPI,
		config.LogKeyMethod, method,
		config.LogKeyPath, path,
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: %w", config.ErrRequestEncode, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrRequestBuild, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.MimeJSON)
	if body != nil {
		req.Header.Set(config.HeaderContentType, config.MimeJSON)
	}

	if authed {
		token, err := c.token()
		if err != nil {
			return err
		}
		req.Header.Set(config.HeaderAuthorization, config.BearerPrefix+token)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug(config.MsgAPIRequest,
		config.LogKeyStatus, resp.StatusCode,
		config.LogKeyDuration, time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		log.Warn(config.MsgAPIStatus, config.LogKeyStatus, resp.StatusCode)
		return fmt.Errorf("%s: %s", config.ErrUnexpectedStatus, resp.Status)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, config.MaxAPIResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", config.ErrResponseDecode, err)
	}
	return nil
}

func (c *Client) token() (string, error) {
	if c.Tokens == nil {
		return "", ErrUnauthorized
	}
	token, err := c.Tokens.Token(c.User)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if token == "" {
		return "", ErrUnauthorized
	}
	return token, nil
}
