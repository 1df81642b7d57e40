// Package client talks to the games REST API. It carries the session cookie,
// echoes the CSRF cookie on unsafe requests and reports 401/403 responses
// through an unauthorized hook.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const (
	jsonMediaType = "application/json;charset=UTF-8"

	// AuthCookieName carries the session token.
	AuthCookieName = "auth_token"
	// CSRFCookieName is issued by the server and echoed in CSRFHeaderName.
	CSRFCookieName = "CSRF-TOKEN"
	CSRFHeaderName = "X-CSRF-TOKEN"
)

// ErrUnauthorized wraps every 401 and 403 answer.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the games API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Body))
}

// Unwrap lets callers test for ErrUnauthorized.
func (e *APIError) Unwrap() error {
	if e.StatusCode == fasthttp.StatusUnauthorized || e.StatusCode == fasthttp.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// Client is a games API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
	logger  *logrus.Logger

	mu        sync.RWMutex
	authToken string
	csrfToken string

	onUnauthorized func(statusCode int)
}

// Option configures a Client.
type Option func(*Client)

// WithAuthToken sets the session token sent as the auth cookie.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithTimeout bounds requests whose context carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// OnUnauthorized registers a hook run for every 401/403 answer, before the
// error is returned to the caller.
func OnUnauthorized(fn func(statusCode int)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New builds a client for the API rooted at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: time.Minute,
		},
		timeout: 15 * time.Second,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAuthToken replaces the session token.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// ListGames fetches GET /games.
func (c *Client) ListGames(ctx context.Context, opts models.ListGamesOptions) ([]models.Game, error) {
	q := url.Values{}
	if opts.TenantWide {
		q.Set("tenant_wide", "true")
	}
	if opts.UserID != "" {
		q.Set("user_id", opts.UserID)
	}
	path := "/games"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp models.GamesResponse
	if err := c.do(ctx, fasthttp.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

// GetGame fetches GET /games/{id}.
func (c *Client) GetGame(ctx context.Context, gameID string) (models.Game, error) {
	var g models.Game
	err := c.do(ctx, fasthttp.MethodGet, gamePath(gameID), nil, &g)
	return g, err
}

// CreateGame posts a new game.
func (c *Client) CreateGame(ctx context.Context, req models.CreateGameRequest) (models.Game, error) {
	var g models.Game
	err := c.do(ctx, fasthttp.MethodPost, "/games", req, &g)
	return g, err
}

// AddRound appends a round and returns the updated game.
func (c *Client) AddRound(ctx context.Context, gameID string, scores map[string]int) (models.Game, error) {
	var g models.Game
	err := c.do(ctx, fasthttp.MethodPost, gamePath(gameID)+"/rounds", models.RoundRequest{Scores: scores}, &g)
	return g, err
}

// EditRound replaces one round's scores and returns the updated game.
func (c *Client) EditRound(ctx context.Context, gameID, roundID string, scores map[string]int) (models.Game, error) {
	var g models.Game
	path := gamePath(gameID) + "/rounds/" + url.PathEscape(roundID)
	err := c.do(ctx, fasthttp.MethodPut, path, models.RoundRequest{Scores: scores}, &g)
	return g, err
}

// CompleteGame marks a game complete.
func (c *Client) CompleteGame(ctx context.Context, gameID string) (models.Game, error) {
	var g models.Game
	err := c.do(ctx, fasthttp.MethodPut, gamePath(gameID)+"/complete", nil, &g)
	return g, err
}

// DeleteGame removes a game.
func (c *Client) DeleteGame(ctx context.Context, gameID string) error {
	return c.do(ctx, fasthttp.MethodDelete, gamePath(gameID), nil, nil)
}

func gamePath(gameID string) string {
	return "/games/" + url.PathEscape(gameID)
}

// ensureCSRF fetches a CSRF cookie when none has been seen yet.
func (c *Client) ensureCSRF(ctx context.Context) error {
	c.mu.RLock()
	have := c.csrfToken != ""
	c.mu.RUnlock()
	if have {
		return nil
	}
	return c.do(ctx, fasthttp.MethodGet, "/ping", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	unsafe := method != fasthttp.MethodGet && method != fasthttp.MethodHead
	if unsafe {
		if err := c.ensureCSRF(ctx); err != nil {
			return fmt.Errorf("fetch csrf token: %w", err)
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, jsonMediaType)

	c.mu.RLock()
	if c.authToken != "" {
		req.Header.SetCookie(AuthCookieName, c.authToken)
	}
	if c.csrfToken != "" {
		req.Header.SetCookie(CSRFCookieName, c.csrfToken)
		if unsafe {
			req.Header.Set(CSRFHeaderName, c.csrfToken)
		}
	}
	c.mu.RUnlock()

	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		req.Header.SetContentType(jsonMediaType)
		req.SetBody(body)
	}

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	c.captureCSRF(resp)

	status := resp.StatusCode()
	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   status,
		"duration": time.Since(start),
	}).Debug("games api call")

	if status < 200 || status > 299 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: status, Body: string(resp.Body())}
		if errors.Is(apiErr, ErrUnauthorized) && c.onUnauthorized != nil {
			c.onUnauthorized(status)
		}
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) captureCSRF(resp *fasthttp.Response) {
	ck := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(ck)
	ck.SetKey(CSRFCookieName)
	if !resp.Header.Cookie(ck) {
		return
	}
	c.mu.Lock()
	c.csrfToken = string(ck.Value())
	c.mu.Unlock()
}
