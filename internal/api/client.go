package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/session"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// TokenRefresher exchanges the current credential for a fresh one. It is
// implemented by the auth service; the indirection avoids an import cycle
// between transport and services. A (nil, nil) return means there was no
// session to refresh.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) (*session.Session, error)
}

// Client is the uniform transport for all domain requests. It attaches the
// bearer credential before each send and performs at most one automatic
// refresh-and-retry when a request comes back 401. Every other failure is
// handed to the caller unmodified; nothing is retried beyond that single
// refresh case.
type Client struct {
	client    *resty.Client
	sessions  session.Store
	refresher TokenRefresher
	logger    *zap.Logger
	limiter   *rate.Limiter
}

// NewClient creates a configured journal API client.
func NewClient(cfg *config.API, sessions session.Store, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:   rc,
		sessions: sessions,
		logger:   logger,
		limiter:  limiter,
	}
}

// SetRefresher registers the credential refresher. Until one is set, a 401
// clears the session immediately.
func (c *Client) SetRefresher(r TokenRefresher) {
	c.refresher = r
}

// NewRequest returns a request bound to this client's base URL, for the
// domain services to populate with bodies and result holders.
func (c *Client) NewRequest() *resty.Request {
	return c.client.R()
}

// Do sends an authenticated request. On a 401 it attempts one credential
// refresh and resends the original request exactly once; if the refresh
// fails the session is cleared and ErrSessionExpired is returned so the
// caller can route the user back to login.
func (c *Client) Do(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	if s := c.sessions.Current(); s.Valid() {
		req.SetHeader("Authorization", "Bearer "+s.AccessToken)
	}

	resp, err := c.execute(ctx, method, path, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusUnauthorized {
		return c.classify(resp)
	}

	// One silent refresh-and-retry, then give up.
	fresh, refreshErr := c.refresh(ctx)
	if refreshErr != nil || !fresh.Valid() {
		c.logger.Warn("Credential refresh failed, clearing session", zap.Error(refreshErr))
		if clearErr := c.sessions.Clear(); clearErr != nil {
			c.logger.Error("Failed to clear session after refresh failure", zap.Error(clearErr))
		}
		return nil, ErrSessionExpired
	}

	c.logger.Debug("Credential refreshed, retrying original request",
		zap.String("method", method), zap.String("path", path))

	req.SetHeader("Authorization", "Bearer "+fresh.AccessToken)
	resp, err = c.execute(ctx, method, path, req)
	if err != nil {
		return nil, err
	}
	return c.classify(resp)
}

// DoPlain sends a request without credential attachment or refresh handling.
// The auth endpoints use it: a 401 from login is a wrong password, not an
// expired session.
func (c *Client) DoPlain(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	resp, err := c.execute(ctx, method, path, req)
	if err != nil {
		return nil, err
	}
	return c.classify(resp)
}

func (c *Client) refresh(ctx context.Context) (*session.Session, error) {
	if c.refresher == nil {
		return nil, errors.New("no token refresher configured")
	}
	return c.refresher.RefreshToken(ctx)
}

// execute handles the actual send with rate limiting and request tagging.
func (c *Client) execute(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	requestID := uuid.NewString()
	req.SetContext(ctx)
	req.SetHeader(requestIDHeader, requestID)

	c.logger.Debug("Executing request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("Request did not reach the server",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp, nil
}

// classify maps an error response onto the taxonomy; successes pass through.
func (c *Client) classify(resp *resty.Response) (*resty.Response, error) {
	if !resp.IsError() {
		return resp, nil
	}
	return nil, newStatusError(resp.StatusCode(), resp.String())
}
