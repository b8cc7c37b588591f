package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"trade-journal-go/internal/api"
	"trade-journal-go/internal/session"

	"go.uber.org/zap"
)

// Auth failure kinds the views branch on. Each still unwraps to the
// underlying api error for callers that care about the transport detail.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrDuplicateUser       = errors.New("a user with that name or email already exists")
	ErrAuthEndpointMissing = errors.New("auth endpoint not found, check api.base_url")
)

// AuthService translates login/register/logout/refresh into endpoint calls
// and normalizes the returned identity+credential into a Session. It also
// serves as the transport's TokenRefresher.
type AuthService struct {
	client   *api.Client
	sessions session.Store
	logger   *zap.Logger
}

var _ api.TokenRefresher = (*AuthService)(nil)

// NewAuthService creates the auth service and registers it as the client's
// credential refresher.
func NewAuthService(client *api.Client, sessions session.Store, logger *zap.Logger) *AuthService {
	svc := &AuthService{client: client, sessions: sessions, logger: logger}
	client.SetRefresher(svc)
	return svc
}

// authResponse is the wire shape of a successful credential exchange.
type authResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (r *authResponse) toSession() *session.Session {
	return &session.Session{
		ID:          r.ID,
		Username:    r.Username,
		Email:       r.Email,
		AccessToken: r.AccessToken,
	}
}

// Login exchanges credentials for a session and persists it. The endpoint
// takes form-encoded fields with the email in the "username" slot, an
// OAuth2 password-flow convention the server follows.
func (s *AuthService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	req := s.client.NewRequest().
		SetFormData(map[string]string{
			"username": email,
			"password": password,
		}).
		SetResult(&authResponse{})

	resp, err := s.client.DoPlain(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		case errors.Is(err, api.ErrNotFound):
			return nil, fmt.Errorf("%w: %w", ErrAuthEndpointMissing, err)
		default:
			return nil, fmt.Errorf("login failed: %w", err)
		}
	}

	sess := resp.Result().(*authResponse).toSession()
	if !sess.Valid() {
		return nil, errors.New("login response contained no access token")
	}
	if err := s.sessions.Set(sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("Logged in", zap.String("username", sess.Username))
	return sess, nil
}

// Register creates a new user and leaves the client logged in. Servers that
// issue a credential with the registration response short-circuit; those
// that answer with a bare user record get a follow-up credential exchange.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*session.Session, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	req := s.client.NewRequest().
		SetBody(body).
		SetResult(&authResponse{})

	resp, err := s.client.DoPlain(ctx, http.MethodPost, "/api/auth/register", req)
	if err != nil {
		if errors.Is(err, api.ErrConflict) || errors.Is(err, api.ErrValidation) {
			return nil, fmt.Errorf("%w: %w", ErrDuplicateUser, err)
		}
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	sess := resp.Result().(*authResponse).toSession()
	if !sess.Valid() {
		s.logger.Debug("Registration response carried no credential, logging in")
		return s.Login(ctx, email, password)
	}
	if err := s.sessions.Set(sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("Registered and logged in", zap.String("username", sess.Username))
	return sess, nil
}

// refreshResponse is the wire shape of a token refresh.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RefreshToken requests a new credential using the existing one. A missing
// session is a no-op, not an error. On success the updated session is
// persisted and returned.
func (s *AuthService) RefreshToken(ctx context.Context) (*session.Session, error) {
	current := s.sessions.Current()
	if !current.Valid() {
		return nil, nil
	}

	req := s.client.NewRequest().
		SetHeader("Authorization", "Bearer "+current.AccessToken).
		SetResult(&refreshResponse{})

	resp, err := s.client.DoPlain(ctx, http.MethodPost, "/api/auth/refresh", req)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	token := resp.Result().(*refreshResponse).AccessToken
	if token == "" {
		return nil, errors.New("refresh response contained no access token")
	}

	updated := *current
	updated.AccessToken = token
	if err := s.sessions.Set(&updated); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed session: %w", err)
	}
	return &updated, nil
}

// Logout invalidates the credential remotely on a best-effort basis. The
// local session is cleared no matter what: an explicit logout must never
// leave a locally logged-in client behind.
func (s *AuthService) Logout(ctx context.Context) error {
	current := s.sessions.Current()
	if current.Valid() {
		req := s.client.NewRequest().
			SetHeader("Authorization", "Bearer "+current.AccessToken)
		if _, err := s.client.DoPlain(ctx, http.MethodPost, "/api/auth/logout", req); err != nil {
			s.logger.Warn("Remote logout failed, clearing local session anyway", zap.Error(err))
		}
	}
	return s.sessions.Clear()
}
