package pawsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	oauthPath    = "/auth/oauth"
	refreshPath  = "/auth/refresh"
	mePath       = "/auth/me"
	logoutPath   = "/auth/logout"
)

// Login authenticates with email and password and stores the returned
// token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.authenticate(ctx, loginPath, LoginRequest{Email: email, Password: password})
}

// Register creates an account and stores the returned token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	return c.authenticate(ctx, registerPath, req)
}

// LoginWithOAuth exchanges an identity provider's access token for a
// session.
func (c *Client) LoginWithOAuth(ctx context.Context, provider, accessToken string) (*TokenResponse, error) {
	return c.authenticate(ctx, oauthPath, OAuthRequest{Provider: provider, AccessToken: accessToken})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.do(ctx, http.MethodPost, path, body, &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("pawsdk: %s returned no access token", path)
	}

	if c.Tokens != nil {
		if err := c.Tokens.SetPair(ctx, tr.AccessToken, tr.RefreshToken); err != nil {
			return nil, fmt.Errorf("failed to store tokens: %w", err)
		}
	}
	return &tr, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, mePath, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout tells the server the session is over, then forgets the local
// tokens and cached responses. The server call is best effort.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, logoutPath, nil, nil); err != nil {
		c.logger(ctx).Info("logout request failed", "error", err)
	}

	var errs []error
	if c.Tokens != nil {
		errs = append(errs, c.Tokens.Clear(ctx))
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.InvalidateAll(ctx))
	}
	return errors.Join(errs...)
}

// RefreshSession exchanges the stored refresh token for a new pair.
func (c *Client) RefreshSession(ctx context.Context) (*TokenResponse, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

// bearer returns the token to send with a request to path, refreshing it
// first when it is a JWT about to expire.
func (c *Client) bearer(ctx context.Context, path string) (string, error) {
	if c.Tokens == nil {
		return "", nil
	}

	token, err := c.Tokens.Access(ctx)
	if err != nil {
		return "", err
	}
	if token == "" || sessionless(path) || !expiresWithin(token, refreshLeeway, c.now()) {
		return token, nil
	}

	if err := c.refresh(ctx, token); err != nil {
		c.logger(ctx).Info("proactive token refresh failed", "error", err)
	}
	return c.Tokens.Access(ctx)
}

// refresh renews the session unless another caller already replaced the
// stale token while we waited for the lock.
func (c *Client) refresh(ctx context.Context, stale string) error {
	if c.Tokens == nil {
		return ErrNoRefreshToken
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current, err := c.Tokens.Access(ctx)
	if err != nil {
		return err
	}
	if current != "" && current != stale {
		return nil
	}

	_, err = c.refreshLocked(ctx)
	return err
}

func (c *Client) refreshLocked(ctx context.Context) (*TokenResponse, error) {
	if c.Tokens == nil {
		return nil, ErrNoRefreshToken
	}

	rt, err := c.Tokens.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if rt == "" {
		return nil, ErrNoRefreshToken
	}

	var tr TokenResponse
	err = c.do(ctx, http.MethodPost, refreshPath, RefreshRequest{RefreshToken: rt}, &tr)
	if StatusCode(err) == http.StatusUnauthorized {
		if cerr := c.Tokens.Clear(ctx); cerr != nil {
			c.logger(ctx).Warn("failed to clear rejected session", "error", cerr)
		}
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := c.Tokens.SetPair(ctx, tr.AccessToken, tr.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store tokens: %w", err)
	}
	return &tr, nil
}

// sessionless reports whether path establishes a session rather than
// using one.
func sessionless(path string) bool {
	switch path {
	case loginPath, registerPath, oauthPath, refreshPath:
		return true
	}
	return false
}

// expiresWithin reports whether token is a JWT whose exp claim falls within
// d of now. Opaque tokens never report as expiring.
func expiresWithin(token string, d time.Duration, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Sub(now) < d
}
