package pawsdk

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/pawlog/pkg/offline"
	"github.com/aussiebroadwan/pawlog/pkg/slogx"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2

	// refreshLeeway is how close to expiry an access token may get before it
	// is refreshed ahead of a request.
	refreshLeeway = 30 * time.Second
)

// DefaultRetryDelays is the wait before each retry. Retries beyond the end
// of the table reuse the last entry.
var DefaultRetryDelays = []time.Duration{2 * time.Second, 5 * time.Second}

// TokenStore is the credential storage the client reads and updates.
// *tokenstore.Store satisfies it.
type TokenStore interface {
	Access(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
	SetPair(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// Client talks to the pawlog REST API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Tokens supplies the bearer token. A nil store sends every request
	// unauthenticated.
	Tokens TokenStore

	// Timeout bounds each attempt, not the whole retry sequence.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts made after a network error.
	MaxRetries int

	RetryDelays []time.Duration

	// Limiter, when set, is waited on before every attempt.
	Limiter *rate.Limiter

	// Cache, when set, serves GET responses while the API is unreachable.
	Cache *offline.Cache

	Logger *slog.Logger

	// Now is the clock used for token expiry checks. Defaults to time.Now.
	Now func() time.Time

	refreshMu sync.Mutex
}

// NewClient creates a client with the default timeout and retry policy.
// Outbound requests are logged through slogx.Transport.
func NewClient(baseURL string, tokens TokenStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Transport: slogx.NewTransport(http.DefaultTransport, logger),
		},
		Tokens:      tokens,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		RetryDelays: DefaultRetryDelays,
		Logger:      logger,
		Now:         time.Now,
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Client) maxRetries() int {
	if c.MaxRetries < 0 {
		return 0
	}
	return c.MaxRetries
}

// retryDelay returns the wait after the given failed attempt (1-based).
func (c *Client) retryDelay(attempt int) time.Duration {
	delays := c.RetryDelays
	if len(delays) == 0 {
		delays = DefaultRetryDelays
	}
	if attempt-1 < len(delays) {
		return delays[attempt-1]
	}
	return delays[len(delays)-1]
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger(ctx context.Context) *slog.Logger {
	if l := slogx.FromContext(ctx); l != nil && l != slog.Default() {
		return l
	}
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
