package pawsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/pawlog/pkg/slogx"
	"github.com/avast/retry-go/v4"
	"github.com/oklog/ulid/v2"
)

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// NoContent reports whether the server answered 204 and sent no body.
func (r *Response) NoContent() bool {
	return r.StatusCode == http.StatusNoContent
}

// Decode unmarshals the response body into target. A 204 leaves target
// untouched.
func (r *Response) Decode(target any) error {
	if r.NoContent() || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Request sends a JSON request to path and returns the response.
//
// Each attempt is bounded by Timeout. Network failures are retried up to
// MaxRetries times with the RetryDelays schedule; timeouts and HTTP errors
// end the request immediately. A 401 on a non-auth path triggers one token
// refresh and one replay.
func (c *Client) Request(ctx context.Context, method, path string, body any) (*Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	reqID := ulid.Make().String()
	ctx = slogx.WithContext(ctx, c.logger(ctx).With("req_id", reqID))

	token, err := c.bearer(ctx, path)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, path, payload, token, reqID)
	if StatusCode(err) != http.StatusUnauthorized || isAuthPath(path) {
		return resp, err
	}

	if rerr := c.refresh(ctx, token); rerr != nil {
		c.logger(ctx).Info("token refresh after 401 failed", "path", path, "error", rerr)
		return resp, err
	}

	token, terr := c.bearer(ctx, path)
	if terr != nil {
		return nil, terr
	}
	return c.send(ctx, method, path, payload, token, reqID)
}

// send runs the retry loop for one logical request.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token, reqID string) (*Response, error) {
	var (
		resp    *Response
		attempt int
	)

	err := retry.Do(
		func() error {
			attempt++
			r, err := c.attempt(ctx, method, path, payload, token, reqID)
			if err != nil {
				c.logger(ctx).Warn("request attempt failed",
					"method", method,
					"path", path,
					"attempt", attempt,
					"kind", KindOf(err).String(),
					"error", err,
				)
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries()+1)),
		retry.RetryIf(func(err error) bool {
			return KindOf(err) == KindNetwork
		}),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return c.retryDelay(attempt)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// attempt performs a single HTTP exchange under its own deadline.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, token, reqID string) (*Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(slogx.RequestIDHeader, reqID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, c.classify(ctx, attemptCtx, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.classify(ctx, attemptCtx, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, parseErrorResponse(httpResp.StatusCode, data)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		RequestID:  reqID,
	}
	if httpResp.StatusCode != http.StatusNoContent {
		resp.Body = data
	}
	return resp, nil
}

// classify maps a transport failure onto the error taxonomy. The caller's
// own cancellation is returned as is.
func (c *Client) classify(ctx, attemptCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{After: c.timeout()}
	}
	return &NetworkError{Err: err}
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}
