package pawsdk

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/pawlog/pkg/kvstore"
	"github.com/aussiebroadwan/pawlog/pkg/slogx"
	"github.com/aussiebroadwan/pawlog/pkg/tokenstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, h http.Handler) (*Client, *tokenstore.Store) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tokens := tokenstore.New(kvstore.NewMemory())
	c := NewClient(srv.URL, tokens, slogx.Discard())
	c.RetryDelays = []time.Duration{time.Millisecond}
	return c, tokens
}

func TestRequest_RetriesNetworkErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := NewClient("http://pawlog.invalid", nil, slogx.Discard())
	c.RetryDelays = []time.Duration{time.Millisecond, 2 * time.Millisecond}
	c.HTTPClient = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	})}

	_, err := c.Request(context.Background(), http.MethodGet, "/pets", nil)
	require.Error(t, err)
	require.Equal(t, KindNetwork, KindOf(err))
	require.Equal(t, int32(DefaultMaxRetries+1), calls.Load())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Contains(t, err.Error(), "connection refused")
}

func TestRequest_RecoversAfterNetworkError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := NewClient("http://pawlog.invalid", nil, slogx.Discard())
	c.RetryDelays = []time.Duration{time.Millisecond}
	c.HTTPClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("network request failed")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(stringReader(`[{"id":1,"name":"Rex","species":"dog"}]`)),
			Header:     http.Header{},
			Request:    r,
		}, nil
	})}

	pets, err := c.ListPets(context.Background())
	require.NoError(t, err)
	require.Len(t, pets, 1)
	require.Equal(t, int32(2), calls.Load())
}

func TestRequest_NoRetryOnHTTPError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"not found"}`))
	}))

	_, err := c.Request(context.Background(), http.MethodGet, "/pets/99", nil)
	require.EqualError(t, err, "not found")
	require.Equal(t, KindHTTP, KindOf(err))
	require.Equal(t, http.StatusNotFound, StatusCode(err))
	require.Equal(t, int32(1), calls.Load())
}

func TestRequest_NoRetryOnTimeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	c.Timeout = 50 * time.Millisecond

	_, err := c.Request(context.Background(), http.MethodGet, "/pets", nil)
	require.EqualError(t, err, "request timed out")
	require.Equal(t, KindTimeout, KindOf(err))
	require.Equal(t, int32(1), calls.Load())
}

func TestRequest_CallerCancellation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Request(ctx, http.MethodGet, "/pets", nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, KindNone, KindOf(err))
	require.Zero(t, calls.Load())
}

func TestRequest_NoContent(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	resp, err := c.Request(context.Background(), http.MethodDelete, "/pets/1", nil)
	require.NoError(t, err)
	require.True(t, resp.NoContent())
	require.Empty(t, resp.Body)

	var out map[string]any
	require.NoError(t, resp.Decode(&out))
	require.Nil(t, out)
}

func TestRequest_Headers(t *testing.T) {
	t.Parallel()

	type seen struct {
		auth, contentType, reqID string
		body                     string
	}
	got := make(chan seen, 2)

	c, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- seen{
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			reqID:       r.Header.Get(slogx.RequestIDHeader),
			body:        string(b),
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		_, err := c.Request(ctx, http.MethodGet, "/pets", nil)
		require.NoError(t, err)

		s := <-got
		require.Empty(t, s.auth)
		require.Equal(t, "application/json", s.contentType)
		require.Len(t, s.reqID, 26)
		require.Empty(t, s.body)
	})

	t.Run("authenticated with body", func(t *testing.T) {
		require.NoError(t, tokens.SetPair(ctx, "opaque-token", ""))

		_, err := c.Request(ctx, http.MethodPost, "/pets", PetInput{Name: "Rex", Species: "dog"})
		require.NoError(t, err)

		s := <-got
		require.Equal(t, "Bearer opaque-token", s.auth)
		require.JSONEq(t, `{"name":"Rex","species":"dog"}`, s.body)
	})
}

func TestRequest_Limiter(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	c.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := c.Request(context.Background(), http.MethodGet, "/pets", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Request(ctx, http.MethodGet, "/pets", nil)
	require.Error(t, err)
	require.NotEqual(t, KindNetwork, KindOf(err))
}

func TestRetryDelaySchedule(t *testing.T) {
	t.Parallel()

	c := &Client{RetryDelays: []time.Duration{2 * time.Second, 5 * time.Second}}
	require.Equal(t, 2*time.Second, c.retryDelay(1))
	require.Equal(t, 5*time.Second, c.retryDelay(2))
	require.Equal(t, 5*time.Second, c.retryDelay(3))
	require.Equal(t, 5*time.Second, c.retryDelay(10))

	c = &Client{}
	require.Equal(t, DefaultRetryDelays[0], c.retryDelay(1))
}
