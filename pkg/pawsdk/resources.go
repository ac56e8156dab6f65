package pawsdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/pawlog/pkg/offline"
)

// do sends a request and decodes the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.Request(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// fetch GETs path. With a cache configured, a failed request is answered
// from the last successful response for the same path.
func fetch[T any](ctx context.Context, c *Client, path string) (T, error) {
	call := func(ctx context.Context) (T, error) {
		var out T
		err := c.do(ctx, http.MethodGet, path, nil, &out)
		return out, err
	}

	if c.Cache == nil {
		return call(ctx)
	}
	return offline.FetchWithCache(ctx, c.Cache, path, call)
}

// mutate sends a write and drops the cached reads it makes stale.
func mutate[T any](ctx context.Context, c *Client, method, path string, in any, stale ...string) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	c.invalidate(ctx, stale...)
	return &out, nil
}

func remove(ctx context.Context, c *Client, path string, stale ...string) error {
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, stale...)
	return nil
}

func (c *Client) invalidate(ctx context.Context, keys ...string) {
	if c.Cache == nil {
		return
	}
	for _, k := range keys {
		if err := c.Cache.Invalidate(ctx, k); err != nil {
			c.logger(ctx).Warn("failed to invalidate cache entry", "key", k, "error", err)
		}
	}
}

func petPath(petID int64) string {
	return fmt.Sprintf("/pets/%d", petID)
}

func petLogPath(petID int64, resource string) string {
	return fmt.Sprintf("/pets/%d/%s", petID, resource)
}

func itemPath(resource string, id int64) string {
	return fmt.Sprintf("/%s/%d", resource, id)
}
