package offline

import (
	"context"
)

// FetchWithCache runs call and stores its result under key. When call fails
// and a cached value exists, the cached value is returned instead; otherwise
// the call's error is returned unchanged. The cache is only read after the
// live call has failed.
func FetchWithCache[T any](ctx context.Context, c *Cache, key string, call func(context.Context) (T, error)) (T, error) {
	v, err := call(ctx)
	if err == nil {
		if c != nil {
			if serr := c.Set(ctx, key, v); serr != nil {
				c.logger().Warn("failed to cache response", "key", key, "error", serr)
			}
		}
		return v, nil
	}

	if c == nil {
		return v, err
	}

	var cached T
	if c.Lookup(ctx, key, &cached) {
		c.logger().Info("serving cached response", "key", key, "error", err)
		return cached, nil
	}

	return v, err
}
