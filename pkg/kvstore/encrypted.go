package kvstore

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aussiebroadwan/pawlog/pkg/cryptox"
)

// Encrypted seals every value before it reaches the inner store. Keys are
// stored in clear text so prefix listing keeps working.
type Encrypted struct {
	inner  Store
	sealer *cryptox.Sealer
}

var _ Store = (*Encrypted)(nil)

func NewEncrypted(inner Store, sealer *cryptox.Sealer) *Encrypted {
	return &Encrypted{inner: inner, sealer: sealer}
}

func (e *Encrypted) Get(ctx context.Context, key string) (string, bool, error) {
	raw, found, err := e.inner.Get(ctx, key)
	if err != nil || !found {
		return "", found, err
	}

	sealed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", false, fmt.Errorf("kvstore: decode %q: %w", key, err)
	}

	plain, err := e.sealer.Open(sealed)
	if err != nil {
		return "", false, fmt.Errorf("kvstore: open %q: %w", key, err)
	}

	return string(plain), true, nil
}

func (e *Encrypted) Set(ctx context.Context, key, value string) error {
	sealed, err := e.sealer.Seal([]byte(value))
	if err != nil {
		return fmt.Errorf("kvstore: seal %q: %w", key, err)
	}
	return e.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

func (e *Encrypted) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}

func (e *Encrypted) Keys(ctx context.Context, prefix string) ([]string, error) {
	return e.inner.Keys(ctx, prefix)
}

func (e *Encrypted) Close() error {
	return e.inner.Close()
}
