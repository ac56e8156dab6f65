package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewSealer([]byte("correct horse battery staple"))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("refresh-token-value"))
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "refresh-token-value")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "refresh-token-value", string(plain))
}

func TestSealerNonceIsRandom(t *testing.T) {
	t.Parallel()

	s, err := NewSealer([]byte("key"))
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSealerRejectsTampering(t *testing.T) {
	t.Parallel()

	s, err := NewSealer([]byte("key"))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("payload"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = s.Open(sealed)
	require.Error(t, err)

	_, err = s.Open([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestSealerDifferentKeys(t *testing.T) {
	t.Parallel()

	a, err := NewSealer([]byte("key-a"))
	require.NoError(t, err)
	b, err := NewSealer([]byte("key-b"))
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"))
	require.NoError(t, err)
	_, err = b.Open(sealed)
	require.Error(t, err)

	_, err = NewSealer(nil)
	require.Error(t, err)
}

func TestRandomBase36(t *testing.T) {
	t.Parallel()

	s, err := RandomBase36(9)
	require.NoError(t, err)
	require.Len(t, s, 9)
	for _, r := range s {
		require.True(t, strings.ContainsRune(base36, r))
	}

	_, err = RandomBase36(0)
	require.Error(t, err)
}
