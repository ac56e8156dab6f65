package cryptox

import (
	"crypto/rand"
	"fmt"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomBase36 returns n characters drawn uniformly from [0-9a-z].
func RandomBase36(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("length must be positive, got %d", n)
	}

	out := make([]byte, n)
	buf := make([]byte, n)
	for i := 0; i < n; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			// Reject to keep the distribution uniform (252 = 36*7)
			if b >= 252 {
				continue
			}
			out[i] = base36[b%36]
			i++
			if i == n {
				break
			}
		}
	}

	return string(out), nil
}
