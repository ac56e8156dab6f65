package notify

import (
	"fmt"
	"net/url"
)

const socketPath = "/ws/notifications"

// URL maps the API base URL onto the notification socket endpoint:
// http becomes ws and https becomes wss.
func URL(apiBase, token string) (string, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("notify: parse api base: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("notify: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("notify: api base %q has no host", apiBase)
	}

	u.Path = socketPath
	u.RawPath = ""
	u.Fragment = ""
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}
