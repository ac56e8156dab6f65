package photo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseStorage uploads to a Supabase Storage bucket over its REST API.
type SupabaseStorage struct {
	BaseURL    string
	APIKey     string
	Bucket     string
	HTTPClient *http.Client
}

var _ Storage = (*SupabaseStorage)(nil)

func NewSupabaseStorage(baseURL, apiKey, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Bucket:  bucket,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// storageError is the error body returned by the storage API.
type storageError struct {
	StatusCode json.Number `json:"statusCode"`
	Error      string      `json:"error"`
	Message    string      `json:"message"`
}

func (s *SupabaseStorage) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, url.PathEscape(s.Bucket), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("apikey", s.APIKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", uploadError(resp.StatusCode, body)
	}

	return name, nil
}

// PublicURL builds the public object URL. It does not check that the
// bucket is public.
func (s *SupabaseStorage) PublicURL(_ context.Context, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, url.PathEscape(s.Bucket), url.PathEscape(path)), nil
}

func uploadError(status int, body []byte) error {
	var se storageError
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &se); err == nil && (se.Message != "" || se.Error != "") {
		msg = se.Message
		if msg == "" {
			msg = se.Error
		}
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden || isPolicyMessage(msg) {
		return &PolicyError{StatusCode: status, Message: msg}
	}
	return fmt.Errorf("upload failed with status %d: %s", status, msg)
}

func (s *SupabaseStorage) httpClient() *http.Client {
	if s.HTTPClient == nil {
		return http.DefaultClient
	}
	return s.HTTPClient
}
