package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/pawlog/pkg/kvstore"
	"github.com/aussiebroadwan/pawlog/pkg/kvstore/drivers/sqlite"
	"github.com/aussiebroadwan/pawlog/pkg/pawsdk"
	"github.com/aussiebroadwan/pawlog/pkg/slogx"
	"github.com/aussiebroadwan/pawlog/pkg/tokenstore"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers login, profile and pet requests.
type fakeAPI struct {
	logins atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/login":
		f.logins.Add(1)
		var req pawsdk.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(pawsdk.TokenResponse{AccessToken: "access-1", RefreshToken: "refresh-1"})
	case "/auth/me":
		_ = json.NewEncoder(w).Encode(pawsdk.User{ID: 1, Email: "owner@example.com"})
	case "/pets":
		_ = json.NewEncoder(w).Encode([]pawsdk.Pet{{ID: 3, Name: "Rex", Species: "dog"}})
	case "/pets/3/feeding":
		_, _ = w.Write([]byte(`[]`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found"}`))
	}
}

func testConfig(t *testing.T, baseURL string) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.MaxRetries = 0
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "pawlog.db")
	cfg.Notify.Enabled = false
	cfg.Credentials.Email = "owner@example.com"
	cfg.Credentials.Password = "hunter2"
	return cfg
}

func TestSignIn_LogsInAndPersistsSession(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL)
	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.SignIn(ctx))
	require.Equal(t, int32(1), api.logins.Load())

	access, err := app.tokens.Access(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-1", access)

	app.summarize(ctx)
	require.NoError(t, app.Shutdown())

	// A second process reuses the stored session.
	app, err = newApplication(cfg, slogx.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	require.NoError(t, app.SignIn(ctx))
	require.Equal(t, int32(1), api.logins.Load())
}

func TestSignIn_RejectedCredentials(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(&fakeAPI{})
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL)
	cfg.Storage.Driver = "memory"
	cfg.Credentials.Password = "wrong"

	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	err = app.SignIn(context.Background())
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, pawsdk.StatusCode(err))
}

func TestSignIn_NoCredentials(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Storage.Driver = "memory"
	cfg.Credentials.Email = ""

	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	require.Error(t, app.SignIn(context.Background()))
}

func writeKey(t *testing.T, path, material string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(material), 0o600))
}

func TestEncryptedStorage(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(&fakeAPI{})
	t.Cleanup(srv.Close)

	keyFile := filepath.Join(t.TempDir(), "master.key")
	writeKey(t, keyFile, "0123456789abcdef0123456789abcdef")

	cfg := testConfig(t, srv.URL)
	cfg.Storage.MasterKeyFile = keyFile

	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.SignIn(ctx))

	access, err := app.tokens.Access(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-1", access)
	require.NoError(t, app.Shutdown())

	db, err := sqlite.Open(cfg.Storage.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	raw, found, err := db.Get(ctx, tokenstore.AccessKey)
	require.NoError(t, err)
	require.True(t, found)
	require.NotEmpty(t, raw)
	require.NotContains(t, raw, "access-1")
}

func TestSignIn_UnreadableSessionFallsBackToLogin(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	keyFile := filepath.Join(t.TempDir(), "master.key")
	writeKey(t, keyFile, "first-key-material-0123456789abc")

	cfg := testConfig(t, srv.URL)
	cfg.Storage.MasterKeyFile = keyFile
	ctx := context.Background()

	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)
	require.NoError(t, app.SignIn(ctx))
	require.NoError(t, app.Shutdown())

	// The stored tokens can no longer be opened with the new key.
	writeKey(t, keyFile, "second-key-material-0123456789ab")

	app, err = newApplication(cfg, slogx.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	require.NoError(t, app.SignIn(ctx))
	require.Equal(t, int32(2), api.logins.Load())

	access, err := app.tokens.Access(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-1", access)
}

// stallingStore blocks Keys until release is closed, holding a cache purge
// open.
type stallingStore struct {
	kvstore.Store
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return s.Store.Keys(ctx, prefix)
}

func TestShutdown_GracePeriodBoundsJanitor(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Storage.Driver = "memory"
	cfg.ShutdownGracePeriod = 50 * time.Millisecond

	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)

	stall := &stallingStore{
		Store:   kvstore.NewMemory(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	t.Cleanup(func() { close(stall.release) })
	app.cache.Store = stall

	app.janitor.Start()
	app.janitorRunning = true
	<-stall.entered

	start := time.Now()
	err = app.Shutdown()
	require.ErrorIs(t, err, ErrShutdownTimeout)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestShutdown_StopsJanitor(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Storage.Driver = "memory"

	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)

	app.janitor.Start()
	app.janitorRunning = true
	require.NoError(t, app.Shutdown())
	require.False(t, app.janitorRunning)
}

func TestPreparePhoto_InlinesWithoutStorage(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Storage.Driver = "memory"

	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	path := filepath.Join(t.TempDir(), "rex.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	url, err := app.PreparePhoto(context.Background(), path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	_, err = app.PreparePhoto(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

func TestPreparePhoto_BlobProvider(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Storage.Driver = "memory"
	cfg.Photo.Provider = "blob"
	cfg.Photo.BlobURL = "mem://"
	cfg.Photo.PublicBaseURL = "https://cdn.example.com/photos"

	app, err := newApplication(cfg, slogx.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	path := filepath.Join(t.TempDir(), "rex.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	url, err := app.PreparePhoto(context.Background(), path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://cdn.example.com/photos/"), url)
	require.True(t, strings.HasSuffix(url, ".jpg"), url)
}
