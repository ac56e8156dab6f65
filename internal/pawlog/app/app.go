package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aussiebroadwan/pawlog/pkg/cryptox"
	"github.com/aussiebroadwan/pawlog/pkg/kvstore"
	"github.com/aussiebroadwan/pawlog/pkg/kvstore/drivers/redis"
	"github.com/aussiebroadwan/pawlog/pkg/kvstore/drivers/sqlite"
	"github.com/aussiebroadwan/pawlog/pkg/notify"
	"github.com/aussiebroadwan/pawlog/pkg/offline"
	"github.com/aussiebroadwan/pawlog/pkg/pawsdk"
	"github.com/aussiebroadwan/pawlog/pkg/photo"
	"github.com/aussiebroadwan/pawlog/pkg/slogx"
	"github.com/aussiebroadwan/pawlog/pkg/tokenstore"
	"golang.org/x/time/rate"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// ErrShutdownTimeout is returned by Shutdown when background work outlives
// the grace period.
var ErrShutdownTimeout = errors.New("shutdown timed out")

// Application wires the client core together: storage, session, API
// client, photo pipeline and the notification channel.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store   kvstore.Store
	tokens  *sessionTokens
	cache   *offline.Cache
	janitor *offline.Janitor

	client  *pawsdk.Client
	photos  *photo.Pipeline
	blob    *photo.BlobStorage
	channel *notify.Channel

	janitorRunning bool
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	logger := slogx.New(slogx.Config{
		Service: "pawlog",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})
	return newApplication(cfg, logger)
}

func newApplication(cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger}

	if err := app.initStorage(); err != nil {
		return nil, err
	}
	if err := app.initPhotos(); err != nil {
		_ = app.store.Close()
		return nil, err
	}
	app.initNotify()
	app.initClient()

	return app, nil
}

// Client exposes the API client for commands that need direct access.
func (app *Application) Client() *pawsdk.Client { return app.client }

// Channel exposes the notification channel.
func (app *Application) Channel() *notify.Channel { return app.channel }

// Run restores or establishes a session, starts background work and blocks
// until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	app.janitor.Start()
	app.janitorRunning = true

	app.logger.Info("pawlog starting", "api", app.cfg.API.BaseURL, "version", BuildVersion)

	if err := app.SignIn(ctx); err != nil {
		app.logger.Warn("no session, notifications disabled", "error", err)
	} else {
		app.summarize(ctx)
	}

	<-ctx.Done()
	app.logger.Info("shutdown requested", "reason", context.Cause(ctx))
	return app.Shutdown()
}

// SignIn reuses a stored session when there is one, otherwise logs in with
// the configured credentials. The notification channel follows the session.
func (app *Application) SignIn(ctx context.Context) error {
	access, err := app.tokens.Access(ctx)
	if err != nil {
		app.logger.Warn("discarding unreadable stored session", "error", err)
		if cerr := app.tokens.Clear(ctx); cerr != nil {
			return fmt.Errorf("clear unreadable session: %w", cerr)
		}
		access = ""
	}
	if access != "" {
		app.logger.Info("restored stored session")
		app.tokens.follow(access)
		return nil
	}

	if app.cfg.Credentials.Email == "" {
		return errors.New("no stored session and no credentials configured")
	}
	if _, err := app.client.Login(ctx, app.cfg.Credentials.Email, app.cfg.Credentials.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	app.photos.Reset()
	app.logger.Info("signed in", "email", app.cfg.Credentials.Email)
	return nil
}

// summarize logs the signed in user and the feeding status of each pet.
// Responses come from the offline cache when the API is unreachable.
func (app *Application) summarize(ctx context.Context) {
	user, err := app.client.Me(ctx)
	if err != nil {
		app.logger.Warn("failed to load profile", "error", err, "kind", pawsdk.KindOf(err).String())
		return
	}
	app.logger.Info("profile loaded", "user_id", user.ID, "email", user.Email)

	pets, err := app.client.ListPets(ctx)
	if err != nil {
		app.logger.Warn("failed to load pets", "error", err)
		return
	}

	now := time.Now()
	for _, pet := range pets {
		logs, err := app.client.ListFeeding(ctx, pet.ID)
		if err != nil {
			app.logger.Warn("failed to load feeding logs", "pet_id", pet.ID, "error", err)
			continue
		}
		app.logger.Info("pet status",
			"pet_id", pet.ID,
			"name", pet.Name,
			"feeding", string(pawsdk.FeedingStatusFor(pawsdk.LastFed(logs), now)),
		)
	}
}

// PreparePhoto compresses the image at path and returns its photo_url.
func (app *Application) PreparePhoto(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return app.photos.Prepare(ctx, f)
}

// Shutdown stops background work and releases storage. An in-progress
// cache purge is given ShutdownGracePeriod to finish.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down pawlog...")

	var errs []error
	app.channel.Stop()
	if err := app.stopJanitor(); err != nil {
		app.logger.Error("cache janitor did not stop", "error", err)
		errs = append(errs, err)
	}

	if app.blob != nil {
		errs = append(errs, app.blob.Close())
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing storage", "error", err)
		errs = append(errs, err)
	}

	app.logger.Info("pawlog stopped")
	return errors.Join(errs...)
}

func (app *Application) stopJanitor() error {
	if !app.janitorRunning {
		return nil
	}
	app.janitorRunning = false

	done := make(chan struct{})
	go func() {
		app.janitor.Stop()
		close(done)
	}()

	grace := app.cfg.ShutdownGracePeriod
	if grace <= 0 {
		grace = DefaultConfig().ShutdownGracePeriod
	}
	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, grace)
	}
}

// initStorage opens the configured key-value driver, optionally sealed with
// the master key, and builds the token store and cache on top of it.
func (app *Application) initStorage() error {
	var store kvstore.Store

	switch app.cfg.Storage.Driver {
	case "memory":
		store = kvstore.NewMemory()
	case "redis":
		rs := redis.NewStore(app.cfg.Storage.RedisAddr, app.cfg.Storage.RedisNamespace)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = rs
	default:
		db, err := sqlite.Open(app.cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.logger.Info("database migrations applied successfully", "path", app.cfg.Storage.Path)
		store = db
	}

	if app.cfg.Storage.MasterKeyFile != "" {
		sealer, err := cryptox.NewSealerFromFile(app.cfg.Storage.MasterKeyFile)
		if err != nil {
			_ = store.Close()
			return err
		}
		store = kvstore.NewEncrypted(store, sealer)
		app.logger.Info("storage encryption enabled")
	}

	app.store = store
	app.cache = offline.NewCache(store, app.logger)
	app.cache.TTL = app.cfg.Cache.TTL
	app.janitor = offline.NewJanitor(app.cache, app.logger, app.cfg.Cache.PurgeInterval)
	return nil
}

func (app *Application) initPhotos() error {
	var storage photo.Storage

	switch app.cfg.Photo.Provider {
	case "supabase":
		storage = photo.NewSupabaseStorage(app.cfg.Photo.SupabaseURL, app.cfg.Photo.SupabaseKey, app.cfg.Photo.Bucket)
	case "blob":
		bs, err := photo.OpenBlobStorage(context.Background(), app.cfg.Photo.BlobURL, app.cfg.Photo.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("failed to open photo storage: %w", err)
		}
		app.blob = bs
		storage = bs
	}

	app.photos = photo.NewPipeline(storage, app.logger)
	return nil
}

func (app *Application) initNotify() {
	ch := notify.NewChannel(app.cfg.API.BaseURL, notify.NewWebSocketDialer(), app.logger)
	ch.PingInterval = app.cfg.Notify.PingInterval
	ch.ReconnectDelay = app.cfg.Notify.ReconnectDelay
	ch.DisplayDuration = app.cfg.Notify.DisplayDuration

	ch.Subscribe(func(items []notify.Notification) {
		if len(items) == 0 {
			return
		}
		n := items[0]
		app.logger.Info("reminder",
			"type", n.Type,
			"pet", n.PetName,
			"medication", n.MedicationName,
			"dosage", n.Dosage,
			"scheduled", n.ScheduledTime,
			"visible", len(items),
		)
	})

	app.channel = ch
}

func (app *Application) initClient() {
	app.tokens = &sessionTokens{
		Store:   tokenstore.New(app.store),
		channel: app.channel,
		enabled: app.cfg.Notify.Enabled,
	}

	client := pawsdk.NewClient(app.cfg.API.BaseURL, app.tokens, app.logger)
	client.Timeout = app.cfg.API.Timeout
	client.MaxRetries = app.cfg.API.MaxRetries
	client.Cache = app.cache
	if app.cfg.API.RequestsPerSecond > 0 {
		client.Limiter = rate.NewLimiter(rate.Limit(app.cfg.API.RequestsPerSecond), max(app.cfg.API.Burst, 1))
	}

	app.client = client
}
