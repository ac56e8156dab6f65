package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override the config file.
// PAWLOG_API_BASEURL sets api.baseURL.
const EnvPrefix = "PAWLOG_"

type Config struct {
	Env string `koanf:"env"` // dev, staging, prod (default: dev)

	Log struct {
		Level  string `koanf:"level"`  // debug, info, warn, error (default: info)
		Format string `koanf:"format"` // json, text (default: json)
	} `koanf:"log"`

	API struct {
		BaseURL           string        `koanf:"baseURL"`
		Timeout           time.Duration `koanf:"timeout"`           // per attempt (default: 60s)
		MaxRetries        int           `koanf:"maxRetries"`        // network retries (default: 2)
		RequestsPerSecond float64       `koanf:"requestsPerSecond"` // 0 disables the limiter
		Burst             int           `koanf:"burst"`
	} `koanf:"api"`

	Storage struct {
		Driver         string `koanf:"driver"` // memory, sqlite, redis (default: sqlite)
		Path           string `koanf:"path"`   // sqlite database file (default: pawlog.db)
		RedisAddr      string `koanf:"redisAddr"`
		RedisNamespace string `koanf:"redisNamespace"`
		MasterKeyFile  string `koanf:"masterKeyFile"` // optional: encrypts values at rest
	} `koanf:"storage"`

	Cache struct {
		TTL           time.Duration `koanf:"ttl"`           // default: 30m
		PurgeInterval time.Duration `koanf:"purgeInterval"` // default: ttl
	} `koanf:"cache"`

	Photo struct {
		Provider      string `koanf:"provider"` // none, supabase, blob (default: none)
		SupabaseURL   string `koanf:"supabaseURL"`
		SupabaseKey   string `koanf:"supabaseKey"`
		Bucket        string `koanf:"bucket"`
		BlobURL       string `koanf:"blobURL"` // e.g. file:///var/pawlog/photos, mem://
		PublicBaseURL string `koanf:"publicBaseURL"`
	} `koanf:"photo"`

	Notify struct {
		Enabled         bool          `koanf:"enabled"`
		PingInterval    time.Duration `koanf:"pingInterval"`
		ReconnectDelay  time.Duration `koanf:"reconnectDelay"`
		DisplayDuration time.Duration `koanf:"displayDuration"`
	} `koanf:"notify"`

	Credentials struct {
		Email    string `koanf:"email"`
		Password string `koanf:"password"`
	} `koanf:"credentials"`

	ShutdownGracePeriod time.Duration `koanf:"shutdownGracePeriod"` // default: 10s
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	var cfg Config
	cfg.Env = "dev"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.API.BaseURL = "http://localhost:8000"
	cfg.API.Timeout = 60 * time.Second
	cfg.API.MaxRetries = 2
	cfg.API.Burst = 1
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Path = "pawlog.db"
	cfg.Storage.RedisAddr = "localhost:6379"
	cfg.Storage.RedisNamespace = "pawlog:"
	cfg.Cache.TTL = 30 * time.Minute
	cfg.Photo.Provider = "none"
	cfg.Photo.Bucket = "pet-photos"
	cfg.Notify.Enabled = true
	cfg.Notify.PingInterval = 30 * time.Second
	cfg.Notify.ReconnectDelay = 5 * time.Second
	cfg.Notify.DisplayDuration = 15 * time.Second
	cfg.ShutdownGracePeriod = 10 * time.Second
	return cfg
}

// LoadConfig reads the optional YAML file at path and then applies
// PAWLOG_ environment overrides on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	existing := k.Raw()
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return canonicalizeEnvKey(strings.TrimPrefix(key, EnvPrefix), existing), value
		},
	}), nil); err != nil {
		return cfg, fmt.Errorf("load env variables: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Cache.PurgeInterval <= 0 {
		cfg.Cache.PurgeInterval = cfg.Cache.TTL
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (cfg Config) Validate() error {
	var errs []error

	if cfg.API.BaseURL == "" {
		errs = append(errs, errors.New("api.baseURL is required"))
	}
	if cfg.API.MaxRetries < 0 {
		errs = append(errs, errors.New("api.maxRetries must not be negative"))
	}

	switch cfg.Storage.Driver {
	case "memory":
	case "sqlite":
		if cfg.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite driver"))
		}
	case "redis":
		if cfg.Storage.RedisAddr == "" {
			errs = append(errs, errors.New("storage.redisAddr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver))
	}
	if cfg.Storage.MasterKeyFile != "" {
		if _, err := os.Stat(cfg.Storage.MasterKeyFile); err != nil {
			errs = append(errs, fmt.Errorf("storage.masterKeyFile: %w", err))
		}
	}

	switch cfg.Photo.Provider {
	case "", "none":
	case "supabase":
		if cfg.Photo.SupabaseURL == "" || cfg.Photo.SupabaseKey == "" {
			errs = append(errs, errors.New("photo.supabaseURL and photo.supabaseKey are required for the supabase provider"))
		}
	case "blob":
		if cfg.Photo.BlobURL == "" {
			errs = append(errs, errors.New("photo.blobURL is required for the blob provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown photo.provider %q", cfg.Photo.Provider))
	}

	return errors.Join(errs...)
}

// canonicalizeEnvKey converts API_BASEURL into api.baseURL, reusing the
// spelling of keys already loaded from the file so both sources merge into
// one entry.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}
		child, _ := value.(map[string]any)
		return key, child, true
	}
	return "", nil, false
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
