// Package photo turns an image file into a value for a pet's photo_url.
// Uploads go to object storage when possible; otherwise the compressed
// image is inlined as a data URI.
package photo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/pawlog/pkg/cryptox"
)

const (
	ContentType = "image/jpeg"

	suffixLength = 8
)

// Compressor shrinks an image before it is stored.
type Compressor interface {
	Compress(ctx context.Context, r io.Reader) ([]byte, error)
}

// Storage is an object store with public URLs.
type Storage interface {
	// Upload stores data under name and returns the stored object's path.
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)

	// PublicURL resolves a stored path to a URL clients can fetch. An empty
	// URL means the object is not publicly reachable.
	PublicURL(ctx context.Context, path string) (string, error)
}

// PolicyError is a storage rejection caused by access rules rather than a
// transient fault. It disables storage for the rest of the session.
type PolicyError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *PolicyError) Error() string {
	if e.Message != "" {
		return "storage policy violation: " + e.Message
	}
	if e.Err != nil {
		return "storage policy violation: " + e.Err.Error()
	}
	return "storage policy violation"
}

func (e *PolicyError) Unwrap() error { return e.Err }

var policyMarkers = []string{"row-level security", "row level security", "policy"}

// IsPolicyError reports whether err is a *PolicyError or its message names
// a security policy.
func IsPolicyError(err error) bool {
	if err == nil {
		return false
	}
	var pe *PolicyError
	if errors.As(err, &pe) {
		return true
	}
	return isPolicyMessage(err.Error())
}

func isPolicyMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range policyMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Pipeline prepares photos for one session. After a policy error it stops
// trying storage until Reset is called.
type Pipeline struct {
	Compressor Compressor
	Storage    Storage
	Logger     *slog.Logger

	// Now names uploaded files. Defaults to time.Now.
	Now func() time.Time

	disabled atomic.Bool
}

// NewPipeline returns a pipeline with the default JPEG compressor. storage
// may be nil, in which case every photo is inlined.
func NewPipeline(storage Storage, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Compressor: NewJPEGCompressor(),
		Storage:    storage,
		Logger:     logger,
		Now:        time.Now,
	}
}

// Disabled reports whether storage was switched off by a policy error.
func (p *Pipeline) Disabled() bool { return p.disabled.Load() }

// Reset re-enables storage, e.g. at the start of a new session.
func (p *Pipeline) Reset() { p.disabled.Store(false) }

// Prepare compresses the image read from r and returns a public URL for it,
// or a data URI when storage is unavailable. Only reading and compressing
// the image can fail.
func (p *Pipeline) Prepare(ctx context.Context, r io.Reader) (string, error) {
	data, err := p.compressor().Compress(ctx, r)
	if err != nil {
		return "", fmt.Errorf("photo: compress: %w", err)
	}

	if url := p.upload(ctx, data); url != "" {
		return url, nil
	}

	return DataURI(data), nil
}

// upload returns the public URL of the stored photo, or "" when the caller
// should fall back to inlining.
func (p *Pipeline) upload(ctx context.Context, data []byte) string {
	log := p.logger()

	if p.Storage == nil {
		return ""
	}
	if p.disabled.Load() {
		log.Debug("photo storage disabled for this session")
		return ""
	}

	name, err := p.filename()
	if err != nil {
		log.Warn("failed to name photo upload", "error", err)
		return ""
	}

	path, err := p.Storage.Upload(ctx, name, data, ContentType)
	var url string
	if err == nil {
		url, err = p.Storage.PublicURL(ctx, path)
	}

	switch {
	case IsPolicyError(err):
		p.disabled.Store(true)
		log.Warn("photo storage rejected by policy, inlining photos for this session", "error", err)
		return ""
	case err != nil:
		log.Warn("photo upload failed, inlining photo", "name", name, "error", err)
		return ""
	case url == "":
		log.Warn("photo storage returned no public url, inlining photo", "path", path)
		return ""
	}

	log.Debug("photo uploaded", "path", path, "bytes", len(data))
	return url
}

func (p *Pipeline) filename() (string, error) {
	suffix, err := cryptox.RandomBase36(suffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s.jpg", p.now().UnixMilli(), suffix), nil
}

// DataURI inlines JPEG bytes.
func DataURI(data []byte) string {
	return "data:" + ContentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (p *Pipeline) compressor() Compressor {
	if p.Compressor == nil {
		return NewJPEGCompressor()
	}
	return p.Compressor
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
