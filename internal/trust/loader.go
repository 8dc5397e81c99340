package trust

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"credence/internal/config"
	"credence/internal/logging"
	"credence/internal/services"
	"credence/internal/services/c2pa"
)

// Engine is the slice of the manifest engine the bootstrap drives.
type Engine interface {
	ConfigureTrust(settings c2pa.TrustSettings) error
}

// Document reports the bootstrap outcome for one trust artifact.
type Document struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Path    string `json:"path,omitempty"`
	Fetched bool   `json:"fetched"`
	Detail  string `json:"detail,omitempty"`
}

// Loader performs the one-shot trust bootstrap.
type Loader struct {
	anchorsURL     string
	allowedListURL string
	policyURL      string
	toggles        c2pa.TrustSettings
	cacheDir       string
	client         *http.Client
	engine         Engine
	logger         *slog.Logger

	group singleflight.Group

	mu        sync.Mutex
	attempted bool
	warning   string
	documents []Document
}

// NewLoader builds a loader from configuration. The engine receives whatever
// trust configuration the bootstrap achieves, including none.
func NewLoader(cfg *config.Config, engine Engine, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := 30 * time.Second
	if cfg.TrustFetchTimeout() > 0 {
		timeout = cfg.TrustFetchTimeout()
	}
	return &Loader{
		anchorsURL:     cfg.Trust.AnchorsURL,
		allowedListURL: cfg.Trust.AllowedListURL,
		policyURL:      cfg.Trust.PolicyURL,
		toggles: c2pa.TrustSettings{
			VerifyOnRead:         cfg.Trust.VerifyOnRead,
			VerifyTimestampTrust: cfg.Trust.VerifyTimestampTrust,
			AllowRemoteManifests: cfg.Trust.AllowRemoteManifests,
			StrictV1:             cfg.Trust.StrictV1,
		},
		cacheDir: cfg.TrustCacheDir(),
		client:   &http.Client{Timeout: timeout},
		engine:   engine,
		logger:   logger,
	}
}

// Ensure runs the bootstrap if it has not been attempted yet. Concurrent
// callers share one in-flight attempt. Fetch and engine failures are
// recorded, never returned: a transient network failure at startup must not
// make the tool unusable.
func (l *Loader) Ensure(ctx context.Context) error {
	l.mu.Lock()
	attempted := l.attempted
	l.mu.Unlock()
	if attempted {
		return nil
	}

	_, err, _ := l.group.Do("bootstrap", func() (any, error) {
		l.mu.Lock()
		if l.attempted {
			l.mu.Unlock()
			return nil, nil
		}
		l.mu.Unlock()

		l.bootstrap(ctx)

		l.mu.Lock()
		l.attempted = true
		l.mu.Unlock()
		return nil, nil
	})
	return err
}

// Attempted reports whether the bootstrap has run.
func (l *Loader) Attempted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempted
}

// Warning returns the one-time bootstrap warning, if any.
func (l *Loader) Warning() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warning
}

// Documents returns the per-artifact bootstrap outcomes.
func (l *Loader) Documents() []Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	docs := make([]Document, len(l.documents))
	copy(docs, l.documents)
	return docs
}

func (l *Loader) bootstrap(ctx context.Context) {
	targets := []struct {
		name string
		url  string
		file string
		dest *string
	}{
		{"trust anchors", l.anchorsURL, "anchors.pem", nil},
		{"allowed list", l.allowedListURL, "allowed.txt", nil},
		{"trust policy", l.policyURL, "policy.cfg", nil},
	}

	settings := l.toggles
	destinations := []*string{&settings.AnchorsPath, &settings.AllowedListPath, &settings.PolicyPath}

	results := make([]Document, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		results[i] = Document{Name: target.name, URL: target.url}
		if target.url == "" {
			results[i].Detail = "no endpoint configured"
			continue
		}
		wg.Add(1)
		go func(i int, name, url, file string) {
			defer wg.Done()
			path, err := l.fetchDocument(ctx, url, file)
			if err != nil {
				results[i].Detail = err.Error()
				l.logger.Warn("trust document fetch failed",
					slog.String("document", name), slog.String("url", url), slog.Any("error", err))
				return
			}
			results[i].Fetched = true
			results[i].Path = path
		}(i, target.name, target.url, target.file)
	}
	wg.Wait()

	fetched := 0
	for i := range results {
		if results[i].Fetched {
			*destinations[i] = results[i].Path
			fetched++
		}
	}

	var warning string
	if err := l.configureEngine(settings); err != nil {
		warning = services.Wrap(services.ErrTrustLoad, "trust", "configure", "engine rejected trust configuration", err).Error()
		l.logger.Warn("trust configuration failed", slog.Any("error", err))
	} else if fetched < len(targets) {
		warning = "trust bootstrap incomplete: reads proceed with partial trust configuration"
	}

	l.mu.Lock()
	l.documents = results
	l.warning = warning
	l.mu.Unlock()

	l.logger.Info("trust bootstrap finished",
		slog.Int("fetched", fetched), slog.Int("requested", len(targets)))
}

// configureEngine shields the bootstrap from a panicking engine config API;
// the failure becomes the one-time warning.
func (l *Loader) configureEngine(settings c2pa.TrustSettings) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrTrustLoad, "trust", "configure", "engine config panicked", nil)
		}
	}()
	if l.engine == nil {
		return nil
	}
	return l.engine.ConfigureTrust(settings)
}
