package testsupport

import (
	"path/filepath"
	"testing"

	"credence/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.History.Enabled = true
	cfgVal.History.Path = filepath.Join(base, "cache", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithReaderBinary overrides the manifest engine binary on the test config.
func WithReaderBinary(binary string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reader.Binary = binary
	}
}

// WithHistoryPath overrides the history database location on the test config.
func WithHistoryPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Path = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
