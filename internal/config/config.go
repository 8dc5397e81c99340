package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Trust contains the trust-list endpoints and the verification policy
// toggles handed to the manifest engine.
type Trust struct {
	AnchorsURL           string `toml:"anchors_url"`
	AllowedListURL       string `toml:"allowed_list_url"`
	PolicyURL            string `toml:"policy_url"`
	FetchTimeout         int    `toml:"fetch_timeout"`
	VerifyOnRead         bool   `toml:"verify_on_read"`
	VerifyTimestampTrust bool   `toml:"verify_timestamp_trust"`
	AllowRemoteManifests bool   `toml:"allow_remote_manifests"`
	StrictV1             bool   `toml:"strict_v1"`
}

// Reader contains configuration for the embedded-manifest engine.
type Reader struct {
	Binary       string `toml:"binary"`
	Timeout      int    `toml:"timeout"`
	MaxOutputKiB int    `toml:"max_output_kib"`
}

// Watermark contains configuration for the watermark decoding runtime.
type Watermark struct {
	Runtime      string `toml:"runtime"`
	Script       string `toml:"script"`
	ModelVariant string `toml:"model_variant"`
	Timeout      int    `toml:"timeout"`
	MaxOutputKiB int    `toml:"max_output_kib"`
}

// Download contains limits for fetching remote scan inputs.
type Download struct {
	Timeout int `toml:"timeout"`
	MaxMiB  int `toml:"max_mib"`
}

// History contains configuration for the scan-history store.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Credence.
//
// Configuration sections by subsystem:
//   - Paths: log and cache directories
//   - Trust: trust-list endpoints and engine verification toggles
//   - Reader: embedded-manifest engine binary and limits
//   - Watermark: decoder runtime, script, and model variant
//   - Download: remote input fetch limits
//   - History: scan-history SQLite store
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Trust     Trust     `toml:"trust"`
	Reader    Reader    `toml:"reader"`
	Watermark Watermark `toml:"watermark"`
	Download  Download  `toml:"download"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/credence/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("credence.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the CLI writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// TrustCacheDir returns the directory trust artifacts are written into.
func (c *Config) TrustCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "trust")
}

// DownloadDir returns the directory remote scan inputs are staged into.
func (c *Config) DownloadDir() string {
	return filepath.Join(c.Paths.CacheDir, "downloads")
}

// ReaderTimeout returns the manifest engine timeout as a duration.
func (c *Config) ReaderTimeout() time.Duration {
	return time.Duration(c.Reader.Timeout) * time.Second
}

// WatermarkTimeout returns the decoder timeout as a duration.
func (c *Config) WatermarkTimeout() time.Duration {
	return time.Duration(c.Watermark.Timeout) * time.Second
}

// TrustFetchTimeout returns the trust-list fetch timeout as a duration.
func (c *Config) TrustFetchTimeout() time.Duration {
	return time.Duration(c.Trust.FetchTimeout) * time.Second
}

// DownloadTimeout returns the remote input download timeout as a duration.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.Timeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
