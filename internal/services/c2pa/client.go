package c2pa

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"credence/internal/credential"
	"credence/internal/services"
)

var commandContext = exec.CommandContext

// Sentinel phrases the engine emits when a file carries no manifest. Matched
// as exact, case-sensitive substrings on both output streams.
var noManifestSentinels = []string{
	"No claim found",
	"No manifest found",
}

const defaultMaxOutput = 1 << 20

// TrustSettings carries the trust artifacts and verification toggles passed
// to the engine. Empty paths mean the artifact is absent and the engine runs
// without it.
type TrustSettings struct {
	AnchorsPath          string
	AllowedListPath      string
	PolicyPath           string
	VerifyOnRead         bool
	VerifyTimestampTrust bool
	AllowRemoteManifests bool
	StrictV1             bool
}

// Reader defines the manifest engine behaviour the orchestrator needs.
type Reader interface {
	Read(ctx context.Context, path, mimeType string) (credential.Raw, error)
	ConfigureTrust(settings TrustSettings) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default engine binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithTimeout bounds each engine invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxOutput caps how many bytes of engine output are retained per stream.
func WithMaxOutput(limit int) Option {
	return func(c *CLI) {
		if limit > 0 {
			c.maxOutput = limit
		}
	}
}

// CLI wraps the manifest engine command-line tool.
type CLI struct {
	binary    string
	timeout   time.Duration
	maxOutput int

	mu       sync.Mutex
	trust    TrustSettings
	trustSet bool
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "c2patool", maxOutput: defaultMaxOutput}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// ConfigureTrust records the trust configuration applied to every subsequent
// read. Safe to call concurrently with reads.
func (c *CLI) ConfigureTrust(settings TrustSettings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trust = settings
	c.trustSet = true
	return nil
}

// Read invokes the engine against the file and returns its raw manifest
// output tagged as JSON or text. A recognized sentinel on either stream maps
// to services.ErrNoManifest.
func (c *CLI) Read(ctx context.Context, path, mimeType string) (credential.Raw, error) {
	if strings.TrimSpace(path) == "" {
		return credential.Raw{}, services.Wrap(services.ErrInput, "embedded", "read", "file path required", nil)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := commandContext(ctx, c.binary, c.buildArgs(path, mimeType)...) //nolint:gosec
	stdout := newCappedBuffer(c.maxOutput)
	stderr := newCappedBuffer(c.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	outText := stdout.String()
	errText := stderr.String()

	// Sentinel detection runs on both streams regardless of exit status: the
	// engine reports determined absence by message, sometimes with a nonzero
	// exit code.
	if sentinel := matchSentinel(outText, errText); sentinel != "" {
		return credential.Raw{}, services.Wrap(services.ErrNoManifest, "embedded", "read", sentinel, nil)
	}

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return credential.Raw{}, services.Wrap(services.ErrTimeout, "embedded", "read", "engine timed out", runErr)
		}
		if errors.Is(runErr, exec.ErrNotFound) {
			return credential.Raw{}, services.Wrap(services.ErrExternalTool, "embedded", "read",
				"manifest engine binary not found (install c2patool and ensure it is on PATH)", runErr)
		}
		return credential.Raw{}, services.Wrap(services.ErrExternalTool, "embedded", "read", excerpt(errText), runErr)
	}

	trimmed := strings.TrimSpace(outText)
	if trimmed == "" {
		return credential.Raw{}, services.Wrap(services.ErrNoManifest, "embedded", "read", "engine produced no output", nil)
	}

	// The Text/JSON tag is decided here, once, and carried through the
	// pipeline unchanged.
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			return credential.NewJSON(obj), nil
		}
	}
	return credential.NewText(outText), nil
}

func (c *CLI) buildArgs(path, mimeType string) []string {
	args := []string{path, "--detailed"}
	if mimeType != "" {
		args = append(args, "--mime", mimeType)
	}

	c.mu.Lock()
	trust, trustSet := c.trust, c.trustSet
	c.mu.Unlock()
	if !trustSet {
		return args
	}

	if trust.AnchorsPath != "" {
		args = append(args, "--trust_anchors", trust.AnchorsPath)
	}
	if trust.AllowedListPath != "" {
		args = append(args, "--allowed_list", trust.AllowedListPath)
	}
	if trust.PolicyPath != "" {
		args = append(args, "--trust_config", trust.PolicyPath)
	}
	if !trust.VerifyOnRead {
		args = append(args, "--no_verify")
	}
	if !trust.VerifyTimestampTrust {
		args = append(args, "--no_timestamp_trust")
	}
	if trust.AllowRemoteManifests {
		args = append(args, "--allow_remote_manifests")
	}
	if trust.StrictV1 {
		args = append(args, "--strict_v1")
	}
	return args
}

func matchSentinel(streams ...string) string {
	for _, stream := range streams {
		for _, sentinel := range noManifestSentinels {
			if strings.Contains(stream, sentinel) {
				return sentinel
			}
		}
	}
	return ""
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "engine exited with an error"
	}
	const max = 200
	if len(text) > max {
		return text[:max]
	}
	return text
}

var _ Reader = (*CLI)(nil)
