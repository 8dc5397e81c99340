package trustmark

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"credence/internal/credential"
	"credence/internal/services"
)

var commandContext = exec.CommandContext

const defaultMaxOutput = 1 << 20

// InstallHint is attached to diagnostics when the decoding runtime is
// missing its model dependencies.
const InstallHint = "install the decoder dependencies with: pip install trustmark Pillow"

// Decoder defines the watermark decoding behaviour the orchestrator needs.
// The transport (process spawn, in-process call, RPC) stays behind this
// interface.
type Decoder interface {
	Decode(ctx context.Context, path, modelVariant string) (*credential.WatermarkPayload, string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithRuntime overrides the default runtime executable.
func WithRuntime(runtime string) Option {
	return func(c *CLI) {
		if runtime != "" {
			c.runtime = runtime
		}
	}
}

// WithScript sets the decoder script path.
func WithScript(script string) Option {
	return func(c *CLI) {
		if script != "" {
			c.script = script
		}
	}
}

// WithTimeout bounds each decode invocation. The first call after process
// start is the slow one: it pays the remote model load.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxOutput caps how many bytes of decoder output are retained.
func WithMaxOutput(limit int) Option {
	return func(c *CLI) {
		if limit > 0 {
			c.maxOutput = limit
		}
	}
}

// CLI invokes the decoder script through an external runtime.
type CLI struct {
	runtime   string
	script    string
	timeout   time.Duration
	maxOutput int
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{runtime: "python3", maxOutput: defaultMaxOutput}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// reply mirrors the decoder's wire contract.
type reply struct {
	Success       bool   `json:"success"`
	HasWatermark  bool   `json:"hasWatermark"`
	Error         string `json:"error"`
	WatermarkData *struct {
		Identifier  string `json:"identifier"`
		Schema      string `json:"schema"`
		Raw         string `json:"raw"`
		ManifestURL string `json:"manifestUrl"`
	} `json:"watermarkData"`
}

// Decode runs the decoder against the file and returns the payload plus the
// decoder's raw schema tag for diagnostics.
func (c *CLI) Decode(ctx context.Context, path, modelVariant string) (*credential.WatermarkPayload, string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, "", services.Wrap(services.ErrInput, "watermark", "decode", "file path required", nil)
	}
	if strings.TrimSpace(c.script) == "" {
		return nil, "", services.Wrap(services.ErrRuntimeUnavailable, "watermark", "decode", "decoder script not configured", nil)
	}
	if _, err := os.Stat(c.script); err != nil {
		return nil, "", services.Wrap(services.ErrRuntimeUnavailable, "watermark", "decode", "decoder script missing: "+c.script, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{c.script, path}
	if modelVariant != "" {
		args = append(args, modelVariant)
	}
	cmd := commandContext(ctx, c.runtime, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = newLimitWriter(&stdout, c.maxOutput)
	cmd.Stderr = newLimitWriter(&stderr, c.maxOutput)

	runErr := cmd.Run()
	if runErr != nil && errors.Is(runErr, exec.ErrNotFound) {
		return nil, "", services.Wrap(services.ErrRuntimeUnavailable, "watermark", "decode",
			"runtime "+c.runtime+" not found on PATH", runErr)
	}
	if ctx.Err() == context.DeadlineExceeded {
		return nil, "", services.Wrap(services.ErrTimeout, "watermark", "decode", "decoder timed out", runErr)
	}
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}

	parsed, ok := parseReply(stdout.Bytes())
	if !ok {
		// The script reports its own failures as JSON on stdout; output we
		// cannot parse at all means the contract was broken.
		return nil, "", services.Wrap(services.ErrMalformedReply, "watermark", "decode",
			excerpt(stdout.String(), stderr.String()), runErr)
	}

	if !parsed.Success {
		if strings.Contains(parsed.Error, "Missing dependency") {
			return nil, "", services.Wrap(services.ErrRuntimeUnavailable, "watermark", "decode", parsed.Error, nil)
		}
		return nil, "", services.Wrap(services.ErrMalformedReply, "watermark", "decode", parsed.Error, nil)
	}
	if !parsed.HasWatermark || parsed.WatermarkData == nil {
		return nil, "", services.Wrap(services.ErrNoWatermark, "watermark", "decode", "", nil)
	}

	data := parsed.WatermarkData
	payload := credential.NewWatermarkPayload(data.Identifier, data.Raw, credential.SchemaFromTag(data.Schema))
	return &payload, data.Schema, nil
}

// parseReply accepts either the whole stdout as one JSON document or, when
// diagnostic noise surrounds it, the first line that parses as a reply.
func parseReply(output []byte) (*reply, bool) {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) == 0 {
		return nil, false
	}

	var r reply
	if err := json.Unmarshal(trimmed, &r); err == nil {
		return &r, true
	}

	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), defaultMaxOutput)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var lr reply
		if err := json.Unmarshal(line, &lr); err == nil {
			return &lr, true
		}
	}
	return nil, false
}

func excerpt(stdout, stderr string) string {
	text := strings.TrimSpace(stdout)
	if text == "" {
		text = strings.TrimSpace(stderr)
	}
	if text == "" {
		return "decoder produced no output"
	}
	const max = 200
	if len(text) > max {
		text = text[:max]
	}
	return "unexpected decoder output: " + text
}

type limitWriter struct {
	dst *bytes.Buffer
	max int
}

func newLimitWriter(dst *bytes.Buffer, max int) *limitWriter {
	if max <= 0 {
		max = defaultMaxOutput
	}
	return &limitWriter{dst: dst, max: max}
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.max - w.dst.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.dst.Write(p[:remaining])
		return len(p), nil
	}
	return w.dst.Write(p)
}

var _ Decoder = (*CLI)(nil)
