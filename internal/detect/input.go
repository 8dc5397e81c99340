package detect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"credence/internal/services"
)

// Downloader stages remote inputs into a scratch directory so both stages
// operate on a local file.
type Downloader struct {
	client   *http.Client
	dir      string
	timeout  time.Duration
	maxBytes int64
}

// NewDownloader builds a Downloader writing into dir. A zero maxMiB disables
// the size cap.
func NewDownloader(dir string, timeout time.Duration, maxMiB int) *Downloader {
	var maxBytes int64
	if maxMiB > 0 {
		maxBytes = int64(maxMiB) << 20
	}
	return &Downloader{
		client:   &http.Client{},
		dir:      dir,
		timeout:  timeout,
		maxBytes: maxBytes,
	}
}

// Fetch downloads rawURL and returns the staged path plus a cleanup that
// removes it.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, func(), error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, services.Wrap(services.ErrInput, "input", "download", fmt.Sprintf("invalid URL %q", rawURL), err)
	}
	response, err := d.client.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, services.Wrap(services.ErrTimeout, "input", "download", fmt.Sprintf("download of %s timed out", rawURL), err)
		}
		return "", nil, services.Wrap(services.ErrInput, "input", "download", fmt.Sprintf("download %s", rawURL), err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", nil, services.Wrap(services.ErrInput, "input", "download", fmt.Sprintf("download %s returned status %d", rawURL, response.StatusCode), nil)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", nil, services.Wrap(services.ErrInput, "input", "download", "create download directory", err)
	}
	path := filepath.Join(d.dir, uuid.NewString()+remoteExtension(rawURL))
	file, err := os.Create(path)
	if err != nil {
		return "", nil, services.Wrap(services.ErrInput, "input", "download", "create staging file", err)
	}

	cleanup := func() { os.Remove(path) }
	reader := io.Reader(response.Body)
	if d.maxBytes > 0 {
		reader = io.LimitReader(response.Body, d.maxBytes+1)
	}
	written, err := io.Copy(file, reader)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		if ctx.Err() != nil {
			return "", nil, services.Wrap(services.ErrTimeout, "input", "download", fmt.Sprintf("download of %s timed out", rawURL), err)
		}
		return "", nil, services.Wrap(services.ErrInput, "input", "download", fmt.Sprintf("download %s", rawURL), err)
	}
	if d.maxBytes > 0 && written > d.maxBytes {
		cleanup()
		return "", nil, services.Wrap(services.ErrInput, "input", "download", fmt.Sprintf("download %s exceeds the %d MiB limit", rawURL, d.maxBytes>>20), nil)
	}
	return path, cleanup, nil
}

// resolveInput turns the scan source into a local path. Remote sources are
// staged through the downloader; local sources must exist and be regular
// files.
func (d *Detector) resolveInput(ctx context.Context, source string) (string, func(), error) {
	if isRemote(source) {
		if d.downloader == nil {
			return "", nil, services.Wrap(services.ErrInput, "input", "resolve", fmt.Sprintf("remote input %s requires download support", source), nil)
		}
		return d.downloader.Fetch(ctx, source)
	}

	info, err := os.Stat(source)
	if err != nil {
		return "", nil, services.Wrap(services.ErrInput, "input", "resolve", fmt.Sprintf("input %s is not readable", source), err)
	}
	if info.IsDir() {
		return "", nil, services.Wrap(services.ErrInput, "input", "resolve", fmt.Sprintf("input %s is a directory", source), nil)
	}
	return source, nil, nil
}

func isRemote(source string) bool {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return false
	}
	parsed, err := url.Parse(source)
	return err == nil && parsed.Host != ""
}

func remoteExtension(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := filepath.Ext(parsed.Path)
	if len(ext) > 8 {
		return ""
	}
	return ext
}
