package trust

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"credence/internal/services"
)

// trust artifacts are small; anything larger is a broken endpoint
const maxDocumentBytes = 4 << 20

// fetchDocument downloads one trust artifact into the cache directory and
// returns its path. An empty body counts as a failed fetch.
func (l *Loader) fetchDocument(ctx context.Context, url, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "trust", "fetch", url, err)
		}
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("fetch %s: empty document", url)
	}

	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create trust cache: %w", err)
	}
	path := filepath.Join(l.cacheDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write trust document: %w", err)
	}
	return path, nil
}
