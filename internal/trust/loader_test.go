package trust

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"credence/internal/config"
	"credence/internal/logging"
	"credence/internal/services/c2pa"
)

type fakeEngine struct {
	mu       sync.Mutex
	calls    int
	settings c2pa.TrustSettings
	err      error
}

func (e *fakeEngine) ConfigureTrust(settings c2pa.TrustSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.settings = settings
	return e.err
}

func testConfig(t *testing.T, anchors, allowed, policy string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.Trust.AnchorsURL = anchors
	cfg.Trust.AllowedListURL = allowed
	cfg.Trust.PolicyURL = policy
	cfg.Trust.FetchTimeout = 5
	return &cfg
}

func TestEnsureFetchesAllDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("document for " + r.URL.Path))
	}))
	defer server.Close()

	engine := &fakeEngine{}
	cfg := testConfig(t, server.URL+"/anchors.pem", server.URL+"/allowed.txt", server.URL+"/policy.cfg")
	loader := NewLoader(cfg, engine, logging.NewNop())

	if err := loader.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("expected one engine configuration, got %d", engine.calls)
	}
	if engine.settings.AnchorsPath == "" || engine.settings.AllowedListPath == "" || engine.settings.PolicyPath == "" {
		t.Fatalf("expected all trust paths populated, got %+v", engine.settings)
	}
	if filepath.Dir(engine.settings.AnchorsPath) != cfg.TrustCacheDir() {
		t.Fatalf("expected anchors under trust cache dir, got %q", engine.settings.AnchorsPath)
	}
	if loader.Warning() != "" {
		t.Fatalf("expected no warning on full success, got %q", loader.Warning())
	}
}

func TestEnsurePartialFailureStillSucceeds(t *testing.T) {
	// Two of three fetches fail; the bootstrap must still succeed and pass
	// only the fetched document to the engine.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/allowed.txt" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("sha256 list"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	engine := &fakeEngine{}
	cfg := testConfig(t, server.URL+"/anchors.pem", server.URL+"/allowed.txt", server.URL+"/policy.cfg")
	loader := NewLoader(cfg, engine, logging.NewNop())

	if err := loader.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure must not fail on partial fetch, got %v", err)
	}
	if engine.settings.AnchorsPath != "" || engine.settings.PolicyPath != "" {
		t.Fatalf("failed documents must be passed as absent, got %+v", engine.settings)
	}
	if engine.settings.AllowedListPath == "" {
		t.Fatal("fetched document must be passed through")
	}
	if loader.Warning() == "" {
		t.Fatal("expected a one-time warning for the partial bootstrap")
	}

	docs := loader.Documents()
	if len(docs) != 3 {
		t.Fatalf("expected three document statuses, got %d", len(docs))
	}
	fetched := 0
	for _, doc := range docs {
		if doc.Fetched {
			fetched++
		}
	}
	if fetched != 1 {
		t.Fatalf("expected exactly one fetched document, got %d", fetched)
	}
}

func TestEnsureEmptyDocumentIsAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	engine := &fakeEngine{}
	cfg := testConfig(t, server.URL+"/anchors.pem", "", "")
	loader := NewLoader(cfg, engine, logging.NewNop())

	if err := loader.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if engine.settings.AnchorsPath != "" {
		t.Fatalf("empty fetch must count as absent, got %q", engine.settings.AnchorsPath)
	}
}

func TestEnsureRunsOnce(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("doc"))
	}))
	defer server.Close()

	engine := &fakeEngine{}
	cfg := testConfig(t, server.URL+"/anchors.pem", server.URL+"/allowed.txt", server.URL+"/policy.cfg")
	loader := NewLoader(cfg, engine, logging.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = loader.Ensure(context.Background())
		}()
	}
	wg.Wait()
	_ = loader.Ensure(context.Background())

	if got := hits.Load(); got != 3 {
		t.Fatalf("expected exactly three fetches across all callers, got %d", got)
	}
	if engine.calls != 1 {
		t.Fatalf("expected one engine configuration, got %d", engine.calls)
	}
	if !loader.Attempted() {
		t.Fatal("expected loader to report the attempt")
	}
}

func TestEnsureEngineFailureIsNonFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("doc"))
	}))
	defer server.Close()

	engine := &fakeEngine{err: context.DeadlineExceeded}
	cfg := testConfig(t, server.URL+"/a", server.URL+"/b", server.URL+"/c")
	loader := NewLoader(cfg, engine, logging.NewNop())

	if err := loader.Ensure(context.Background()); err != nil {
		t.Fatalf("engine failure must not propagate, got %v", err)
	}
	if loader.Warning() == "" {
		t.Fatal("expected warning after engine rejection")
	}
	// Never retried automatically.
	if err := loader.Ensure(context.Background()); err != nil {
		t.Fatalf("second Ensure must be a no-op, got %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("expected no retry, engine calls = %d", engine.calls)
	}
}
