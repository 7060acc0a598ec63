package docs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/halluscan/halluscan/internal/cache"
	"github.com/halluscan/halluscan/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:       5 * time.Second,
		UserAgent:     "Halluscan-test/0.1",
		MaxBodyBytes:  1 << 20,
		RespectRobots: false,
	}
}

func TestStripHTML(t *testing.T) {
	text, err := StripHTML(`<html><head><style>body{}</style><script>var x;</script></head>
<body><h1>Title</h1><p>First paragraph.</p><noscript>ignored</noscript></body></html>`)
	if err != nil {
		t.Fatalf("StripHTML: %v", err)
	}
	if !strings.Contains(text, "Title") || !strings.Contains(text, "First paragraph.") {
		t.Errorf("expected visible text, got %q", text)
	}
	if strings.Contains(text, "var x") || strings.Contains(text, "ignored") || strings.Contains(text, "body{}") {
		t.Errorf("script/style/noscript content must be stripped, got %q", text)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("  reference notes here \n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader := NewLoader(testHTTPConfig(), nil, time.Minute, false)
	docs, err := loader.Load(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 1 || docs[0] != "reference notes here" {
		t.Errorf("expected trimmed file content, got %v", docs)
	}
}

func TestLoader_SkipsUnreadableRefs(t *testing.T) {
	loader := NewLoader(testHTTPConfig(), nil, time.Minute, false)

	docs, err := loader.Load(context.Background(), []string{"/does/not/exist.txt"})
	if err != nil {
		t.Fatalf("Load must not fail on a bad ref: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected the bad ref skipped, got %v", docs)
	}
}

func TestLoader_FetchesAndStripsHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>served content</p><script>x()</script></body></html>"))
	}))
	defer server.Close()

	loader := NewLoader(testHTTPConfig(), nil, time.Minute, false)
	docs, err := loader.Load(context.Background(), []string{server.URL})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if docs[0] != "served content" {
		t.Errorf("expected stripped HTML text, got %q", docs[0])
	}
}

func TestLoader_CachesFetchedDocs(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain payload"))
	}))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, time.Minute)
	loader := NewLoader(testHTTPConfig(), store, time.Minute, false)

	for i := 0; i < 2; i++ {
		docs, err := loader.Load(context.Background(), []string{server.URL})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(docs) != 1 || docs[0] != "plain payload" {
			t.Errorf("expected cached payload, got %v", docs)
		}
	}
	if hits != 1 {
		t.Errorf("expected 1 origin hit, got %d", hits)
	}
}

func TestLoader_RejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	loader := NewLoader(testHTTPConfig(), nil, time.Minute, false)
	docs, err := loader.Load(context.Background(), []string{server.URL})
	if err != nil {
		t.Fatalf("Load must not fail outright: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected 404 doc skipped, got %v", docs)
	}
}
