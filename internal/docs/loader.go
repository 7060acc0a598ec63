package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/halluscan/halluscan/internal/cache"
	"github.com/halluscan/halluscan/internal/model"
	"github.com/halluscan/halluscan/internal/util"
	"github.com/halluscan/halluscan/internal/worker"
)

// Loader resolves context-document references into plain text. A reference
// is either a local file path or an http(s) URL. Fetched URLs respect
// robots.txt and pass through the cache when one is configured.
type Loader struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.HostLimiter
	cache      cache.Cache
	cacheTTL   time.Duration
	userAgent  string
	maxBytes   int64
	verbose    bool
}

// NewLoader creates a loader from the HTTP and cache configuration.
func NewLoader(cfg model.HTTPConfig, store cache.Cache, cacheTTL time.Duration, verbose bool) *Loader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	l := &Loader{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:   worker.NewHostLimiter(2, 2),
		cache:     store,
		cacheTTL:  cacheTTL,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		verbose:   verbose,
	}
	if cfg.RespectRobots {
		l.robots = util.NewRobotsChecker(cfg.UserAgent, timeout)
	}
	return l
}

// Load resolves each reference in order. A reference that cannot be loaded
// is skipped with a warning rather than failing the whole evaluation.
func (l *Loader) Load(ctx context.Context, refs []string) ([]string, error) {
	var docs []string
	for _, ref := range refs {
		text, err := l.loadOne(ctx, ref)
		if err != nil {
			if l.verbose {
				fmt.Fprintf(os.Stderr, "Warning: skipping context doc %s: %v\n", ref, err)
			}
			continue
		}
		if text != "" {
			docs = append(docs, text)
		}
	}
	return docs, nil
}

func (l *Loader) loadOne(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return l.fetchURL(ctx, ref)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (l *Loader) fetchURL(ctx context.Context, rawURL string) (string, error) {
	cacheKey := cache.Key("doc", rawURL)
	if l.cache != nil {
		if cached, found := l.cache.Get(cacheKey); found {
			return string(cached), nil
		}
	}

	var crawlDelay time.Duration
	if l.robots != nil {
		allowed, delay, err := l.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			return "", fmt.Errorf("disallowed by robots.txt")
		}
		crawlDelay = delay
	}
	if err := l.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		text, err = StripHTML(text)
		if err != nil {
			return "", fmt.Errorf("parse HTML: %w", err)
		}
	}
	text = strings.TrimSpace(text)

	if l.cache != nil && text != "" {
		if err := l.cache.Set(cacheKey, []byte(text), l.cacheTTL); err != nil && l.verbose {
			fmt.Fprintf(os.Stderr, "Warning: failed to cache %s: %v\n", rawURL, err)
		}
	}
	return text, nil
}

// StripHTML reduces an HTML document to its visible text, skipping
// script, style, noscript and iframe subtrees.
func StripHTML(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(buf.String()), nil
}
