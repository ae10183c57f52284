package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	stdnet "htmlpdf/std/net"
)

// ErrUnavailable marks a resource that could not be retrieved. Callers
// fall back (default font, placeholder image, no stylesheet) on it.
var ErrUnavailable = errors.New("resource unavailable")

// Loader retrieves the bytes behind an absolute URL.
type Loader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string) ([]byte, error)

func (f LoaderFunc) Load(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// HTTPLoader fetches http and https URLs, optionally rate limited.
type HTTPLoader struct {
	client  *http.Client
	limiter *rate.Limiter
}

type HTTPOption func(*HTTPLoader)

// WithRateLimit allows perSecond requests with the given burst.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(l *HTTPLoader) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			l.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func WithClient(c *http.Client) HTTPOption {
	return func(l *HTTPLoader) {
		if c != nil {
			l.client = c
		}
	}
}

func WithTimeout(d time.Duration) HTTPOption {
	return func(l *HTTPLoader) {
		l.client = stdnet.NewClient(d)
	}
}

func NewHTTPLoader(opts ...HTTPOption) *HTTPLoader {
	l := &HTTPLoader{client: stdnet.NewClient(30 * time.Second)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *HTTPLoader) Load(ctx context.Context, rawURL string) ([]byte, error) {
	if !stdnet.IsNetworkURL(rawURL) {
		return nil, fmt.Errorf("cannot fetch non-network URI: %s", rawURL)
	}
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	body, _, err := stdnet.Fetch(ctx, l.client, rawURL)
	return body, err
}

// FileLoader reads file: URLs and plain paths. When Root is set, paths
// outside it are refused.
type FileLoader struct {
	Root string
}

func (l FileLoader) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := ref
	if strings.HasPrefix(strings.ToLower(ref), "file:") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ref, err)
		}
		path = u.Path
	} else if strings.Contains(ref, "://") {
		return nil, fmt.Errorf("cannot read %s from the file system", ref)
	}
	path = filepath.Clean(filepath.FromSlash(path))
	if l.Root != "" {
		root, err := filepath.Abs(l.Root)
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s is outside %s", path, root)
		}
	}
	return os.ReadFile(path)
}

// Mux sends http and https URLs to Network and everything else to Local.
// A nil member leaves its URLs unavailable.
type Mux struct {
	Network Loader
	Local   Loader
}

func (m Mux) Load(ctx context.Context, ref string) ([]byte, error) {
	target := m.Local
	if stdnet.IsNetworkURL(ref) {
		target = m.Network
	}
	if target == nil {
		return nil, fmt.Errorf("no loader for %s", ref)
	}
	return target.Load(ctx, ref)
}
