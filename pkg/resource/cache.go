package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	stdnet "htmlpdf/std/net"
)

// DefaultPrefetchLimit bounds concurrent loads started by Prefetch.
const DefaultPrefetchLimit = 8

type entry struct {
	data []byte
	err  error
}

// Cache resolves and loads the resources of one document. Each distinct
// URL is loaded at most once, however many callers ask for it.
type Cache struct {
	loader Loader
	base   string
	logger *zap.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	done    map[string]entry
	fetches atomic.Int64
}

// NewCache returns a cache that resolves references against baseURL. A
// nil loader leaves everything but data: URLs unavailable.
func NewCache(loader Loader, baseURL string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		loader: loader,
		base:   baseURL,
		logger: logger,
		done:   make(map[string]entry),
	}
}

// Resolve makes ref absolute against the document base.
func (c *Cache) Resolve(ref string) string {
	return stdnet.ResolveURL(c.base, ref)
}

// Fetch returns the bytes behind ref. Failures are logged once and
// reported as ErrUnavailable; context errors are returned as they are.
func (c *Cache) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrUnavailable)
	}
	u := c.Resolve(ref)

	for {
		c.mu.RLock()
		e, ok := c.done[u]
		c.mu.RUnlock()
		if ok {
			return e.data, e.err
		}

		ch := c.group.DoChan(u, func() (interface{}, error) {
			data, err := c.load(ctx, u)
			if err != nil && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err != nil {
				c.logger.Warn("resource unavailable", zap.String("url", u), zap.Error(err))
				err = fmt.Errorf("%w: %s: %v", ErrUnavailable, u, err)
			}
			c.mu.Lock()
			c.done[u] = entry{data: data, err: err}
			c.mu.Unlock()
			return data, err
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-ch:
			if r.Err == nil {
				return r.Val.([]byte), nil
			}
			if errors.Is(r.Err, ErrUnavailable) || ctx.Err() != nil {
				return nil, r.Err
			}
			// the caller that started the load was canceled; load again
			// under this caller's context
		}
	}
}

func (c *Cache) load(ctx context.Context, u string) ([]byte, error) {
	if stdnet.IsDataURL(u) {
		data, _, err := stdnet.DecodeDataURL(u)
		return data, err
	}
	if c.loader == nil {
		return nil, errors.New("no resource loader configured")
	}
	c.fetches.Add(1)
	return c.loader.Load(ctx, u)
}

// Prefetch loads refs concurrently, at most limit at a time. Unavailable
// resources are not an error; only cancellation is.
func (c *Cache) Prefetch(ctx context.Context, refs []string, limit int) error {
	if limit < 1 {
		limit = DefaultPrefetchLimit
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		u := c.Resolve(ref)
		if seen[u] {
			continue
		}
		seen[u] = true
		g.Go(func() error {
			_, err := c.Fetch(gctx, u)
			if errors.Is(err, ErrUnavailable) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Fetches reports how many times the loader has been called.
func (c *Cache) Fetches() int {
	return int(c.fetches.Load())
}
