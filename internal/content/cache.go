package content

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LoadErrorMessage is shown in place of the post list when loading fails.
const LoadErrorMessage = "Failed to load posts. Please check connection or query."

// DefaultTTL is how long a fetched post list is served without refetching.
const DefaultTTL = 30 * time.Minute

// Source lists posts, newest first.
type Source interface {
	Posts(ctx context.Context) ([]Post, error)
}

// Cache serves a post list from memory until it is older than TTL. Concurrent
// callers share one fetch.
type Cache struct {
	src    Source
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	posts     []Post
	fetchedAt time.Time
	inflight  chan struct{}
	lastErr   error
}

// NewCache wraps src. A non-positive ttl uses DefaultTTL.
func NewCache(src Source, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{src: src, ttl: ttl, logger: logger, now: time.Now}
}

// Posts returns the cached list, refetching when it is stale. When a refetch
// fails the error is returned and the previous list stays cached. The fetch
// itself is detached from ctx, so a caller giving up does not fail the
// others waiting on it.
func (c *Cache) Posts(ctx context.Context) ([]Post, error) {
	c.mu.Lock()
	if c.posts != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		posts := c.posts
		c.mu.Unlock()
		c.logger.Debug("serving cached posts", "count", len(posts))
		return posts, nil
	}
	if c.inflight == nil {
		c.inflight = make(chan struct{})
		go c.fetch(context.WithoutCancel(ctx), c.inflight)
	}
	ch := c.inflight
	c.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		return nil, c.lastErr
	}
	return c.posts, nil
}

func (c *Cache) fetch(ctx context.Context, done chan struct{}) {
	posts, err := c.src.Posts(ctx)
	if err == nil {
		posts = append([]Post{}, posts...)
		SortNewestFirst(posts)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = nil
	c.lastErr = err
	close(done)
	if err != nil {
		c.logger.Error("fetching posts", "error", err)
		return
	}
	c.posts = posts
	c.fetchedAt = c.now()
}

// BySlug finds a post in the cached list.
func (c *Cache) BySlug(ctx context.Context, slug string) (Post, error) {
	posts, err := c.Posts(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// Invalidate forces the next call to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
