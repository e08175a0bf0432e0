package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cached memoizes another renderer by body content. Concurrent requests for
// the same body share one conversion.
type Cached struct {
	next  Renderer
	cache *cache.Cache
	group singleflight.Group
}

// NewCached wraps next with a cache whose entries expire after ttl.
func NewCached(next Renderer, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Render returns the cached HTML for markdown or renders and stores it.
// Failures are not cached. The shared render is not tied to any one caller's
// context: a caller that gives up returns its own context error while the
// others keep waiting for the result.
func (c *Cached) Render(ctx context.Context, markdown string) (template.HTML, error) {
	key := cacheKey(markdown)
	if v, ok := c.cache.Get(key); ok {
		return v.(template.HTML), nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		html, err := c.next.Render(shared, markdown)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(key, html)
		return html, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(template.HTML), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}

func cacheKey(markdown string) string {
	sum := sha256.Sum256([]byte(markdown))
	return hex.EncodeToString(sum[:])
}
