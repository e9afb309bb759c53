package collexpr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"brackets/internal/symbols"
	"brackets/internal/types"
)

type strategyKey struct {
	target types.TypeID
	shape  Shape
	site   symbols.Site
}

type builderKey struct {
	def  types.DefID
	site symbols.Site
}

// Cache memoizes strategies per (target, shape, site) and builder resolutions
// per (declaration, site) for one compilation. Entries are written once and
// hold complete values only; concurrent misses on the same key share one
// computation.
type Cache struct {
	strategies sync.Map // strategyKey -> Strategy
	builders   sync.Map // builderKey -> BuilderResolution
	sf         singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates an empty compilation cache.
func NewCache() *Cache {
	return &Cache{}
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits       int64
	Misses     int64
	Strategies int
	Builders   int
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	st := CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	c.strategies.Range(func(_, _ any) bool { st.Strategies++; return true })
	c.builders.Range(func(_, _ any) bool { st.Builders++; return true })
	return st
}

// do runs fn once for all concurrent callers of key. A caller whose own
// context is live recomputes when the shared run was cancelled under
// another caller's context.
func (c *Cache) do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	for {
		v, err, shared := c.sf.Do(key, fn)
		if err == nil || !shared || ctx.Err() != nil || !canceled(err) {
			return v, err
		}
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Cache) strategy(ctx context.Context, key strategyKey, compute func() (Strategy, error)) (Strategy, bool, error) {
	if v, ok := c.strategies.Load(key); ok {
		c.hits.Add(1)
		return v.(Strategy), true, nil
	}
	if err := ctx.Err(); err != nil {
		return Strategy{}, false, err
	}
	c.misses.Add(1)
	sfKey := fmt.Sprintf("s:%d:%d:%t:%s:%d", key.target, key.shape.Count, key.shape.HasSpread, key.site.Assembly, key.site.Within)
	v, err := c.do(ctx, sfKey, func() (any, error) {
		if v, ok := c.strategies.Load(key); ok {
			return v, nil
		}
		s, err := compute()
		if err != nil {
			return nil, err
		}
		c.strategies.Store(key, s)
		return s, nil
	})
	if err != nil {
		return Strategy{}, false, err
	}
	return v.(Strategy), false, nil
}

func (c *Cache) builder(ctx context.Context, key builderKey, compute func() BuilderResolution) (BuilderResolution, bool, error) {
	if v, ok := c.builders.Load(key); ok {
		c.hits.Add(1)
		return v.(BuilderResolution), true, nil
	}
	if err := ctx.Err(); err != nil {
		return BuilderResolution{}, false, err
	}
	c.misses.Add(1)
	sfKey := fmt.Sprintf("b:%d:%s:%d", key.def, key.site.Assembly, key.site.Within)
	v, err := c.do(ctx, sfKey, func() (any, error) {
		if v, ok := c.builders.Load(key); ok {
			return v, nil
		}
		r := compute()
		c.builders.Store(key, r)
		return r, nil
	})
	if err != nil {
		return BuilderResolution{}, false, err
	}
	return v.(BuilderResolution), false, nil
}
