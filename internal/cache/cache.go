package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/egobogo/trellosync/internal/apierror"
)

// ErrDisabled is returned by a disabled query when nothing is cached.
var ErrDisabled = errors.New("cache: query disabled and no data cached")

// State is the lifecycle position of one key.
type State int

const (
	Absent State = iota
	Fetching
	Fresh
	Stale
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "absent"
	}
}

// entry is the cached state of one key. gen advances on every invalidation
// or direct write; dataGen is the gen the held data was fetched under, so
// data is stale whenever dataGen != gen.
type entry struct {
	key        Key
	data       any
	hasData    bool
	fetchedAt  time.Time
	staleAfter time.Duration
	gen        uint64
	dataGen    uint64
	fetching   int
	lastAccess time.Time
}

func (e *entry) invalidated() bool {
	return e.dataGen != e.gen
}

func (e *entry) stale(now time.Time) bool {
	return e.invalidated() || now.Sub(e.fetchedAt) >= e.staleAfter
}

// Cache maps keys to fetched data. It guarantees at most one concurrent
// fetch per key and applies invalidations after the mutation that declared
// them has resolved.
type Cache struct {
	opts Options
	log  zerolog.Logger
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	// epoch advances on Clear; fetches started in an older epoch are not stored.
	epoch uint64
	group singleflight.Group

	subMu  sync.Mutex
	nextID int
	subs   map[int]subscription

	background sync.WaitGroup
}

// New creates a Cache.
func New(opts Options, log zerolog.Logger) *Cache {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Millisecond
	}
	return &Cache{
		opts:    opts,
		log:     log.With().Str("component", "cache").Logger(),
		now:     time.Now,
		entries: make(map[string]*entry),
		subs:    make(map[int]subscription),
	}
}

// Query returns the data for key, calling fetch when nothing usable is cached.
//
// Fresh data is returned as is. Data that merely aged past its stale time is
// returned immediately while a background refetch runs, unless
// StaleWhileRevalidate(false). Explicitly invalidated data is never served
// to an enabled query: the read waits for the refetch. Concurrent
// callers for the same key share one fetch. A caller whose ctx ends stops
// waiting with ctx.Err(); the fetch itself continues and still fills the cache.
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error), opts ...QueryOption) (T, error) {
	var zero T
	cfg := queryConfig{
		staleTime: c.opts.StaleTime,
		enabled:   true,
		swr:       true,
		retries:   c.opts.QueryRetries,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	load := func(ctx context.Context) (any, error) { return fetch(ctx) }

	c.mu.Lock()
	now := c.now()
	e := c.entries[key.id()]
	if e != nil && e.hasData {
		e.lastAccess = now
	}
	switch {
	case !cfg.enabled:
		if e == nil || !e.hasData {
			c.mu.Unlock()
			return zero, ErrDisabled
		}
		data := e.data
		c.mu.Unlock()
		return as[T](key, data)
	case e != nil && e.hasData && !e.stale(now):
		data := e.data
		c.mu.Unlock()
		c.log.Debug().Stringer("key", key).Msg("cache hit")
		return as[T](key, data)
	case e != nil && e.hasData && cfg.swr && !e.invalidated():
		data := e.data
		c.mu.Unlock()
		c.log.Debug().Stringer("key", key).Msg("serving stale, revalidating")
		c.revalidate(ctx, key, cfg, load)
		return as[T](key, data)
	}
	c.mu.Unlock()

	c.log.Debug().Stringer("key", key).Msg("cache miss")
	ch := c.group.DoChan(key.id(), func() (any, error) {
		return c.run(context.WithoutCancel(ctx), key, cfg, load, false)
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return as[T](key, res.Val)
	}
}

func as[T any](key Key, data any) (T, error) {
	v, ok := data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %s holds %T, not %T", key, data, zero)
	}
	return v, nil
}

func (c *Cache) revalidate(ctx context.Context, key Key, cfg queryConfig, load func(context.Context) (any, error)) {
	ctx = context.WithoutCancel(ctx)
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		res := <-c.group.DoChan(key.id(), func() (any, error) {
			return c.run(ctx, key, cfg, load, true)
		})
		if res.Err != nil {
			c.log.Warn().Err(res.Err).Stringer("key", key).Msg("background revalidation failed, keeping stale data")
		}
	}()
}

// run performs one fetch with retries and records its outcome.
func (c *Cache) run(ctx context.Context, key Key, cfg queryConfig, load func(context.Context) (any, error), background bool) (any, error) {
	id := key.id()

	c.mu.Lock()
	e := c.entries[id]
	if e == nil {
		e = &entry{key: key.clone()}
		c.entries[id] = e
	}
	e.fetching++
	gen, epoch := e.gen, c.epoch
	c.mu.Unlock()

	var data any
	err := c.retry(ctx, cfg.retries, key, func(ctx context.Context) error {
		v, err := load(ctx)
		if err != nil {
			return err
		}
		data = v
		return nil
	})

	c.mu.Lock()
	e.fetching--
	if c.epoch != epoch {
		// Cleared while in flight: hand the result to the waiting callers only.
		c.mu.Unlock()
		return data, err
	}
	if err != nil {
		// A failed foreground fetch leaves nothing behind; a failed
		// revalidation keeps the stale data it was refreshing.
		newer := e.hasData && e.dataGen > gen
		if !background && !newer && e.fetching == 0 {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		return nil, err
	}
	stored := false
	if !e.hasData || e.dataGen <= gen {
		now := c.now()
		e.data = data
		e.hasData = true
		e.dataGen = gen
		e.fetchedAt = now
		e.staleAfter = cfg.staleTime
		e.lastAccess = now
		stored = true
	}
	outdated := gen != e.gen
	c.evictLocked()
	c.mu.Unlock()

	if stored {
		c.log.Debug().Stringer("key", key).Bool("outdated", outdated).Msg("cache updated")
		c.notify(Event{Type: EventUpdated, Key: key})
	}
	return data, nil
}

// retry runs fn, repeating it up to retries more times while it fails with
// a retryable APIError.
func (c *Cache) retry(ctx context.Context, retries int, key Key, fn func(context.Context) error) error {
	if retries <= 0 {
		return fn(ctx)
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewConstant(c.opts.RetryDelay))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && apierror.IsRetryable(err) {
			c.log.Debug().Err(err).Stringer("key", key).Int("attempt", attempt).Msg("retrying")
			return retry.RetryableError(err)
		}
		return err
	})
}

// Mutate runs fn and, once it has succeeded, invalidates the declared
// prefixes. A failed mutation invalidates nothing. fn is not cancelled by
// ctx once it has been issued.
func Mutate[T any](ctx context.Context, c *Cache, fn func(context.Context) (T, error), opts ...MutateOption) (T, error) {
	var zero T
	cfg := mutateConfig{retries: c.opts.MutationRetries}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	var out T
	err := c.retry(context.WithoutCancel(ctx), cfg.retries, nil, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		c.log.Debug().Err(err).Msg("mutation failed")
		return zero, err
	}
	prefixes := cfg.invalidates
	for _, derive := range cfg.derive {
		prefixes = append(prefixes, derive(out)...)
	}
	c.Invalidate(prefixes...)
	return out, nil
}

// Invalidate marks every cached key matching one of prefixes stale. Keys
// never fetched stay absent. It returns the number of keys affected.
// A fetch already in flight for an affected key is stored stale, and the
// next read starts a new fetch instead of joining it.
func (c *Cache) Invalidate(prefixes ...Key) int {
	if len(prefixes) == 0 {
		return 0
	}
	var touched []Key
	c.mu.Lock()
	for id, e := range c.entries {
		for _, p := range prefixes {
			if e.key.HasPrefix(p) {
				e.gen++
				c.group.Forget(id)
				touched = append(touched, e.key)
				break
			}
		}
	}
	c.mu.Unlock()

	for _, k := range touched {
		c.log.Debug().Stringer("key", k).Msg("invalidated")
		c.notify(Event{Type: EventInvalidated, Key: k})
	}
	return len(touched)
}

// Clear drops every entry. Fetches in flight still answer their callers but
// are not stored.
func (c *Cache) Clear() {
	c.mu.Lock()
	for id := range c.entries {
		c.group.Forget(id)
	}
	c.entries = make(map[string]*entry)
	c.epoch++
	c.mu.Unlock()

	c.log.Debug().Msg("cache cleared")
	c.notify(Event{Type: EventCleared})
}

// Peek returns the cached data for key without fetching or touching its
// access time.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key.id()]
	if e == nil || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// SetData stores data for key as fresh, for optimistic updates. A fetch
// for key already in flight will not overwrite it.
func (c *Cache) SetData(key Key, data any) {
	id := key.id()
	c.mu.Lock()
	e := c.entries[id]
	if e == nil {
		e = &entry{key: key.clone()}
		c.entries[id] = e
	}
	now := c.now()
	e.gen++
	e.dataGen = e.gen
	e.data = data
	e.hasData = true
	e.fetchedAt = now
	e.staleAfter = c.opts.StaleTime
	e.lastAccess = now
	c.group.Forget(id)
	c.evictLocked()
	c.mu.Unlock()

	c.notify(Event{Type: EventUpdated, Key: key})
}

// State reports where key is in its lifecycle.
func (c *Cache) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key.id()]
	switch {
	case e == nil:
		return Absent
	case e.fetching > 0:
		return Fetching
	case !e.hasData:
		return Absent
	case e.stale(c.now()):
		return Stale
	default:
		return Fresh
	}
}

// Len returns the number of keys held, including keys being fetched.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Wait blocks until background revalidations have finished.
func (c *Cache) Wait() {
	c.background.Wait()
}

// evictLocked drops least recently accessed idle entries over MaxEntries.
func (c *Cache) evictLocked() {
	if c.opts.MaxEntries <= 0 {
		return
	}
	for len(c.entries) > c.opts.MaxEntries {
		var (
			victimID string
			victim   *entry
		)
		for id, e := range c.entries {
			if e.fetching > 0 {
				continue
			}
			if victim == nil || e.lastAccess.Before(victim.lastAccess) {
				victimID, victim = id, e
			}
		}
		if victim == nil {
			return
		}
		delete(c.entries, victimID)
		c.log.Debug().Stringer("key", victim.key).Msg("evicted")
	}
}
