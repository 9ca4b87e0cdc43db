// Package querycache is a keyed store of server response snapshots with
// de-duplicated fetches, prefix invalidation and snapshot/restore.
package querycache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrCanceled is returned to readers whose fetch was canceled before any value was cached.
var ErrCanceled = errors.New("querycache: fetch canceled")

var errDiscarded = errors.New("querycache: result discarded")

// Key identifies an entry, e.g. {"todos", "list", "all"}. A shorter key
// addresses every entry it is a prefix of.
type Key []string

func (k Key) String() string { return strings.Join(k, "\x1f") }

// HasPrefix reports whether p addresses k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// EventType says what happened to an entry.
type EventType int

const (
	Updated EventType = iota
	Invalidated
	Removed
)

func (t EventType) String() string {
	switch t {
	case Updated:
		return "updated"
	case Invalidated:
		return "invalidated"
	case Removed:
		return "removed"
	}
	return "unknown"
}

type Event struct {
	Key  Key
	Type EventType
}

type entry struct {
	key       Key
	value     any
	updatedAt time.Time
	stale     bool
}

type flight struct {
	key    Key
	cancel context.CancelFunc
}

type subscription struct {
	prefix Key
	fn     func(Event)
}

// Cache is safe for concurrent use.
type Cache struct {
	// StaleTime is how long a value counts as fresh for Fetch. Zero means
	// every Fetch goes to the source, still de-duplicated.
	StaleTime time.Duration

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]flight
	// gens changes on Cancel; fetches started under an older generation are discarded.
	gens    map[string]uint64
	subs    map[int]subscription
	nextSub int
	sf      singleflight.Group
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		inflight: make(map[string]flight),
		gens:     make(map[string]uint64),
		subs:     make(map[int]subscription),
		now:      time.Now,
	}
}

// Get returns the cached value, fresh or stale.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// IsInvalidated reports whether key is cached and was invalidated since its last write.
func (c *Cache) IsInvalidated(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	return ok && e.stale
}

// Set stores v as the current value of key.
func (c *Cache) Set(key Key, v any) {
	c.mu.Lock()
	c.storeLocked(key, v)
	ns := c.notificationsLocked([]Key{key}, Updated)
	c.mu.Unlock()
	emit(ns)
}

func (c *Cache) storeLocked(key Key, v any) {
	k := key.String()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{key: append(Key(nil), key...)}
		c.entries[k] = e
	}
	e.value = v
	e.updatedAt = c.now()
	e.stale = false
}

// Fetch returns the value of key, calling fn when the cached value is missing
// or not fresh. Concurrent callers share one fn call. fn runs detached from
// ctx so that one caller giving up does not fail the others; only Cancel
// cancels it.
func (c *Cache) Fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	k := key.String()

	c.mu.Lock()
	if e, ok := c.entries[k]; ok && c.freshLocked(e) {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	ch := c.sf.DoChan(k, func() (any, error) {
		return c.runFetch(key, fn)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if errors.Is(res.Err, errDiscarded) {
			if v, ok := c.Get(key); ok {
				return v, nil
			}
			return nil, ErrCanceled
		}
		return res.Val, res.Err
	}
}

func (c *Cache) runFetch(key Key, fn func(context.Context) (any, error)) (any, error) {
	k := key.String()
	fetchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.mu.Lock()
	gen := c.gens[k]
	c.inflight[k] = flight{key: append(Key(nil), key...), cancel: cancel}
	c.mu.Unlock()

	v, err := fn(fetchCtx)

	c.mu.Lock()
	if c.gens[k] != gen {
		// Cancel already released the inflight slot, possibly to a newer fetch.
		c.mu.Unlock()
		return nil, errDiscarded
	}
	delete(c.inflight, k)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.storeLocked(key, v)
	ns := c.notificationsLocked([]Key{key}, Updated)
	c.mu.Unlock()
	emit(ns)
	return v, nil
}

func (c *Cache) freshLocked(e *entry) bool {
	if e.stale || c.StaleTime <= 0 {
		return false
	}
	return c.now().Sub(e.updatedAt) < c.StaleTime
}

// Update replaces every cached value under prefix with fn's result and
// returns the number of entries changed.
func (c *Cache) Update(prefix Key, fn func(key Key, v any) any) int {
	c.mu.Lock()
	var keys []Key
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.value = fn(e.key, e.value)
			e.updatedAt = c.now()
			keys = append(keys, e.key)
		}
	}
	ns := c.notificationsLocked(keys, Updated)
	c.mu.Unlock()
	emit(ns)
	return len(keys)
}

// Invalidate marks every entry under the prefixes stale: the value stays
// readable and the next Fetch goes to the source.
func (c *Cache) Invalidate(prefixes ...Key) int {
	c.mu.Lock()
	var keys []Key
	for _, e := range c.entries {
		if matchesAny(e.key, prefixes) {
			e.stale = true
			keys = append(keys, e.key)
		}
	}
	ns := c.notificationsLocked(keys, Invalidated)
	c.mu.Unlock()
	emit(ns)
	return len(keys)
}

// Cancel aborts in-flight fetches under the prefixes. Their results are
// dropped and their readers get the cached value instead.
func (c *Cache) Cancel(prefixes ...Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, f := range c.inflight {
		if !matchesAny(f.key, prefixes) {
			continue
		}
		c.gens[k]++
		f.cancel()
		delete(c.inflight, k)
		c.sf.Forget(k)
		n++
	}
	return n
}

// Remove deletes every entry under the prefixes.
func (c *Cache) Remove(prefixes ...Key) int {
	c.mu.Lock()
	var keys []Key
	for k, e := range c.entries {
		if matchesAny(e.key, prefixes) {
			delete(c.entries, k)
			keys = append(keys, e.key)
		}
	}
	ns := c.notificationsLocked(keys, Removed)
	c.mu.Unlock()
	emit(ns)
	return len(keys)
}

// Subscribe calls fn for every event on a key under prefix. Callbacks run
// synchronously, outside the cache lock.
func (c *Cache) Subscribe(prefix Key, fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = subscription{prefix: append(Key(nil), prefix...), fn: fn}
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

type notification struct {
	fn func(Event)
	ev Event
}

func (c *Cache) notificationsLocked(keys []Key, t EventType) []notification {
	var out []notification
	for _, k := range keys {
		for _, s := range c.subs {
			if k.HasPrefix(s.prefix) {
				out = append(out, notification{fn: s.fn, ev: Event{Key: k, Type: t}})
			}
		}
	}
	return out
}

func emit(ns []notification) {
	for _, n := range ns {
		n.fn(n.ev)
	}
}

func matchesAny(k Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if k.HasPrefix(p) {
			return true
		}
	}
	return false
}
