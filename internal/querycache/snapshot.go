package querycache

import "context"

// Snapshot is the state of every entry under a set of prefixes at one point in time.
type Snapshot struct {
	prefixes []Key
	entries  map[string]entry
}

// Snapshot captures the entries under the prefixes, including which keys were absent.
func (c *Cache) Snapshot(prefixes ...Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{entries: make(map[string]entry)}
	for _, p := range prefixes {
		s.prefixes = append(s.prefixes, append(Key(nil), p...))
	}
	for k, e := range c.entries {
		if matchesAny(e.key, prefixes) {
			s.entries[k] = *e
		}
	}
	return s
}

// Restore puts every entry under the snapshot's prefixes back exactly as it
// was: values are reset and entries created since are removed.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	var updated, removed []Key
	for k, e := range c.entries {
		if !matchesAny(e.key, s.prefixes) {
			continue
		}
		if _, ok := s.entries[k]; !ok {
			delete(c.entries, k)
			removed = append(removed, e.key)
		}
	}
	for k, saved := range s.entries {
		e := saved
		c.entries[k] = &e
		updated = append(updated, e.key)
	}
	ns := append(c.notificationsLocked(removed, Removed), c.notificationsLocked(updated, Updated)...)
	c.mu.Unlock()
	emit(ns)
}

// Len is the number of entries captured.
func (s Snapshot) Len() int { return len(s.entries) }

// GetAs is Get with a type assertion.
func GetAs[T any](c *Cache, key Key) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// FetchAs is Fetch for a typed source.
func FetchAs[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// UpdateAs is Update restricted to values of type T; other values are left as they are.
func UpdateAs[T any](c *Cache, prefix Key, fn func(Key, T) T) int {
	return c.Update(prefix, func(k Key, v any) any {
		if t, ok := v.(T); ok {
			return fn(k, t)
		}
		return v
	})
}
