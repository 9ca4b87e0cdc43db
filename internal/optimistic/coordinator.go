// Package optimistic runs todo mutations against the API while keeping a
// querycache in step: toggles and deletes are applied to the cache before the
// server answers and rolled back if it refuses.
package optimistic

import (
	"context"
	"io"

	"todoapp/internal/client"
	"todoapp/internal/querycache"

	"github.com/charmbracelet/log"
)

// API is the subset of *client.Client the coordinator drives.
type API interface {
	List(ctx context.Context, f client.Filters) ([]client.Todo, error)
	Get(ctx context.Context, id string) (client.Todo, error)
	Create(ctx context.Context, in client.CreateInput) (client.Todo, error)
	Update(ctx context.Context, id string, in client.UpdateInput) (client.Todo, error)
	Toggle(ctx context.Context, id string) (client.Todo, error)
	Delete(ctx context.Context, id string) error
}

// ErrorHook receives every failed mutation, after any rollback.
type ErrorHook func(op, id string, err error)

type Coordinator struct {
	api     API
	cache   *querycache.Cache
	logger  *log.Logger
	onError ErrorHook
}

type Option func(*Coordinator)

func WithErrorHook(fn ErrorHook) Option {
	return func(c *Coordinator) { c.onError = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func New(api API, cache *querycache.Cache, opts ...Option) *Coordinator {
	c := &Coordinator{api: api, cache: cache, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Todos reads the list for f through the cache.
func (c *Coordinator) Todos(ctx context.Context, f client.Filters) ([]client.Todo, error) {
	return querycache.FetchAs(ctx, c.cache, Keys.List(f), func(ctx context.Context) ([]client.Todo, error) {
		return c.api.List(ctx, f)
	})
}

// Todo reads one todo through the cache.
func (c *Coordinator) Todo(ctx context.Context, id string) (client.Todo, error) {
	return querycache.FetchAs(ctx, c.cache, Keys.Detail(id), func(ctx context.Context) (client.Todo, error) {
		return c.api.Get(ctx, id)
	})
}

// Create has no id to predict with, so lists are only invalidated once the server confirms.
func (c *Coordinator) Create(ctx context.Context, in client.CreateInput) (client.Todo, error) {
	t, err := c.api.Create(ctx, in)
	if err != nil {
		c.report("create", "", err)
		return client.Todo{}, err
	}
	c.cache.Invalidate(Keys.Lists())
	return t, nil
}

func (c *Coordinator) Update(ctx context.Context, id string, in client.UpdateInput) (client.Todo, error) {
	t, err := c.api.Update(ctx, id, in)
	if err != nil {
		c.report("update", id, err)
		return client.Todo{}, err
	}
	c.cache.Invalidate(Keys.Lists())
	c.cache.Set(Keys.Detail(t.ID), t)
	return t, nil
}

// Toggle flips the cached completed flag of id, then asks the server to do the same.
func (c *Coordinator) Toggle(ctx context.Context, id string) (client.Todo, error) {
	var out client.Todo
	err := c.mutate(ctx, "toggle", id,
		func() {
			querycache.UpdateAs(c.cache, Keys.Lists(), func(_ querycache.Key, todos []client.Todo) []client.Todo {
				next := make([]client.Todo, len(todos))
				for i, t := range todos {
					if t.ID == id {
						t.Completed = !t.Completed
					}
					next[i] = t
				}
				return next
			})
			querycache.UpdateAs(c.cache, Keys.Detail(id), func(_ querycache.Key, t client.Todo) client.Todo {
				t.Completed = !t.Completed
				return t
			})
		},
		func(ctx context.Context) error {
			t, err := c.api.Toggle(ctx, id)
			out = t
			return err
		})
	return out, err
}

// Delete drops id from every cached list and its detail slot, then deletes it on the server.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, "delete", id,
		func() {
			querycache.UpdateAs(c.cache, Keys.Lists(), func(_ querycache.Key, todos []client.Todo) []client.Todo {
				next := make([]client.Todo, 0, len(todos))
				for _, t := range todos {
					if t.ID != id {
						next = append(next, t)
					}
				}
				return next
			})
			c.cache.Remove(Keys.Detail(id))
		},
		func(ctx context.Context) error {
			return c.api.Delete(ctx, id)
		})
}

// mutate applies predict to the cache, sends the request and settles: the
// snapshot is restored on failure and the touched keys are invalidated either way.
// predict must build new values instead of modifying cached ones in place.
func (c *Coordinator) mutate(ctx context.Context, op, id string, predict func(), send func(context.Context) error) error {
	keys := []querycache.Key{Keys.Lists(), Keys.Detail(id)}

	c.cache.Cancel(keys...)
	snap := c.cache.Snapshot(keys...)
	predict()

	err := send(ctx)
	if err != nil {
		c.cache.Restore(snap)
		c.logger.Warn("optimistic update rolled back", "op", op, "id", id, "entries", snap.Len(), "err", err)
		c.report(op, id, err)
	}
	c.cache.Invalidate(keys...)
	return err
}

func (c *Coordinator) report(op, id string, err error) {
	if c.onError != nil {
		c.onError(op, id, err)
	}
}
