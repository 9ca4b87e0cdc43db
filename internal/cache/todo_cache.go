package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	dom "todoapp/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "todo:"

// TodoCache caches per-user todo list and search results in Redis.
//
// Entries live under the user's current generation (todo:<user>:v<gen>:...).
// InvalidateUser bumps the generation, so a load that read the database
// before a write can only store its result under a generation nobody reads.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// Generation returns the user's current cache generation, 0 before the first write.
func (c *TodoCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetList returns the cached list for the filter, or nil on a miss.
func (c *TodoCache) GetList(ctx context.Context, userID string, gen int64, f dom.TodoFilter) ([]dom.Todo, error) {
	return c.get(ctx, listKey(userID, gen, f))
}

// SetList stores the list for the filter.
func (c *TodoCache) SetList(ctx context.Context, userID string, gen int64, f dom.TodoFilter, list []dom.Todo) error {
	return c.set(ctx, listKey(userID, gen, f), list)
}

// GetSearch returns the cached search result for q, or nil on a miss.
func (c *TodoCache) GetSearch(ctx context.Context, userID string, gen int64, q string) ([]dom.Todo, error) {
	return c.get(ctx, searchKey(userID, gen, q))
}

// SetSearch stores the search result for q.
func (c *TodoCache) SetSearch(ctx context.Context, userID string, gen int64, q string, list []dom.Todo) error {
	return c.set(ctx, searchKey(userID, gen, q), list)
}

// InvalidateUser moves the user to a new generation and drops the entries of older ones.
func (c *TodoCache) InvalidateUser(ctx context.Context, userID string) error {
	if err := c.rdb.Incr(ctx, genKey(userID)).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, userPrefix(userID)+"v*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *TodoCache) get(ctx context.Context, key string) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Todo
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []dom.Todo{}
	}
	return list, nil
}

func (c *TodoCache) set(ctx context.Context, key string, list []dom.Todo) error {
	if list == nil {
		list = []dom.Todo{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

func userPrefix(userID string) string {
	return keyPrefix + userID + ":"
}

func genKey(userID string) string {
	return userPrefix(userID) + "gen"
}

func genPrefix(userID string, gen int64) string {
	return userPrefix(userID) + "v" + strconv.FormatInt(gen, 10) + ":"
}

func listKey(userID string, gen int64, f dom.TodoFilter) string {
	return genPrefix(userID, gen) + "list:" + FilterKey(f)
}

func searchKey(userID string, gen int64, q string) string {
	return genPrefix(userID, gen) + "search:" + normalizeQuery(q)
}

// FilterKey is a stable encoding of a filter, "all" when nothing is filtered.
func FilterKey(f dom.TodoFilter) string {
	var parts []string
	if f.Completed != nil {
		parts = append(parts, "completed="+strconv.FormatBool(*f.Completed))
	}
	if f.Priority != nil {
		parts = append(parts, "priority="+string(*f.Priority))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, "&")
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
