package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"todoapp/internal/cache"
	dom "todoapp/internal/domain"
	"todoapp/internal/repo"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound covers both missing todos and todos owned by someone else.
var ErrNotFound = errors.New("todo not found")

// loadTimeout bounds a shared list or search load, which outlives the request that started it.
const loadTimeout = 30 * time.Second

// TodoCache is the read-through cache used for lists and searches. Entries are
// scoped to a per-user generation that InvalidateUser advances.
type TodoCache interface {
	Generation(ctx context.Context, userID string) (int64, error)
	GetList(ctx context.Context, userID string, gen int64, f dom.TodoFilter) ([]dom.Todo, error)
	SetList(ctx context.Context, userID string, gen int64, f dom.TodoFilter, list []dom.Todo) error
	GetSearch(ctx context.Context, userID string, gen int64, q string) ([]dom.Todo, error)
	SetSearch(ctx context.Context, userID string, gen int64, q string, list []dom.Todo) error
	InvalidateUser(ctx context.Context, userID string) error
}

// cachedQuery is one cacheable read: get and store address the cache, load the repository.
type cachedQuery struct {
	name  string
	get   func(ctx context.Context, gen int64) ([]dom.Todo, error)
	load  func(ctx context.Context) ([]dom.Todo, error)
	store func(ctx context.Context, gen int64, list []dom.Todo) error
}

// TodoService is the only writer of todos. Every method takes the caller's
// user id from the authorization layer and never from request input.
type TodoService struct {
	repo  repo.TodoRepo
	cache TodoCache
	sf    singleflight.Group
	log   *log.Logger
	now   func() time.Time
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c TodoCache, logger *log.Logger) *TodoService {
	return &TodoService{repo: r, cache: c, log: logger, now: time.Now}
}

func (s *TodoService) Create(ctx context.Context, userID string, in dom.NewTodo) (dom.Todo, error) {
	priority := in.Priority
	if priority == "" {
		priority = dom.PriorityMedium
	}
	t, err := s.repo.Create(ctx, dom.Todo{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    priority,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// List returns the caller's todos, incomplete first, newest first within each group.
func (s *TodoService) List(ctx context.Context, userID string, f dom.TodoFilter) ([]dom.Todo, error) {
	if s.cache == nil {
		return s.repo.List(ctx, userID, f)
	}
	return s.cached(ctx, userID, cachedQuery{
		name: "list:" + cache.FilterKey(f),
		get: func(ctx context.Context, gen int64) ([]dom.Todo, error) {
			return s.cache.GetList(ctx, userID, gen, f)
		},
		load: func(ctx context.Context) ([]dom.Todo, error) { return s.repo.List(ctx, userID, f) },
		store: func(ctx context.Context, gen int64, list []dom.Todo) error {
			return s.cache.SetList(ctx, userID, gen, f, list)
		},
	})
}

func (s *TodoService) GetByID(ctx context.Context, userID, id string) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	return t, nil
}

func (s *TodoService) Update(ctx context.Context, userID, id string, patch dom.TodoPatch) (dom.Todo, error) {
	existing, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return dom.Todo{}, err
	}
	t, err := s.repo.Update(ctx, userID, id, patch.Apply(existing))
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// Toggle flips completion of whatever is stored when the statement runs (last write wins).
func (s *TodoService) Toggle(ctx context.Context, userID, id string) (dom.Todo, error) {
	if _, err := s.GetByID(ctx, userID, id); err != nil {
		return dom.Todo{}, err
	}
	t, err := s.repo.Toggle(ctx, userID, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.GetByID(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidateCache(ctx, userID)
	return nil
}

func (s *TodoService) Search(ctx context.Context, userID, q string) ([]dom.Todo, error) {
	q = strings.TrimSpace(q)
	if s.cache == nil {
		return s.repo.Search(ctx, userID, q)
	}
	return s.cached(ctx, userID, cachedQuery{
		name: "search:" + strings.ToLower(q),
		get: func(ctx context.Context, gen int64) ([]dom.Todo, error) {
			return s.cache.GetSearch(ctx, userID, gen, q)
		},
		load: func(ctx context.Context) ([]dom.Todo, error) { return s.repo.Search(ctx, userID, q) },
		store: func(ctx context.Context, gen int64, list []dom.Todo) error {
			return s.cache.SetSearch(ctx, userID, gen, q, list)
		},
	})
}

// Overdue is not cached: its result depends on the current time.
func (s *TodoService) Overdue(ctx context.Context, userID string) ([]dom.Todo, error) {
	return s.repo.Overdue(ctx, userID, s.now())
}

// cached serves q from the cache, falling back to the repository on a miss or a
// cache failure. Concurrent misses within one generation share a single load,
// which runs detached from the caller so one client going away does not fail
// the others.
func (s *TodoService) cached(ctx context.Context, userID string, q cachedQuery) ([]dom.Todo, error) {
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		s.log.Warn("todo cache generation read failed", "user", userID, "err", err)
		return q.load(ctx)
	}
	key := userID + ":" + strconv.FormatInt(gen, 10) + ":" + q.name

	ch := s.sf.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		list, err := q.get(ctx, gen)
		if err == nil && list != nil {
			return list, nil
		}
		if err != nil {
			s.log.Warn("todo cache read failed", "key", key, "err", err)
		}
		list, err = q.load(ctx)
		if err != nil {
			return nil, err
		}
		if err := q.store(ctx, gen, list); err != nil {
			s.log.Warn("todo cache write failed", "key", key, "err", err)
		}
		return list, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]dom.Todo), nil
	}
}

func (s *TodoService) invalidateCache(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.log.Error("todo cache invalidation failed", "user", userID, "err", err)
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
