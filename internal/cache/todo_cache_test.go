package cache

import (
	"context"
	"testing"
	"time"

	dom "todoapp/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*TodoCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTodoCache(rdb, time.Minute), mr
}

func TestTodoCache_ListRoundTripAndMiss(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	completed := true
	f := dom.TodoFilter{Completed: &completed}

	got, err := c.GetList(ctx, "u1", 0, f)
	if err != nil || got != nil {
		t.Fatalf("miss: got=%v err=%v", got, err)
	}

	if err := c.SetList(ctx, "u1", 0, f, []dom.Todo{{ID: "t1", UserID: "u1", Title: "a", Completed: true}}); err != nil {
		t.Fatalf("SetList: %v", err)
	}
	got, err = c.GetList(ctx, "u1", 0, f)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("got %+v", got)
	}

	if other, _ := c.GetList(ctx, "u1", 0, dom.TodoFilter{}); other != nil {
		t.Fatalf("unfiltered slot should be independent, got %+v", other)
	}
	if other, _ := c.GetList(ctx, "u2", 0, f); other != nil {
		t.Fatalf("other user's slot should be empty, got %+v", other)
	}
}

func TestTodoCache_EmptyListIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	if err := c.SetList(ctx, "u1", 0, dom.TodoFilter{}, nil); err != nil {
		t.Fatalf("SetList: %v", err)
	}
	got, err := c.GetList(ctx, "u1", 0, dom.TodoFilter{})
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got %#v, want empty non-nil slice", got)
	}
}

func TestTodoCache_InvalidateUser(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	list := []dom.Todo{{ID: "t1"}}
	_ = c.SetList(ctx, "u1", 0, dom.TodoFilter{}, list)
	_ = c.SetSearch(ctx, "u1", 0, "Milk ", list)
	_ = c.SetList(ctx, "u2", 0, dom.TodoFilter{}, list)

	if got, _ := c.GetSearch(ctx, "u1", 0, "milk"); len(got) != 1 {
		t.Fatalf("search key not normalized: %v", got)
	}

	if err := c.InvalidateUser(ctx, "u1"); err != nil {
		t.Fatalf("InvalidateUser: %v", err)
	}
	if mr.Exists("todo:u1:v0:list:all") || mr.Exists("todo:u1:v0:search:milk") {
		t.Fatal("u1 keys survived invalidation")
	}
	if !mr.Exists("todo:u2:v0:list:all") {
		t.Fatal("u2 key removed by u1 invalidation")
	}
	if gen, err := c.Generation(ctx, "u1"); err != nil || gen != 1 {
		t.Fatalf("u1 generation = %d, %v", gen, err)
	}
	if gen, _ := c.Generation(ctx, "u2"); gen != 0 {
		t.Fatalf("u2 generation = %d", gen)
	}
}

func TestTodoCache_WriteUnderOldGenerationIsNeverRead(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	gen, _ := c.Generation(ctx, "u1")
	if err := c.InvalidateUser(ctx, "u1"); err != nil {
		t.Fatalf("InvalidateUser: %v", err)
	}
	// A load that started before the write finishes now.
	_ = c.SetList(ctx, "u1", gen, dom.TodoFilter{}, []dom.Todo{{ID: "stale"}})

	current, _ := c.Generation(ctx, "u1")
	if current == gen {
		t.Fatal("generation did not advance")
	}
	if got, _ := c.GetList(ctx, "u1", current, dom.TodoFilter{}); got != nil {
		t.Fatalf("stale list visible in the current generation: %+v", got)
	}
}

func TestFilterKey(t *testing.T) {
	completed := false
	high := dom.PriorityHigh
	tests := []struct {
		name string
		f    dom.TodoFilter
		want string
	}{
		{"none", dom.TodoFilter{}, "all"},
		{"completed", dom.TodoFilter{Completed: &completed}, "completed=false"},
		{"priority", dom.TodoFilter{Priority: &high}, "priority=HIGH"},
		{"both", dom.TodoFilter{Completed: &completed, Priority: &high}, "completed=false&priority=HIGH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterKey(tt.f); got != tt.want {
				t.Fatalf("FilterKey=%q, want %q", got, tt.want)
			}
		})
	}
}
