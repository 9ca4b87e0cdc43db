package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"todoapp/internal/database"
	dom "todoapp/internal/domain"
)

func newTestRepos(t *testing.T) (*SQLiteTodoRepo, *SQLiteUserRepo) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := database.MigrateSQLite(context.Background(), db); err != nil {
		t.Fatalf("MigrateSQLite: %v", err)
	}
	return NewSQLiteTodoRepo(db), NewSQLiteUserRepo(db)
}

func mustUser(t *testing.T, users *SQLiteUserRepo, id, name string) {
	t.Helper()
	if _, err := users.Create(context.Background(), dom.User{ID: id, Username: name, PasswordHash: "x"}); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
}

// steppedClock returns strictly increasing times so created_at ordering is deterministic.
func steppedClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func TestSQLiteTodoRepo_OwnershipScoping(t *testing.T) {
	todos, users := newTestRepos(t)
	ctx := context.Background()
	mustUser(t, users, "u1", "alice")
	mustUser(t, users, "u2", "bob")

	created, err := todos.Create(ctx, dom.Todo{ID: "t1", UserID: "u1", Title: "mine", Priority: dom.PriorityMedium})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.UserID != "u1" || created.Completed {
		t.Fatalf("created = %+v", created)
	}

	if _, err := todos.GetByID(ctx, "u2", "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID foreign: err=%v, want ErrNotFound", err)
	}
	if _, err := todos.Toggle(ctx, "u2", "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Toggle foreign: err=%v, want ErrNotFound", err)
	}
	if _, err := todos.Update(ctx, "u2", "t1", dom.Todo{Title: "hijack", Priority: dom.PriorityLow}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update foreign: err=%v, want ErrNotFound", err)
	}
	if err := todos.Delete(ctx, "u2", "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete foreign: err=%v, want ErrNotFound", err)
	}
	list, err := todos.List(ctx, "u2", dom.TodoFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("foreign list len=%d, want 0", len(list))
	}

	got, err := todos.GetByID(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("GetByID owner: %v", err)
	}
	if got.Title != "mine" || got.Completed {
		t.Fatalf("record changed by foreign calls: %+v", got)
	}
}

func TestSQLiteTodoRepo_ListOrderAndFilters(t *testing.T) {
	todos, users := newTestRepos(t)
	todos.now = steppedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	mustUser(t, users, "u1", "alice")

	for _, td := range []dom.Todo{
		{ID: "a", Title: "a", Priority: dom.PriorityLow},
		{ID: "b", Title: "b", Priority: dom.PriorityHigh, Completed: true},
		{ID: "c", Title: "c", Priority: dom.PriorityHigh},
		{ID: "d", Title: "d", Priority: dom.PriorityMedium, Completed: true},
	} {
		td.UserID = "u1"
		if _, err := todos.Create(ctx, td); err != nil {
			t.Fatalf("Create %s: %v", td.ID, err)
		}
	}

	list, err := todos.List(ctx, "u1", dom.TodoFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"c", "a", "d", "b"}
	if len(list) != len(want) {
		t.Fatalf("len=%d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("list[%d]=%s, want %s (order %v)", i, list[i].ID, id, ids(list))
		}
	}

	completed := true
	list, _ = todos.List(ctx, "u1", dom.TodoFilter{Completed: &completed})
	if got := ids(list); len(got) != 2 || got[0] != "d" || got[1] != "b" {
		t.Fatalf("completed=true -> %v", got)
	}
	high := dom.PriorityHigh
	notCompleted := false
	list, _ = todos.List(ctx, "u1", dom.TodoFilter{Completed: &notCompleted, Priority: &high})
	if got := ids(list); len(got) != 1 || got[0] != "c" {
		t.Fatalf("completed=false&priority=HIGH -> %v", got)
	}
}

func TestSQLiteTodoRepo_UpdateToggleDelete(t *testing.T) {
	todos, users := newTestRepos(t)
	ctx := context.Background()
	mustUser(t, users, "u1", "alice")

	desc := "details"
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := todos.Create(ctx, dom.Todo{ID: "t1", UserID: "u1", Title: "a", Description: &desc, DueDate: &due, Priority: dom.PriorityLow}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := todos.Update(ctx, "u1", "t1", dom.Todo{Title: "b", Priority: dom.PriorityHigh})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "b" || updated.Description != nil || updated.DueDate != nil || updated.Priority != dom.PriorityHigh {
		t.Fatalf("updated = %+v", updated)
	}

	toggled, err := todos.Toggle(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !toggled.Completed {
		t.Fatalf("toggle 1: completed=false")
	}
	toggled, _ = todos.Toggle(ctx, "u1", "t1")
	if toggled.Completed {
		t.Fatalf("toggle 2: completed=true")
	}

	if err := todos.Delete(ctx, "u1", "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := todos.GetByID(ctx, "u1", "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID after delete: err=%v", err)
	}
	if err := todos.Delete(ctx, "u1", "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: err=%v", err)
	}
}

func TestSQLiteTodoRepo_SearchAndOverdue(t *testing.T) {
	todos, users := newTestRepos(t)
	ctx := context.Background()
	mustUser(t, users, "u1", "alice")
	mustUser(t, users, "u2", "bob")

	past := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2099, 5, 1, 0, 0, 0, 0, time.UTC)
	desc := "Buy MILK"
	for _, td := range []dom.Todo{
		{ID: "a", UserID: "u1", Title: "groceries", Description: &desc, DueDate: &past},
		{ID: "b", UserID: "u1", Title: "Milkshake", DueDate: &future},
		{ID: "c", UserID: "u1", Title: "done", DueDate: &past, Completed: true},
		{ID: "d", UserID: "u2", Title: "milk for bob", DueDate: &past},
	} {
		td.Priority = dom.PriorityMedium
		if _, err := todos.Create(ctx, td); err != nil {
			t.Fatalf("Create %s: %v", td.ID, err)
		}
	}

	found, err := todos.Search(ctx, "u1", "milk")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("search ids=%v, want a and b", ids(found))
	}

	overdue, err := todos.Overdue(ctx, "u1", time.Now())
	if err != nil {
		t.Fatalf("Overdue: %v", err)
	}
	if got := ids(overdue); len(got) != 1 || got[0] != "a" {
		t.Fatalf("overdue=%v, want [a]", got)
	}
}

func TestSQLiteTodoRepo_SearchMatchesWildcardsLiterally(t *testing.T) {
	todos, users := newTestRepos(t)
	ctx := context.Background()
	mustUser(t, users, "u1", "alice")

	for _, td := range []dom.Todo{
		{ID: "pct", UserID: "u1", Title: "100% done"},
		{ID: "num", UserID: "u1", Title: "1000 items"},
		{ID: "snake", UserID: "u1", Title: "rename user_id"},
		{ID: "plain", UserID: "u1", Title: "rename userXid"},
		{ID: "path", UserID: "u1", Title: `C:\temp`},
	} {
		td.Priority = dom.PriorityLow
		if _, err := todos.Create(ctx, td); err != nil {
			t.Fatalf("Create %s: %v", td.ID, err)
		}
	}

	tests := []struct {
		q    string
		want []string
	}{
		{"100%", []string{"pct"}},
		{"user_id", []string{"snake"}},
		{`c:\`, []string{"path"}},
		{"%", []string{"pct"}},
	}
	for _, tt := range tests {
		found, err := todos.Search(ctx, "u1", tt.q)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.q, err)
		}
		if got := ids(found); !sameIDs(got, tt.want) {
			t.Errorf("Search(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func sameIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := map[string]bool{}
	for _, id := range got {
		seen[id] = true
	}
	for _, id := range want {
		if !seen[id] {
			return false
		}
	}
	return true
}

func TestSQLiteUserRepo_Duplicate(t *testing.T) {
	_, users := newTestRepos(t)
	ctx := context.Background()
	mustUser(t, users, "u1", "alice")

	_, err := users.Create(ctx, dom.User{ID: "u2", Username: "alice", PasswordHash: "x"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err=%v, want ErrDuplicate", err)
	}
	got, err := users.GetByUsername(ctx, "alice")
	if err != nil || got.ID != "u1" {
		t.Fatalf("GetByUsername = %+v, %v", got, err)
	}
	if _, err := users.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID missing: err=%v", err)
	}
}

func ids(list []dom.Todo) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}
