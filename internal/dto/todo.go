package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	dom "todoapp/internal/domain"
)

const (
	maxTitleLen       = 255
	maxDescriptionLen = 1000
)

// Timestamp renders as UTC with millisecond precision: "2025-01-01T00:00:00.000Z".
type Timestamp struct{ time.Time }

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(timestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return err
	}
	t.Time = parsed.UTC()
	return nil
}

// NewTimestamp wraps a possibly nil time.
func NewTimestamp(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	return &Timestamp{Time: *t}
}

// Nullable distinguishes an absent field (Set == false) from an explicit null
// (Set && Null) and a value. Use with the omitzero tag when encoding.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: v} }

// Null returns an explicit null.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true, Null: true} }

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Null {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// CreateTodoRequest is the JSON body for POST /todos.
type CreateTodoRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=1000"`
	Priority    string  `json:"priority,omitempty" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate     *string `json:"dueDate,omitempty"` // "2026-02-19" or ISO-8601 datetime
}

// NewTodo finishes validation that binding tags cannot express and converts to the domain input.
func (r CreateTodoRequest) NewTodo() (dom.NewTodo, error) {
	var details []string
	title := strings.TrimSpace(r.Title)
	if title == "" {
		details = append(details, "title: is required")
	}
	in := dom.NewTodo{
		Title:       title,
		Description: r.Description,
		Priority:    dom.PriorityMedium,
	}
	if r.Priority != "" {
		in.Priority = dom.Priority(r.Priority)
	}
	if r.DueDate != nil {
		due, err := ParseDueDate(*r.DueDate)
		if err != nil {
			details = append(details, "dueDate: "+err.Error())
		} else {
			in.DueDate = &due
		}
	}
	if len(details) > 0 {
		return dom.NewTodo{}, NewValidationError(details...)
	}
	return in, nil
}

// UpdateTodoRequest is the JSON body for PATCH /todos/:id. Absent fields are
// left unchanged; description and dueDate may be null to clear them.
type UpdateTodoRequest struct {
	Title       Nullable[string] `json:"title,omitzero" swaggertype:"string"`
	Description Nullable[string] `json:"description,omitzero" swaggertype:"string" extensions:"x-nullable"`
	Completed   Nullable[bool]   `json:"completed,omitzero" swaggertype:"boolean"`
	Priority    Nullable[string] `json:"priority,omitzero" swaggertype:"string" enums:"LOW,MEDIUM,HIGH"`
	DueDate     Nullable[string] `json:"dueDate,omitzero" swaggertype:"string" extensions:"x-nullable"`
}

// Patch validates the request and converts it to a domain patch.
func (r UpdateTodoRequest) Patch() (dom.TodoPatch, error) {
	var (
		patch   dom.TodoPatch
		details []string
	)
	if r.Title.Set {
		title := strings.TrimSpace(r.Title.Value)
		switch {
		case r.Title.Null || title == "":
			details = append(details, "title: cannot be empty")
		case utf8.RuneCountInString(title) > maxTitleLen:
			details = append(details, "title: must be at most 255 characters")
		default:
			patch.Title = &title
		}
	}
	if r.Description.Set {
		patch.Description.Set = true
		if !r.Description.Null {
			if utf8.RuneCountInString(r.Description.Value) > maxDescriptionLen {
				details = append(details, "description: must be at most 1000 characters")
			}
			desc := r.Description.Value
			patch.Description.Value = &desc
		}
	}
	if r.Completed.Set {
		if r.Completed.Null {
			details = append(details, "completed: must be a boolean")
		} else {
			completed := r.Completed.Value
			patch.Completed = &completed
		}
	}
	if r.Priority.Set {
		p := dom.Priority(r.Priority.Value)
		if r.Priority.Null || !p.Valid() {
			details = append(details, "priority: must be one of LOW MEDIUM HIGH")
		} else {
			patch.Priority = &p
		}
	}
	if r.DueDate.Set {
		patch.DueDate.Set = true
		if !r.DueDate.Null {
			due, err := ParseDueDate(r.DueDate.Value)
			if err != nil {
				details = append(details, "dueDate: "+err.Error())
			}
			patch.DueDate.Value = &due
		}
	}
	if len(details) > 0 {
		return dom.TodoPatch{}, NewValidationError(details...)
	}
	return patch, nil
}

// ListTodosQuery holds the optional list filters.
type ListTodosQuery struct {
	Completed string `form:"completed" binding:"omitempty,oneof=true false"`
	Priority  string `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
}

// Filter converts the query to a domain filter.
func (q ListTodosQuery) Filter() dom.TodoFilter {
	var f dom.TodoFilter
	if q.Completed != "" {
		completed := q.Completed == "true"
		f.Completed = &completed
	}
	if q.Priority != "" {
		p := dom.Priority(q.Priority)
		f.Priority = &p
	}
	return f
}

// SearchTodosQuery is the query of GET /todos/search.
type SearchTodosQuery struct {
	Q string `form:"q" binding:"max=255"`
}

type TodoResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description" extensions:"x-nullable"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *Timestamp `json:"dueDate" swaggertype:"string" format:"date-time" extensions:"x-nullable"`
	CreatedAt   Timestamp  `json:"createdAt" swaggertype:"string" format:"date-time"`
	UpdatedAt   Timestamp  `json:"updatedAt" swaggertype:"string" format:"date-time"`
	UserID      string     `json:"userId"`
}

// DeleteResult is the payload of a successful delete.
type DeleteResult struct {
	Success bool `json:"success"`
}
