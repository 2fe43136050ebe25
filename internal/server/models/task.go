package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	AISummary   *string    `json:"aiSummary"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewTask holds the caller-supplied fields of a task being created.
type NewTask struct {
	Title       string
	Description *string
	Priority    Priority
	Status      Status
	DueDate     *time.Time
	Tags        []string
}

// Optional marks a nullable field in a partial update. Set distinguishes
// "absent" (leave unchanged) from "present", and a nil Value means explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// TaskPatch is a partial update. Nil pointers on non-nullable fields mean
// "leave unchanged".
type TaskPatch struct {
	Title       *string
	Priority    *Priority
	Status      *Status
	Description Optional[string]
	DueDate     Optional[time.Time]
	AISummary   Optional[string]
	Tags        Optional[[]string]
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Priority == nil && p.Status == nil &&
		!p.Description.Set && !p.DueDate.Set && !p.AISummary.Set && !p.Tags.Set
}

// Apply copies every present field of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Value
	}
	if p.AISummary.Set {
		t.AISummary = p.AISummary.Value
	}
	if p.Tags.Set {
		if p.Tags.Value == nil {
			t.Tags = nil
		} else {
			t.Tags = *p.Tags.Value
		}
	}
}
