package api

import "time"

type User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	Name      string    `json:"name"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	AISummary   *string    `json:"aiSummary"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewTask is the body of a create call. Empty optional fields are omitted
// so the server applies its defaults.
type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Status      string   `json:"status,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TaskUpdate is a partial update. Keys map to task JSON fields and a nil
// value clears a nullable field.
type TaskUpdate map[string]any

type PrioritySuggestion struct {
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}
