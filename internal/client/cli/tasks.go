package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/client/api"
)

var (
	validStatuses   = []string{"todo", "in_progress", "completed"}
	validPriorities = []string{"low", "medium", "high"}
)

// clearMarker blanks a nullable field in edit.
const clearMarker = "-"

// listFilter narrows the task list. Empty fields match everything.
type listFilter struct {
	status   string
	priority string
	search   string
}

// parseListArgs reads "[--status s] [--priority p] [search words...]".
func parseListArgs(args []string) (listFilter, error) {
	var f listFilter

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&f.status, "status", "", "todo, in_progress or completed")
	fs.StringVar(&f.priority, "priority", "", "low, medium or high")
	if err := fs.Parse(args); err != nil {
		return f, fmt.Errorf("usage: list [--status s] [--priority p] [search]: %w", err)
	}

	f.status = strings.ToLower(f.status)
	f.priority = strings.ToLower(f.priority)
	if f.status != "" && !slices.Contains(validStatuses, f.status) {
		return f, fmt.Errorf("status must be one of %s", strings.Join(validStatuses, ", "))
	}
	if f.priority != "" && !slices.Contains(validPriorities, f.priority) {
		return f, fmt.Errorf("priority must be one of %s", strings.Join(validPriorities, ", "))
	}
	f.search = strings.ToLower(strings.Join(fs.Args(), " "))
	return f, nil
}

// match applies the search case-insensitively to title and description.
func (f listFilter) match(t api.Task) bool {
	if f.status != "" && t.Status != f.status {
		return false
	}
	if f.priority != "" && t.Priority != f.priority {
		return false
	}
	if f.search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), f.search) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), f.search)
}

// List prints the tasks passing the filter in args, followed by an
// overview of all tasks.
func (a *App) List(ctx context.Context, args []string) error {
	filter, err := parseListArgs(args)
	if err != nil {
		return err
	}

	tasks, err := a.api.ListTasks(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks yet. Use 'add' to create one.")
		return nil
	}

	shown := 0
	for _, t := range tasks {
		if filter.match(t) {
			fmt.Fprintln(a.out, taskLine(t))
			shown++
		}
	}
	if shown == 0 {
		fmt.Fprintln(a.out, "No tasks match.")
	}
	fmt.Fprintln(a.out, overview(tasks))
	return nil
}

// overview counts completed tasks against everything still open.
func overview(tasks []api.Task) string {
	completed := 0
	for _, t := range tasks {
		if t.Status == "completed" {
			completed++
		}
	}
	return fmt.Sprintf("%d tasks: %d pending, %d completed", len(tasks), len(tasks)-completed, completed)
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Task id")
	if err != nil {
		return err
	}
	t, err := a.api.GetTask(ctx, id)
	if err != nil {
		return err
	}
	printTask(a.out, t)
	return nil
}

func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	desc, err := GetMultiline(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	priority, err := getSimpleText(a.reader, "Priority [low/medium/high] (default medium)", a.out)
	if err != nil {
		return err
	}
	due, err := getSimpleText(a.reader, "Due date YYYY-MM-DD (optional)", a.out)
	if err != nil {
		return err
	}
	tags, err := GetTags(a.reader, a.out)
	if err != nil {
		return err
	}

	t, err := a.api.CreateTask(ctx, api.NewTask{
		Title:       title,
		Description: desc,
		Priority:    strings.ToLower(priority),
		DueDate:     due,
		Tags:        tags,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s\n", taskLine(*t))
	return nil
}

// Edit walks through the task fields. A blank answer keeps the current
// value and "-" clears description, due date or tags.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Task id")
	if err != nil {
		return err
	}
	t, err := a.api.GetTask(ctx, id)
	if err != nil {
		return err
	}

	upd := api.TaskUpdate{}

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", t.Title), a.out)
	if err != nil {
		return err
	}
	if title != "" {
		upd["title"] = title
	}

	desc, err := getSimpleText(a.reader, fmt.Sprintf("Description [%s] (- to clear)", valueOr(t.Description, "none")), a.out)
	if err != nil {
		return err
	}
	setNullable(upd, "description", desc)

	priority, err := getSimpleText(a.reader, fmt.Sprintf("Priority [%s]", t.Priority), a.out)
	if err != nil {
		return err
	}
	if priority != "" {
		upd["priority"] = strings.ToLower(priority)
	}

	status, err := getSimpleText(a.reader, fmt.Sprintf("Status [%s]", t.Status), a.out)
	if err != nil {
		return err
	}
	if status != "" {
		upd["status"] = strings.ToLower(status)
	}

	currentDue := "none"
	if t.DueDate != nil {
		currentDue = t.DueDate.Format("2006-01-02")
	}
	due, err := getSimpleText(a.reader, fmt.Sprintf("Due date YYYY-MM-DD [%s] (- to clear)", currentDue), a.out)
	if err != nil {
		return err
	}
	setNullable(upd, "dueDate", due)

	currentTags := "none"
	if len(t.Tags) > 0 {
		currentTags = strings.Join(t.Tags, ", ")
	}
	tags, err := getSimpleText(a.reader, fmt.Sprintf("Tags, comma separated [%s] (- to clear)", currentTags), a.out)
	if err != nil {
		return err
	}
	switch tags {
	case "":
	case clearMarker:
		upd["tags"] = nil
	default:
		upd["tags"] = splitTags(tags)
	}

	if len(upd) == 0 {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	updated, err := a.api.UpdateTask(ctx, id, upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s\n", taskLine(*updated))
	return nil
}

func setNullable(upd api.TaskUpdate, key, answer string) {
	switch answer {
	case "":
	case clearMarker:
		upd[key] = nil
	default:
		upd[key] = answer
	}
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func (a *App) Done(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Task id")
	if err != nil {
		return err
	}
	return a.updateStatus(ctx, id, "completed")
}

// SetStatus expects "status <id> <status>".
func (a *App) SetStatus(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn("Usage: status <id> <" + strings.Join(validStatuses, "|") + ">")
		return nil
	}
	return a.updateStatus(ctx, args[0], args[1])
}

func (a *App) updateStatus(ctx context.Context, id, status string) error {
	t, err := a.api.UpdateTask(ctx, id, api.TaskUpdate{"status": status})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s\n", taskLine(*t))
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Task id")
	if err != nil {
		return err
	}
	if err := a.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func taskLine(t api.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s] %-6s %s", t.ID, statusMark(t.Status), t.Priority, t.Title)
	if t.DueDate != nil {
		fmt.Fprintf(&b, " (due %s)", t.DueDate.Format("2006-01-02"))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, " #%s", strings.Join(t.Tags, " #"))
	}
	return b.String()
}

func statusMark(s string) string {
	switch s {
	case "completed":
		return "x"
	case "in_progress":
		return "~"
	}
	return " "
}

func printTask(w io.Writer, t *api.Task) {
	fmt.Fprintf(w, "ID:       %s\n", t.ID)
	fmt.Fprintf(w, "Title:    %s\n", t.Title)
	fmt.Fprintf(w, "Status:   %s\n", t.Status)
	fmt.Fprintf(w, "Priority: %s\n", t.Priority)
	if t.DueDate != nil {
		fmt.Fprintf(w, "Due:      %s\n", t.DueDate.Format("2006-01-02"))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "Tags:     %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Description != nil && *t.Description != "" {
		fmt.Fprintf(w, "\n%s\n", *t.Description)
	}
	if t.AISummary != nil {
		fmt.Fprintf(w, "\nSummary:  %s\n", *t.AISummary)
	}
	fmt.Fprintf(w, "Created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
}
