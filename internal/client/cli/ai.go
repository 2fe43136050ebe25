package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/client/api"
)

// Prioritize asks the server for a priority suggestion for a task and
// applies it if the user agrees.
func (a *App) Prioritize(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Task id")
	if err != nil {
		return err
	}
	t, err := a.api.GetTask(ctx, id)
	if err != nil {
		return err
	}

	s, err := a.api.Prioritize(ctx, t.Title, deref(t.Description))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Suggested priority: %s\nReason: %s\n", s.Priority, s.Reason)

	if s.Priority == t.Priority {
		return nil
	}
	answer, err := getSimpleText(a.reader, "Apply? [y/N]", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		return nil
	}

	if _, err := a.api.UpdateTask(ctx, id, api.TaskUpdate{"priority": s.Priority}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Priority updated")
	return nil
}

// Summarize stores a one-sentence summary of the task description.
func (a *App) Summarize(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Task id")
	if err != nil {
		return err
	}
	t, err := a.api.GetTask(ctx, id)
	if err != nil {
		return err
	}
	desc := deref(t.Description)
	if strings.TrimSpace(desc) == "" {
		return errors.New("task has no description to summarize")
	}

	summary, err := a.api.Summarize(ctx, desc)
	if err != nil {
		return err
	}
	if _, err := a.api.UpdateTask(ctx, id, api.TaskUpdate{"aiSummary": summary}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Summary: %s\n", summary)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
