package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/tasks/v1"

	"github.com/clientpulse/clientpulse/internal/domain"
)

// TasksAdapter implements TaskService on the Google Tasks API. The API has
// no assignee field, so the assignee travels in the task notes.
type TasksAdapter struct {
	svc *tasks.Service
}

// NewTasksAdapter creates a Tasks adapter acting as the configured user
func NewTasksAdapter(ctx context.Context, cfg Config) (*TasksAdapter, error) {
	opts, err := ClientOptions(ctx, cfg, tasks.TasksScope)
	if err != nil {
		return nil, err
	}

	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &TasksAdapter{svc: svc}, nil
}

// CreateTask creates one tracked task in the given list
func (a *TasksAdapter) CreateTask(ctx context.Context, projectID, content string, due *time.Time, assignee string) (string, error) {
	task := &tasks.Task{Title: content}
	if due != nil {
		task.Due = due.Format(time.RFC3339)
	}
	if assignee != "" {
		task.Notes = "Assignee: " + assignee
	}

	created, err := a.svc.Tasks.Insert(projectID, task).Context(ctx).Do()
	if err != nil {
		return "", classify(fmt.Errorf("failed to create task: %w", err))
	}
	return created.Id, nil
}

// ListOpenTasks returns the list's open tasks due on or before the given
// instant. Tasks without a due date are treated as always relevant.
func (a *TasksAdapter) ListOpenTasks(ctx context.Context, projectID string, dueBy time.Time) ([]domain.TaskItem, error) {
	call := a.svc.Tasks.List(projectID).
		ShowCompleted(false).
		ShowHidden(false).
		MaxResults(100)

	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list tasks: %w", err))
	}

	var out []domain.TaskItem
	for _, t := range list.Items {
		item := domain.TaskItem{
			ID:      t.Id,
			Content: t.Title,
		}
		if t.Due != "" {
			due, err := time.Parse(time.RFC3339, t.Due)
			if err != nil {
				continue
			}
			if due.After(dueBy) {
				continue
			}
			item.Due = &due
		}
		out = append(out, item)
	}
	return out, nil
}
