package ports

import (
	"context"
	"time"

	"github.com/clientpulse/clientpulse/internal/domain"
)

// DraftRequest describes one outgoing follow-up draft. The correlation
// marker embeds client ID and event date so later steps never need to
// re-resolve identity by parsing prose.
type DraftRequest struct {
	To                []string
	Subject           string
	Body              string
	CorrelationMarker string
	Label             string
}

// SentMessage is one message found by the sent-detection scan
type SentMessage struct {
	ID            string
	ThreadID      string
	Subject       string
	Body          string
	SentAt        time.Time
	FirstInThread bool
	Marker        string
}

// MailService is the email collaborator boundary
type MailService interface {
	// CreateDraft creates a labelled draft and returns its ID
	CreateDraft(ctx context.Context, req DraftRequest) (string, error)

	// ListSentByLabel returns system-labelled sent messages newer than
	// since. Only first-in-thread messages are completion candidates.
	ListSentByLabel(ctx context.Context, label string, since time.Time) ([]SentMessage, error)

	// ApplyLabel tags a message so it is not scanned again
	ApplyLabel(ctx context.Context, messageID, label string) error

	// SearchCorrespondence returns threads involving the given addresses
	// newer than since, most recent first, at most max results
	SearchCorrespondence(ctx context.Context, addresses []string, since time.Time, max int) ([]domain.EmailSummary, error)

	// SendMessage sends a notification email
	SendMessage(ctx context.Context, to []string, subject, body string) error
}

// DocumentService is the running-notes document boundary
type DocumentService interface {
	// AppendParagraph appends text to the end of the document
	AppendParagraph(ctx context.Context, documentID, text string) error

	// ReadAllText returns the document's full text content
	ReadAllText(ctx context.Context, documentID string) (string, error)
}

// TaskService is the task-tracking collaborator boundary
type TaskService interface {
	// CreateTask creates one tracked task in the given project
	CreateTask(ctx context.Context, projectID, content string, due *time.Time, assignee string) (string, error)

	// ListOpenTasks returns the project's open tasks due on or before the
	// given instant, including the service's own overdue semantics
	ListOpenTasks(ctx context.Context, projectID string, dueBy time.Time) ([]domain.TaskItem, error)
}

// CalendarEvent is one scheduled meeting from the calendar collaborator
type CalendarEvent struct {
	ID        string
	Title     string
	StartsAt  time.Time
	EndsAt    time.Time
	Attendees []string
}

// CalendarService is the calendar collaborator boundary
type CalendarService interface {
	// ListUpcoming returns events starting within [from, to)
	ListUpcoming(ctx context.Context, from, to time.Time) ([]CalendarEvent, error)
}

// CompletionService is the AI synthesis boundary. Output is an opaque text
// blob; no understanding of it is attempted here.
type CompletionService interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Notifier delivers agenda and report payloads to the operator
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}
