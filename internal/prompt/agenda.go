package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/clientpulse/clientpulse/internal/domain"
)

const agendaTemplate = `You are preparing a meeting agenda for {{client_name}} on {{meeting_date}}.

Outstanding tasks:
{{tasks}}

Recent correspondence:
{{correspondence}}

Notes from the previous meeting:
{{prior_notes}}

Action items from previous notes not yet tracked as tasks:
{{carried_over}}

Draft a concise agenda with discussion topics, open follow-ups, and suggested talking points.`

// BuildAgendaPrompt renders the synthesis request for one upcoming meeting.
// The context bundle is used verbatim; all truncation already happened in
// the aggregator.
func BuildAgendaPrompt(clientName string, meetingDate time.Time, agendaCtx *domain.AgendaContext) (string, error) {
	return Render(agendaTemplate, map[string]string{
		"client_name":    clientName,
		"meeting_date":   meetingDate.Format("Monday, January 2, 2006"),
		"tasks":          formatTasks(agendaCtx.OutstandingTasks),
		"correspondence": formatThreads(agendaCtx.RecentThreads),
		"prior_notes":    orNone(agendaCtx.PriorNotes),
		"carried_over":   formatList(agendaCtx.CarriedOverItems),
	})
}

func formatTasks(tasks []domain.TaskItem) string {
	if len(tasks) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range tasks {
		b.WriteString("- " + t.Content)
		if t.Due != nil {
			b.WriteString(" (due " + t.Due.Format("2006-01-02") + ")")
		}
		if t.Assignee != "" {
			b.WriteString(" [" + t.Assignee + "]")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatThreads(threads []domain.EmailSummary) string {
	if len(threads) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, th := range threads {
		fmt.Fprintf(&b, "- %s | %s | %s\n  %s\n",
			th.Date.Format("2006-01-02"), th.From, th.Subject, th.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
