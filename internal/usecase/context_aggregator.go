package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/pkg/retry"
)

// ContextAggregator assembles the bounded multi-source bundle for agenda
// synthesis. Every source is independently failure-tolerant: a failing
// source contributes an empty result and a warning audit record, never an
// aborted gather.
type ContextAggregator struct {
	mail      ports.MailService
	docs      ports.DocumentService
	tasks     ports.TaskService
	auditRepo ports.AuditRepository
	log       logger.Logger
	cfg       config.AgendaConfig
	retryCfg  retry.Config
	now       func() time.Time
}

// NewContextAggregator creates a context aggregator
func NewContextAggregator(
	mail ports.MailService,
	docs ports.DocumentService,
	tasks ports.TaskService,
	auditRepo ports.AuditRepository,
	log logger.Logger,
	cfg config.AgendaConfig,
) *ContextAggregator {
	return &ContextAggregator{
		mail:      mail,
		docs:      docs,
		tasks:     tasks,
		auditRepo: auditRepo,
		log:       log,
		cfg:       cfg,
		retryCfg:  retry.DefaultConfig(),
		now:       time.Now,
	}
}

// Gather collects outstanding tasks, recent correspondence, the most recent
// prior-notes block, and carried-over action items for one client
func (a *ContextAggregator) Gather(ctx context.Context, client *domain.ClientRecord, meetingDate time.Time) *domain.AgendaContext {
	bundle := &domain.AgendaContext{}

	bundle.OutstandingTasks = a.gatherTasks(ctx, client)
	bundle.RecentThreads = a.gatherCorrespondence(ctx, client)

	priorNotes, noteItems := a.gatherPriorNotes(ctx, client)
	bundle.PriorNotes = priorNotes
	bundle.CarriedOverItems = domain.CarriedOverItems(noteItems, bundle.OutstandingTasks)

	a.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionContextGathered, &client.ID,
		fmt.Sprintf("tasks=%d threads=%d carried=%d for meeting on %s",
			len(bundle.OutstandingTasks), len(bundle.RecentThreads),
			len(bundle.CarriedOverItems), meetingDate.Format("2006-01-02")),
		domain.AuditStatusInfo))
	return bundle
}

// gatherTasks returns the client's open tasks due now or earlier, including
// the task service's own overdue semantics
func (a *ContextAggregator) gatherTasks(ctx context.Context, client *domain.ClientRecord) []domain.TaskItem {
	if client.TaskProjectID == "" {
		return nil
	}
	var tasks []domain.TaskItem
	err := retry.Do(ctx, a.retryCfg, func(ctx context.Context) error {
		var ferr error
		tasks, ferr = a.tasks.ListOpenTasks(ctx, client.TaskProjectID, a.now())
		return ferr
	})
	if err != nil {
		a.warnSource(ctx, client, "tasks", err)
		return nil
	}
	return tasks
}

// gatherCorrespondence returns recent threads, most recent first, capped at
// the configured thread count with bodies truncated to bound the synthesis
// request size
func (a *ContextAggregator) gatherCorrespondence(ctx context.Context, client *domain.ClientRecord) []domain.EmailSummary {
	addresses := append(append([]string{}, client.ContactEmails...), client.Domains...)
	if len(addresses) == 0 {
		return nil
	}

	var threads []domain.EmailSummary
	err := retry.Do(ctx, a.retryCfg, func(ctx context.Context) error {
		var ferr error
		threads, ferr = a.mail.SearchCorrespondence(ctx, addresses,
			a.now().Add(-a.cfg.CorrespondenceWindow), a.cfg.ThreadCap)
		return ferr
	})
	if err != nil {
		a.warnSource(ctx, client, "correspondence", err)
		return nil
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].Date.After(threads[j].Date)
	})
	if len(threads) > a.cfg.ThreadCap {
		threads = threads[:a.cfg.ThreadCap]
	}
	for i := range threads {
		threads[i].Snippet = truncate(threads[i].Snippet, a.cfg.BodyTruncateChars)
	}
	return threads
}

// gatherPriorNotes returns the single most recent delimited notes block and
// its action item lines; older blocks stay out of the bundle to bound size
// and staleness
func (a *ContextAggregator) gatherPriorNotes(ctx context.Context, client *domain.ClientRecord) (string, []string) {
	if client.DocumentID == "" {
		return "", nil
	}
	var docText string
	err := retry.Do(ctx, a.retryCfg, func(ctx context.Context) error {
		var ferr error
		docText, ferr = a.docs.ReadAllText(ctx, client.DocumentID)
		return ferr
	})
	if err != nil {
		a.warnSource(ctx, client, "prior notes", err)
		return "", nil
	}

	block, _, ok := domain.LatestNotesBlock(docText)
	if !ok {
		return "", nil
	}
	return block, domain.NotesActionLines(block)
}

func (a *ContextAggregator) warnSource(ctx context.Context, client *domain.ClientRecord, source string, err error) {
	a.log.Warn(ctx, "context source failed", map[string]interface{}{
		"client_id": client.ID,
		"source":    source,
		"error":     err.Error(),
	})
	a.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionContextGathered, &client.ID,
		fmt.Sprintf("source %s unavailable: %v", source, err),
		domain.AuditStatusWarning))
}

// truncate keeps the leading max characters, never splitting a rune
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
