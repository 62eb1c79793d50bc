package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/pkg/apperror"
	"github.com/clientpulse/clientpulse/pkg/retry"
)

// OutlookUseCase composes the weekly outlook report: upcoming meetings per
// client, schedule conflicts, and outstanding task counts. Thin by design;
// the interesting logic lives in the conflict detector and the aggregator's
// sources.
type OutlookUseCase struct {
	clientRepo ports.ClientRepository
	auditRepo  ports.AuditRepository
	calendar   ports.CalendarService
	tasks      ports.TaskService
	notifier   ports.Notifier
	log        logger.Logger
	window     time.Duration
	retryCfg   retry.Config
	now        func() time.Time
}

// NewOutlookUseCase creates the outlook report composer
func NewOutlookUseCase(
	clientRepo ports.ClientRepository,
	auditRepo ports.AuditRepository,
	calendar ports.CalendarService,
	tasks ports.TaskService,
	notifier ports.Notifier,
	log logger.Logger,
	window time.Duration,
) *OutlookUseCase {
	return &OutlookUseCase{
		clientRepo: clientRepo,
		auditRepo:  auditRepo,
		calendar:   calendar,
		tasks:      tasks,
		notifier:   notifier,
		log:        log,
		window:     window,
		retryCfg:   retry.DefaultConfig(),
		now:        time.Now,
	}
}

// ComposeAndSend builds one report over the reporting window and delivers it
func (uc *OutlookUseCase) ComposeAndSend(ctx context.Context) error {
	from := uc.now()
	to := from.Add(uc.window)

	var events []ports.CalendarEvent
	err := retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
		var ferr error
		events, ferr = uc.calendar.ListUpcoming(ctx, from, to)
		return ferr
	})
	if err != nil {
		return apperror.NewExternalServiceFailure("calendar fetch failed", err)
	}

	registry, err := uc.clientRepo.ListAll(ctx)
	if err != nil {
		return apperror.NewPersistenceFailure("failed to load client registry", err)
	}

	perClient := map[string][]*domain.MeetingEvent{}
	clientsByID := map[string]*domain.ClientRecord{}
	for _, ev := range events {
		client, rerr := domain.ResolveClient(registry, ev.Attendees)
		if rerr != nil {
			continue
		}
		m := domain.NewMeetingEvent(ev.ID, ev.Title, ev.StartsAt, ev.EndsAt, ev.Attendees)
		perClient[client.ID] = append(perClient[client.ID], m)
		clientsByID[client.ID] = client
	}

	ids := make([]string, 0, len(perClient))
	for id := range perClient {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return clientsByID[ids[i]].Name < clientsByID[ids[j]].Name
	})

	var report strings.Builder
	fmt.Fprintf(&report, "Outlook %s to %s\n\n", from.Format("Jan 2"), to.Format("Jan 2"))

	for _, id := range ids {
		client := clientsByID[id]
		meetings := perClient[id]
		sort.Slice(meetings, func(i, j int) bool {
			return meetings[i].StartsAt.Before(meetings[j].StartsAt)
		})

		fmt.Fprintf(&report, "%s\n", client.Name)
		for _, m := range meetings {
			fmt.Fprintf(&report, "  %s  %s\n", m.StartsAt.Format("Mon Jan 2 15:04"), m.Title)
		}

		for _, pair := range domain.DetectConflicts(meetings) {
			fmt.Fprintf(&report, "  CONFLICT: %q overlaps %q\n", pair.A.Title, pair.B.Title)
		}

		if client.TaskProjectID != "" {
			open := uc.openTaskCount(ctx, client)
			if open >= 0 {
				fmt.Fprintf(&report, "  open tasks due: %d\n", open)
			}
		}
		report.WriteString("\n")
	}

	if len(ids) == 0 {
		report.WriteString("No client meetings scheduled.\n")
	}

	if err := uc.notifier.Notify(ctx, "Weekly client outlook", report.String()); err != nil {
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionOutlookReport, nil,
			fmt.Sprintf("delivery failed: %v", err), domain.AuditStatusError))
		return apperror.NewExternalServiceFailure("outlook delivery failed", err)
	}

	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionOutlookReport, nil,
		fmt.Sprintf("report covering %d clients", len(ids)), domain.AuditStatusSuccess))
	return nil
}

func (uc *OutlookUseCase) openTaskCount(ctx context.Context, client *domain.ClientRecord) int {
	var tasks []domain.TaskItem
	err := retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
		var ferr error
		tasks, ferr = uc.tasks.ListOpenTasks(ctx, client.TaskProjectID, uc.now())
		return ferr
	})
	if err != nil {
		uc.log.Warn(ctx, "task count unavailable for report", map[string]interface{}{
			"client_id": client.ID, "error": err.Error(),
		})
		return -1
	}
	return len(tasks)
}
