package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/internal/prompt"
	"github.com/clientpulse/clientpulse/pkg/apperror"
	"github.com/clientpulse/clientpulse/pkg/retry"
)

// AgendaUseCase generates one synthesized agenda per upcoming meeting. The
// dedup ledger is the only gate against regeneration: the entry is inserted
// before the notification goes out, so a crash between the two can at worst
// suppress a notification, never duplicate one. Business-hours gating
// happens at the trigger boundary, not here.
type AgendaUseCase struct {
	clientRepo    ports.ClientRepository
	dedupRepo     ports.DedupRepository
	unmatchedRepo ports.UnmatchedRepository
	auditRepo     ports.AuditRepository
	calendar      ports.CalendarService
	aggregator    *ContextAggregator
	completion    ports.CompletionService
	notifier      ports.Notifier
	docs          ports.DocumentService
	log           logger.Logger
	agendaCfg     config.AgendaConfig
	maxTokens     int
	retryCfg      retry.Config
	now           func() time.Time
}

// NewAgendaUseCase creates the agenda sub-flow orchestrator
func NewAgendaUseCase(
	clientRepo ports.ClientRepository,
	dedupRepo ports.DedupRepository,
	unmatchedRepo ports.UnmatchedRepository,
	auditRepo ports.AuditRepository,
	calendar ports.CalendarService,
	aggregator *ContextAggregator,
	completion ports.CompletionService,
	notifier ports.Notifier,
	docs ports.DocumentService,
	log logger.Logger,
	agendaCfg config.AgendaConfig,
	maxTokens int,
) *AgendaUseCase {
	return &AgendaUseCase{
		clientRepo:    clientRepo,
		dedupRepo:     dedupRepo,
		unmatchedRepo: unmatchedRepo,
		auditRepo:     auditRepo,
		calendar:      calendar,
		aggregator:    aggregator,
		completion:    completion,
		notifier:      notifier,
		docs:          docs,
		log:           log,
		agendaCfg:     agendaCfg,
		maxTokens:     maxTokens,
		retryCfg:      retry.DefaultConfig(),
		now:           time.Now,
	}
}

// GenerateUpcoming runs one agenda pass over the lookahead window. A
// failing meeting degrades only itself; the batch continues.
func (uc *AgendaUseCase) GenerateUpcoming(ctx context.Context) error {
	from := uc.now()
	to := from.Add(uc.agendaCfg.Lookahead)

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

	for _, event := range events {
		uc.generateOne(ctx, registry, event)
	}
	return nil
}

func (uc *AgendaUseCase) generateOne(ctx context.Context, registry []*domain.ClientRecord, event ports.CalendarEvent) {
	exists, err := uc.dedupRepo.Exists(ctx, event.ID)
	if err != nil {
		uc.log.Error(ctx, "dedup check failed", err, map[string]interface{}{"event_id": event.ID})
		return
	}
	if exists {
		return
	}

	client, err := domain.ResolveClient(registry, event.Attendees)
	if err != nil {
		item := domain.NewUnmatchedItem(domain.UnmatchedItemMeeting,
			fmt.Sprintf("upcoming meeting %q (%s)", event.Title, event.ID), event.Attendees)
		if cerr := uc.unmatchedRepo.Create(ctx, item); cerr != nil {
			uc.log.Error(ctx, "failed to record unmatched item", cerr, map[string]interface{}{"event_id": event.ID})
		}
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionClientUnmatched, nil,
			fmt.Sprintf("no client for upcoming meeting %s", event.ID),
			domain.AuditStatusWarning))
		return
	}

	bundle := uc.aggregator.Gather(ctx, client, event.StartsAt)

	promptText, err := prompt.BuildAgendaPrompt(client.Name, event.StartsAt, bundle)
	if err != nil {
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionAgendaGenerated, &client.ID,
			fmt.Sprintf("prompt build failed for %s: %v", event.ID, err),
			domain.AuditStatusError))
		return
	}

	var agenda string
	err = retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
		var ferr error
		agenda, ferr = uc.completion.Complete(ctx, promptText, uc.maxTokens)
		return ferr
	})
	if err != nil {
		// no dedup row written yet, so the next pass retries this event
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionAgendaGenerated, &client.ID,
			fmt.Sprintf("synthesis failed for %s: %v", event.ID, err),
			domain.AuditStatusError))
		return
	}

	inserted, err := uc.dedupRepo.Insert(ctx, &domain.DedupEntry{
		EventID:     event.ID,
		ClientID:    client.ID,
		GeneratedAt: uc.now(),
	})
	if err != nil {
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionAgendaGenerated, &client.ID,
			fmt.Sprintf("dedup insert failed for %s: %v", event.ID, err),
			domain.AuditStatusError))
		return
	}
	if !inserted {
		// an overlapping invocation won the insert race; it owns delivery
		uc.log.Info(ctx, "agenda already claimed by another invocation", map[string]interface{}{
			"event_id": event.ID,
		})
		return
	}

	subject := fmt.Sprintf("Agenda: %s (%s)", event.Title, event.StartsAt.Format("Jan 2"))
	if err := uc.notifier.Notify(ctx, subject, agenda); err != nil {
		// the ledger row exists, so this agenda is never regenerated;
		// the miss is audited instead
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionAgendaGenerated, &client.ID,
			fmt.Sprintf("notification failed for %s: %v", event.ID, err),
			domain.AuditStatusError))
	}

	if client.DocumentID != "" {
		if err := uc.docs.AppendParagraph(ctx, client.DocumentID, "Agenda for "+event.StartsAt.Format("2006-01-02")+"\n"+agenda+"\n"); err != nil {
			uc.log.Warn(ctx, "agenda document append failed", map[string]interface{}{
				"client_id": client.ID, "error": err.Error(),
			})
		}
	}

	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionAgendaGenerated, &client.ID,
		fmt.Sprintf("agenda for meeting %s", event.ID),
		domain.AuditStatusSuccess))
}
