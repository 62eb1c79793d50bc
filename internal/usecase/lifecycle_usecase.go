package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/internal/prompt"
	"github.com/clientpulse/clientpulse/pkg/apperror"
	"github.com/clientpulse/clientpulse/pkg/retry"
)

// WebhookParticipant is one name/address pair from the recording provider
type WebhookParticipant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WebhookActionItem is one action item from the recording provider
type WebhookActionItem struct {
	Description string     `json:"description"`
	Assignee    string     `json:"assignee"`
	DueDate     *time.Time `json:"due_date"`
}

// MeetingWebhookPayload is the JSON body of one recording-ingested webhook
type MeetingWebhookPayload struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	StartedAt    time.Time            `json:"started_at"`
	EndedAt      time.Time            `json:"ended_at"`
	Participants []WebhookParticipant `json:"participants"`
	Summary      string               `json:"summary"`
	ActionItems  []WebhookActionItem  `json:"action_items"`
}

const followupTemplate = `Hi {{client_name}} team,

Thanks for meeting with us. A quick recap of what we covered:

{{summary}}

Action items:
{{action_items}}

Please flag anything we missed.

{{marker}}`

// LifecycleUseCase drives a meeting event through the bounded state machine
// from recording ingestion to filed notes. Cross-invocation state lives only
// in the repositories; every pass is safe to re-run after a partial failure.
type LifecycleUseCase struct {
	clientRepo    ports.ClientRepository
	meetingRepo   ports.MeetingRepository
	unmatchedRepo ports.UnmatchedRepository
	auditRepo     ports.AuditRepository
	mail          ports.MailService
	docs          ports.DocumentService
	tasks         ports.TaskService
	log           logger.Logger
	mailCfg       config.MailConfig
	sweepWindow   time.Duration
	retryCfg      retry.Config
	now           func() time.Time
}

// NewLifecycleUseCase creates the lifecycle orchestrator
func NewLifecycleUseCase(
	clientRepo ports.ClientRepository,
	meetingRepo ports.MeetingRepository,
	unmatchedRepo ports.UnmatchedRepository,
	auditRepo ports.AuditRepository,
	mail ports.MailService,
	docs ports.DocumentService,
	tasks ports.TaskService,
	log logger.Logger,
	mailCfg config.MailConfig,
	sweepWindow time.Duration,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		clientRepo:    clientRepo,
		meetingRepo:   meetingRepo,
		unmatchedRepo: unmatchedRepo,
		auditRepo:     auditRepo,
		mail:          mail,
		docs:          docs,
		tasks:         tasks,
		log:           log,
		mailCfg:       mailCfg,
		sweepWindow:   sweepWindow,
		retryCfg:      retry.DefaultConfig(),
		now:           time.Now,
	}
}

// IngestWebhook handles one verified recording webhook: creates the meeting
// event, resolves the client, and creates the correlation-marked follow-up
// draft. Resolution failure parks the event as Unmatched and records an
// UnmatchedItem; it is not an error to the webhook caller.
func (uc *LifecycleUseCase) IngestWebhook(ctx context.Context, payload MeetingWebhookPayload) (*domain.MeetingEvent, error) {
	if err := validatePayload(payload); err != nil {
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionWebhookRejected, nil, err.Error(), domain.AuditStatusError))
		return nil, apperror.NewValidationFailure("invalid webhook payload", err)
	}

	// replayed deliveries are a no-op
	if existing, err := uc.meetingRepo.FindByExternalID(ctx, payload.ID); err == nil && existing != nil {
		uc.log.Info(ctx, "duplicate webhook delivery ignored", map[string]interface{}{
			"external_id": payload.ID,
		})
		return existing, nil
	}

	addresses := make([]string, 0, len(payload.Participants))
	for _, p := range payload.Participants {
		addresses = append(addresses, p.Email)
	}

	event := domain.NewMeetingEvent(payload.ID, payload.Title, payload.StartedAt, payload.EndedAt, addresses)
	event.Summary = payload.Summary
	for _, ai := range payload.ActionItems {
		event.ActionItems = append(event.ActionItems, domain.ActionItem{
			Description: ai.Description,
			Assignee:    ai.Assignee,
			DueDate:     ai.DueDate,
		})
	}
	if err := uc.meetingRepo.Create(ctx, event); err != nil {
		return nil, apperror.NewPersistenceFailure("failed to store meeting event", err)
	}
	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionWebhookReceived, nil,
		fmt.Sprintf("meeting %q (%s)", payload.Title, payload.ID), domain.AuditStatusInfo))

	return event, uc.draftFollowup(ctx, event)
}

// draftFollowup resolves the client for an event in Received and creates the
// correlation-marked follow-up draft. Resolution failure parks the event as
// Unmatched; draft failure leaves it in Received so the next sweep retries.
func (uc *LifecycleUseCase) draftFollowup(ctx context.Context, event *domain.MeetingEvent) error {
	registry, err := uc.clientRepo.ListAll(ctx)
	if err != nil {
		return apperror.NewPersistenceFailure("failed to load client registry", err)
	}

	client, err := domain.ResolveClient(registry, event.Participants)
	if err != nil {
		return uc.parkUnmatched(ctx, event, event.Participants)
	}

	draftID, err := uc.createDraft(ctx, client, event)
	if err != nil {
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionDraftCreated, &client.ID,
			fmt.Sprintf("draft creation failed for %s: %v", event.ExternalID, err),
			domain.AuditStatusError))
		return apperror.NewExternalServiceFailure("draft creation failed", err)
	}

	if err := event.MarkDrafted(client.ID, draftID); err != nil {
		return apperror.NewInternal("drafted transition rejected", err)
	}
	if err := uc.meetingRepo.Update(ctx, event); err != nil {
		return apperror.NewPersistenceFailure("failed to persist drafted state", err)
	}

	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionDraftCreated, &client.ID,
		fmt.Sprintf("draft %s for meeting %s", draftID, event.ExternalID),
		domain.AuditStatusSuccess))
	uc.log.Info(ctx, "meeting drafted", map[string]interface{}{
		"client_id":   client.ID,
		"external_id": event.ExternalID,
	})
	return nil
}

// SweepSentDrafts is the idempotent reconciliation pass: it re-attempts
// drafts for events stranded in Received, scans only system-labelled messages
// inside a trailing window, matches first-in-thread messages back to drafted
// events by correlation marker, and runs completion side effects for anything
// newly sent. Partially completed events stay in Sent and are retried on the
// next pass.
func (uc *LifecycleUseCase) SweepSentDrafts(ctx context.Context) error {
	stranded, err := uc.meetingRepo.ListByState(ctx, domain.MeetingStateReceived)
	if err != nil {
		return apperror.NewPersistenceFailure("failed to list received events", err)
	}
	for _, event := range stranded {
		if err := uc.draftFollowup(ctx, event); err != nil {
			uc.log.Warn(ctx, "draft retry failed", map[string]interface{}{
				"external_id": event.ExternalID, "error": err.Error(),
			})
		}
	}

	pending, err := uc.meetingRepo.ListByState(ctx, domain.MeetingStateDrafted)
	if err != nil {
		return apperror.NewPersistenceFailure("failed to list drafted events", err)
	}
	stuck, err := uc.meetingRepo.ListByState(ctx, domain.MeetingStateSent)
	if err != nil {
		return apperror.NewPersistenceFailure("failed to list sent events", err)
	}

	var sent []ports.SentMessage
	err = retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
		var ferr error
		sent, ferr = uc.mail.ListSentByLabel(ctx, uc.mailCfg.FollowupLabel, uc.now().Add(-uc.sweepWindow))
		return ferr
	})
	if err != nil {
		return apperror.NewExternalServiceFailure("sent-detection scan failed", err)
	}

	for _, event := range pending {
		msg, ok := uc.findSentMessage(event, sent)
		if !ok {
			continue
		}
		if err := event.MarkSent(msg.ID); err != nil {
			continue
		}
		if err := uc.meetingRepo.Update(ctx, event); err != nil {
			uc.log.Error(ctx, "failed to persist sent state", err, map[string]interface{}{
				"external_id": event.ExternalID,
			})
			continue
		}
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionSentDetected, event.ClientID,
			fmt.Sprintf("message %s for meeting %s", msg.ID, event.ExternalID),
			domain.AuditStatusSuccess))

		uc.completeEvent(ctx, event, msg.Body)
	}

	// events left in Sent by an earlier partial failure
	for _, event := range stuck {
		body := ""
		for _, m := range sent {
			if m.ID == event.SentMsgID {
				body = m.Body
				break
			}
		}
		uc.completeEvent(ctx, event, body)
	}

	return nil
}

// completeEvent attempts both completion side effects. Each is idempotent
// and individually retried; the event reaches Completed only when both have
// succeeded, so re-running after a crash or partial failure is safe.
func (uc *LifecycleUseCase) completeEvent(ctx context.Context, event *domain.MeetingEvent, sentBody string) {
	client, err := uc.clientRepo.FindByID(ctx, derefOr(event.ClientID, ""))
	if err != nil {
		uc.log.Error(ctx, "completion skipped, client lookup failed", err, map[string]interface{}{
			"external_id": event.ExternalID,
		})
		return
	}

	tasksOK := uc.createTasksFromBody(ctx, client, event, sentBody)
	notesOK := uc.appendNotes(ctx, client, event, sentBody)
	if !tasksOK || !notesOK {
		// stay in Sent; the next sweep retries whichever effect failed
		return
	}

	if err := uc.mail.ApplyLabel(ctx, event.SentMsgID, uc.mailCfg.ProcessedLabel); err != nil {
		uc.log.Warn(ctx, "failed to apply processed label", map[string]interface{}{
			"message_id": event.SentMsgID, "error": err.Error(),
		})
	}

	if err := event.MarkCompleted(); err != nil {
		return
	}
	if err := uc.meetingRepo.Update(ctx, event); err != nil {
		uc.log.Error(ctx, "failed to persist completed state", err, map[string]interface{}{
			"external_id": event.ExternalID,
		})
		return
	}
	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionMeetingCompleted, &client.ID,
		fmt.Sprintf("meeting %s completed", event.ExternalID),
		domain.AuditStatusSuccess))
}

// createTasksFromBody extracts action items from the sent body (the human
// may have edited the draft) and creates tracked tasks. Existing tasks
// carrying the event marker are never recreated.
func (uc *LifecycleUseCase) createTasksFromBody(ctx context.Context, client *domain.ClientRecord, event *domain.MeetingEvent, sentBody string) bool {
	items := uc.actionItemsFor(event, sentBody)
	if len(items) == 0 {
		return true
	}
	if client.TaskProjectID == "" {
		uc.log.Warn(ctx, "client has no task project, skipping task creation", map[string]interface{}{
			"client_id": client.ID,
		})
		return true
	}

	marker := taskMarker(event.ExternalID)

	var existing []domain.TaskItem
	err := retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
		var ferr error
		existing, ferr = uc.tasks.ListOpenTasks(ctx, client.TaskProjectID, uc.now().Add(365*24*time.Hour))
		return ferr
	})
	if err != nil {
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionTasksCreated, &client.ID,
			fmt.Sprintf("task listing failed for %s: %v", event.ExternalID, err),
			domain.AuditStatusError))
		return false
	}

	for _, item := range items {
		if taskExists(existing, item.Description, marker) {
			continue
		}
		content := item.Description + " " + marker
		err := retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
			_, ferr := uc.tasks.CreateTask(ctx, client.TaskProjectID, content, item.DueDate, item.Assignee)
			return ferr
		})
		if err != nil {
			uc.auditRepo.Append(ctx, domain.NewAuditRecord(
				domain.AuditActionTasksCreated, &client.ID,
				fmt.Sprintf("task creation failed for %s: %v", event.ExternalID, err),
				domain.AuditStatusError))
			return false
		}
	}

	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionTasksCreated, &client.ID,
		fmt.Sprintf("%d action items for meeting %s", len(items), event.ExternalID),
		domain.AuditStatusSuccess))
	return true
}

// appendNotes files the sent body as a delimited notes block. A block whose
// header date already matches the event date means a previous pass appended
// it; the append is skipped rather than duplicated.
func (uc *LifecycleUseCase) appendNotes(ctx context.Context, client *domain.ClientRecord, event *domain.MeetingEvent, sentBody string) bool {
	if client.DocumentID == "" {
		uc.log.Warn(ctx, "client has no document, skipping notes append", map[string]interface{}{
			"client_id": client.ID,
		})
		return true
	}

	var docText string
	err := retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
		var ferr error
		docText, ferr = uc.docs.ReadAllText(ctx, client.DocumentID)
		return ferr
	})
	if err != nil {
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionNotesFiled, &client.ID,
			fmt.Sprintf("document read failed for %s: %v", event.ExternalID, err),
			domain.AuditStatusError))
		return false
	}

	if _, date, ok := domain.LatestNotesBlock(docText); ok && sameDay(date, event.StartsAt) {
		return true
	}

	body := sentBody
	if strings.TrimSpace(body) == "" {
		body = event.Summary
	}
	block := domain.FormatNotesBlock(event.StartsAt, body)

	err = retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
		return uc.docs.AppendParagraph(ctx, client.DocumentID, block)
	})
	if err != nil {
		uc.auditRepo.Append(ctx, domain.NewAuditRecord(
			domain.AuditActionNotesFiled, &client.ID,
			fmt.Sprintf("notes append failed for %s: %v", event.ExternalID, err),
			domain.AuditStatusError))
		return false
	}

	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionNotesFiled, &client.ID,
		fmt.Sprintf("notes filed for meeting %s", event.ExternalID),
		domain.AuditStatusSuccess))
	return true
}

func (uc *LifecycleUseCase) createDraft(ctx context.Context, client *domain.ClientRecord, event *domain.MeetingEvent) (string, error) {
	marker := CorrelationMarker(client.ID, event.StartsAt)

	var itemLines strings.Builder
	for _, ai := range event.ActionItems {
		itemLines.WriteString("- " + ai.Description)
		if ai.Assignee != "" {
			itemLines.WriteString(" (" + ai.Assignee + ")")
		}
		itemLines.WriteString("\n")
	}
	itemsText := strings.TrimRight(itemLines.String(), "\n")
	if itemsText == "" {
		itemsText = "(none)"
	}

	body, err := prompt.Render(followupTemplate, map[string]string{
		"client_name":  client.Name,
		"summary":      event.Summary,
		"action_items": itemsText,
		"marker":       marker,
	})
	if err != nil {
		return "", err
	}

	var draftID string
	err = retry.Do(ctx, uc.retryCfg, func(ctx context.Context) error {
		var ferr error
		draftID, ferr = uc.mail.CreateDraft(ctx, ports.DraftRequest{
			To:                event.Participants,
			Subject:           "Follow-up: " + event.Title,
			Body:              body,
			CorrelationMarker: marker,
			Label:             uc.mailCfg.FollowupLabel,
		})
		return ferr
	})
	return draftID, err
}

func (uc *LifecycleUseCase) parkUnmatched(ctx context.Context, event *domain.MeetingEvent, addresses []string) error {
	item := domain.NewUnmatchedItem(domain.UnmatchedItemMeeting,
		fmt.Sprintf("meeting %q (%s)", event.Title, event.ExternalID), addresses)
	if err := uc.unmatchedRepo.Create(ctx, item); err != nil {
		return apperror.NewPersistenceFailure("failed to record unmatched item", err)
	}
	if err := event.MarkUnmatched(); err != nil {
		return apperror.NewInternal("unmatched transition rejected", err)
	}
	if err := uc.meetingRepo.Update(ctx, event); err != nil {
		return apperror.NewPersistenceFailure("failed to persist unmatched state", err)
	}
	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionClientUnmatched, nil,
		fmt.Sprintf("no client for meeting %s", event.ExternalID),
		domain.AuditStatusWarning))
	return nil
}

// findSentMessage locates the sent message belonging to a drafted event.
// Only first-in-thread messages are candidates so replies in the same
// thread are never reprocessed.
func (uc *LifecycleUseCase) findSentMessage(event *domain.MeetingEvent, sent []ports.SentMessage) (ports.SentMessage, bool) {
	marker := CorrelationMarker(derefOr(event.ClientID, ""), event.StartsAt)
	for _, m := range sent {
		if !m.FirstInThread {
			continue
		}
		if m.Marker == marker || strings.Contains(m.Body, marker) {
			return m, true
		}
	}
	return ports.SentMessage{}, false
}

// actionItemsFor prefers items parsed from the sent body over the ones the
// provider reported, since the human may have edited the draft
func (uc *LifecycleUseCase) actionItemsFor(event *domain.MeetingEvent, sentBody string) []domain.ActionItem {
	if lines := domain.NotesActionLines(sentBody); len(lines) > 0 {
		items := make([]domain.ActionItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, domain.ActionItem{Description: l})
		}
		return items
	}
	return event.ActionItems
}

// CorrelationMarker builds the machine-readable marker embedded in drafts so
// later steps never re-resolve identity by parsing prose
func CorrelationMarker(clientID string, date time.Time) string {
	return "[clientpulse:" + clientID + ":" + date.Format("2006-01-02") + "]"
}

func taskMarker(externalID string) string {
	return "[src:" + externalID + "]"
}

func taskExists(existing []domain.TaskItem, description, marker string) bool {
	for _, t := range existing {
		if strings.Contains(t.Content, marker) &&
			strings.Contains(strings.ToLower(t.Content), strings.ToLower(description)) {
			return true
		}
	}
	return false
}

func validatePayload(p MeetingWebhookPayload) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if p.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	if len(p.Participants) == 0 {
		return fmt.Errorf("at least one participant is required")
	}
	for _, part := range p.Participants {
		if strings.TrimSpace(part.Email) == "" {
			return fmt.Errorf("participant email is required")
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
