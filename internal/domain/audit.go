package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the kind of action being audited
type AuditAction string

const (
	AuditActionWebhookReceived  AuditAction = "WEBHOOK_RECEIVED"
	AuditActionWebhookRejected  AuditAction = "WEBHOOK_REJECTED"
	AuditActionDraftCreated     AuditAction = "DRAFT_CREATED"
	AuditActionSentDetected     AuditAction = "SENT_DETECTED"
	AuditActionTasksCreated     AuditAction = "TASKS_CREATED"
	AuditActionNotesFiled       AuditAction = "NOTES_FILED"
	AuditActionMeetingCompleted AuditAction = "MEETING_COMPLETED"
	AuditActionAgendaGenerated  AuditAction = "AGENDA_GENERATED"
	AuditActionContextGathered  AuditAction = "CONTEXT_GATHERED"
	AuditActionClientUnmatched  AuditAction = "CLIENT_UNMATCHED"
	AuditActionOutlookReport    AuditAction = "OUTLOOK_REPORT"
	AuditActionRegistryEdit     AuditAction = "REGISTRY_EDIT"
)

// AuditStatus represents the outcome class of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusError   AuditStatus = "ERROR"
	AuditStatusWarning AuditStatus = "WARNING"
	AuditStatusInfo    AuditStatus = "INFO"
)

// AuditRecord represents one append-only audit log entry
type AuditRecord struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Action    AuditAction `json:"action"`
	ClientID  *string     `json:"client_id,omitempty"`
	Details   string      `json:"details"`
	Status    AuditStatus `json:"status"`
}

// NewAuditRecord creates an audit record stamped with the current time
func NewAuditRecord(action AuditAction, clientID *string, details string, status AuditStatus) *AuditRecord {
	return &AuditRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Action:    action,
		ClientID:  clientID,
		Details:   details,
		Status:    status,
	}
}
