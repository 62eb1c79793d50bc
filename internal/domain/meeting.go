package domain

import (
	"time"

	"github.com/google/uuid"
)

// MeetingState represents the processing state of a meeting event
type MeetingState string

const (
	MeetingStateReceived  MeetingState = "RECEIVED"
	MeetingStateDrafted   MeetingState = "DRAFTED"
	MeetingStateSent      MeetingState = "SENT"
	MeetingStateCompleted MeetingState = "COMPLETED"
	MeetingStateUnmatched MeetingState = "UNMATCHED"
	MeetingStateFailed    MeetingState = "FAILED"
)

// ActionItem represents one action item carried on a meeting event
type ActionItem struct {
	Description string     `json:"description"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// MeetingEvent represents one ingested meeting recording or calendar entry.
// After creation only the processing state (and the handles set alongside a
// transition) may change; once a terminal state is reached the record is
// immutable.
type MeetingEvent struct {
	ID           string       `json:"id"`
	ExternalID   string       `json:"external_id"`
	Title        string       `json:"title"`
	StartsAt     time.Time    `json:"starts_at"`
	EndsAt       time.Time    `json:"ends_at"`
	ClientID     *string      `json:"client_id,omitempty"`
	State        MeetingState `json:"state"`
	Participants []string     `json:"participants"`
	Summary      string       `json:"summary,omitempty"`
	ActionItems  []ActionItem `json:"action_items,omitempty"`
	DraftID      string       `json:"draft_id,omitempty"`
	SentMsgID    string       `json:"sent_msg_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewMeetingEvent creates a meeting event in the Received state
func NewMeetingEvent(externalID, title string, startsAt, endsAt time.Time, participants []string) *MeetingEvent {
	now := time.Now()
	return &MeetingEvent{
		ID:           uuid.NewString(),
		ExternalID:   externalID,
		Title:        title,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		State:        MeetingStateReceived,
		Participants: normalizeAddresses(participants),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Terminal reports whether the event is in an absorbing state
func (m *MeetingEvent) Terminal() bool {
	switch m.State {
	case MeetingStateCompleted, MeetingStateUnmatched, MeetingStateFailed:
		return true
	}
	return false
}

// MarkDrafted transitions Received -> Drafted after client resolution
func (m *MeetingEvent) MarkDrafted(clientID, draftID string) error {
	if m.State != MeetingStateReceived {
		return ErrInvalidTransition
	}
	m.ClientID = &clientID
	m.DraftID = draftID
	m.State = MeetingStateDrafted
	m.UpdatedAt = time.Now()
	return nil
}

// MarkSent transitions Drafted -> Sent when the sweep detects the human
// actually sent the draft
func (m *MeetingEvent) MarkSent(sentMsgID string) error {
	if m.State != MeetingStateDrafted {
		return ErrInvalidTransition
	}
	m.SentMsgID = sentMsgID
	m.State = MeetingStateSent
	m.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted transitions Sent -> Completed once both completion side
// effects have succeeded
func (m *MeetingEvent) MarkCompleted() error {
	if m.State != MeetingStateSent {
		return ErrInvalidTransition
	}
	m.State = MeetingStateCompleted
	m.UpdatedAt = time.Now()
	return nil
}

// MarkUnmatched transitions Received -> Unmatched. Terminal for automation;
// only a manual registry edit upstream can help future events.
func (m *MeetingEvent) MarkUnmatched() error {
	if m.State != MeetingStateReceived {
		return ErrInvalidTransition
	}
	m.State = MeetingStateUnmatched
	m.UpdatedAt = time.Now()
	return nil
}

// MarkFailed records an unrecoverable failure
func (m *MeetingEvent) MarkFailed() error {
	if m.Terminal() {
		return ErrMeetingTerminal
	}
	m.State = MeetingStateFailed
	m.UpdatedAt = time.Now()
	return nil
}
