package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/ports"
)

// PostgresMeetingRepository implements MeetingRepository using PostgreSQL
type PostgresMeetingRepository struct {
	db *sql.DB
}

// NewPostgresMeetingRepository creates a new PostgreSQL meeting repository
func NewPostgresMeetingRepository(db *sql.DB) ports.MeetingRepository {
	return &PostgresMeetingRepository{db: db}
}

const meetingColumns = `id, external_id, title, starts_at, ends_at, client_id, state, participants, summary, action_items, draft_id, sent_msg_id, created_at, updated_at`

// Create saves a new meeting event
func (r *PostgresMeetingRepository) Create(ctx context.Context, event *domain.MeetingEvent) error {
	query := `
		INSERT INTO meeting_events (` + meetingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	actionItemsJSON, err := marshalActionItems(event.ActionItems)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.ExternalID,
		event.Title,
		event.StartsAt,
		event.EndsAt,
		event.ClientID,
		string(event.State),
		pq.Array(event.Participants),
		event.Summary,
		actionItemsJSON,
		event.DraftID,
		event.SentMsgID,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create meeting event: %w", err)
	}
	return nil
}

// FindByID retrieves a meeting event by its ID
func (r *PostgresMeetingRepository) FindByID(ctx context.Context, id string) (*domain.MeetingEvent, error) {
	query := `SELECT ` + meetingColumns + ` FROM meeting_events WHERE id = $1`

	event, err := scanMeeting(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrMeetingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meeting event: %w", err)
	}
	return event, nil
}

// FindByExternalID retrieves a meeting event by its external identifier
func (r *PostgresMeetingRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.MeetingEvent, error) {
	query := `SELECT ` + meetingColumns + ` FROM meeting_events WHERE external_id = $1`

	event, err := scanMeeting(r.db.QueryRowContext(ctx, query, externalID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrMeetingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meeting event: %w", err)
	}
	return event, nil
}

// Update persists the event's current state
func (r *PostgresMeetingRepository) Update(ctx context.Context, event *domain.MeetingEvent) error {
	query := `
		UPDATE meeting_events
		SET client_id = $2, state = $3, draft_id = $4, sent_msg_id = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.ClientID,
		string(event.State),
		event.DraftID,
		event.SentMsgID,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update meeting event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

// ListByState retrieves events in the given state, oldest first
func (r *PostgresMeetingRepository) ListByState(ctx context.Context, state domain.MeetingState) ([]*domain.MeetingEvent, error) {
	query := `SELECT ` + meetingColumns + ` FROM meeting_events WHERE state = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, string(state))
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting events: %w", err)
	}
	defer rows.Close()

	return collectMeetings(rows)
}

// ListByClientWindow retrieves one client's events overlapping [from, to)
func (r *PostgresMeetingRepository) ListByClientWindow(ctx context.Context, clientID string, from, to time.Time) ([]*domain.MeetingEvent, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meeting_events
		WHERE client_id = $1 AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting events: %w", err)
	}
	defer rows.Close()

	return collectMeetings(rows)
}

func collectMeetings(rows *sql.Rows) ([]*domain.MeetingEvent, error) {
	var events []*domain.MeetingEvent
	for rows.Next() {
		event, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meeting events: %w", err)
	}
	return events, nil
}

func scanMeeting(row rowScanner) (*domain.MeetingEvent, error) {
	var event domain.MeetingEvent
	var clientID sql.NullString
	var state string
	var participants pq.StringArray
	var actionItemsJSON []byte

	err := row.Scan(
		&event.ID,
		&event.ExternalID,
		&event.Title,
		&event.StartsAt,
		&event.EndsAt,
		&clientID,
		&state,
		&participants,
		&event.Summary,
		&actionItemsJSON,
		&event.DraftID,
		&event.SentMsgID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if clientID.Valid {
		event.ClientID = &clientID.String
	}
	event.State = domain.MeetingState(state)
	event.Participants = participants
	if len(actionItemsJSON) > 0 {
		if err := json.Unmarshal(actionItemsJSON, &event.ActionItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action items: %w", err)
		}
	}
	return &event, nil
}

func marshalActionItems(items []domain.ActionItem) ([]byte, error) {
	if len(items) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action items: %w", err)
	}
	return b, nil
}
