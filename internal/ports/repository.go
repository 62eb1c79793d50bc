package ports

import (
	"context"
	"time"

	"github.com/clientpulse/clientpulse/internal/domain"
)

// ClientRepository defines the interface for client registry persistence.
// ListAll must preserve insertion order; the matcher's first-hit-wins scan
// depends on it.
type ClientRepository interface {
	// Create saves a new client record
	Create(ctx context.Context, client *domain.ClientRecord) error

	// FindByID retrieves a client record by its ID
	FindByID(ctx context.Context, id string) (*domain.ClientRecord, error)

	// Update updates an existing client record
	Update(ctx context.Context, client *domain.ClientRecord) error

	// ListAll retrieves every client record in insertion order
	ListAll(ctx context.Context) ([]*domain.ClientRecord, error)
}

// MeetingRepository defines the interface for meeting event persistence
type MeetingRepository interface {
	// Create saves a new meeting event
	Create(ctx context.Context, event *domain.MeetingEvent) error

	// FindByID retrieves a meeting event by its ID
	FindByID(ctx context.Context, id string) (*domain.MeetingEvent, error)

	// FindByExternalID retrieves a meeting event by its external identifier
	FindByExternalID(ctx context.Context, externalID string) (*domain.MeetingEvent, error)

	// Update persists the event's current state
	Update(ctx context.Context, event *domain.MeetingEvent) error

	// ListByState retrieves events in the given state, oldest first
	ListByState(ctx context.Context, state domain.MeetingState) ([]*domain.MeetingEvent, error)

	// ListByClientWindow retrieves one client's events overlapping [from, to)
	ListByClientWindow(ctx context.Context, clientID string, from, to time.Time) ([]*domain.MeetingEvent, error)
}

// DedupRepository is the compare-and-insert gate against duplicate agenda
// generation. The host environment offers no cross-invocation locks, so a
// lost insert race must be detected and discarded rather than prevented.
type DedupRepository interface {
	// Exists reports whether an entry for eventID already exists
	Exists(ctx context.Context, eventID string) (bool, error)

	// Insert attempts to record the entry. It returns false with a nil
	// error when another invocation already inserted the same event ID.
	Insert(ctx context.Context, entry *domain.DedupEntry) (bool, error)
}

// AuditRepository is the append-only audit log
type AuditRepository interface {
	// Append writes one audit record. Implementations must never let an
	// append failure propagate to the caller; a failure to log must not
	// mask the action being logged.
	Append(ctx context.Context, record *domain.AuditRecord)

	// List retrieves recent records, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.AuditRecord, error)
}

// OperatorRepository persists review API credentials
type OperatorRepository interface {
	// Create saves a new operator
	Create(ctx context.Context, operator *domain.Operator) error

	// FindByUsername retrieves an operator by username
	FindByUsername(ctx context.Context, username string) (*domain.Operator, error)
}

// UnmatchedRepository persists items the matcher could not resolve
type UnmatchedRepository interface {
	// Create saves a new unmatched item
	Create(ctx context.Context, item *domain.UnmatchedItem) error

	// FindByID retrieves an unmatched item by its ID
	FindByID(ctx context.Context, id string) (*domain.UnmatchedItem, error)

	// MarkResolved flips the manually-resolved flag; nothing is reprocessed
	MarkResolved(ctx context.Context, id string) error

	// ListUnresolved retrieves items awaiting operator review, oldest first
	ListUnresolved(ctx context.Context) ([]*domain.UnmatchedItem, error)
}
