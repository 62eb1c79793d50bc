package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
)

// PostgresAuditRepository implements AuditRepository using PostgreSQL.
// Append failures are logged and swallowed; the ledger records outcomes, it
// must never change them.
type PostgresAuditRepository struct {
	db  *sql.DB
	log logger.Logger
}

// NewPostgresAuditRepository creates a new PostgreSQL audit repository
func NewPostgresAuditRepository(db *sql.DB, log logger.Logger) ports.AuditRepository {
	return &PostgresAuditRepository{db: db, log: log}
}

// Append writes one audit record
func (r *PostgresAuditRepository) Append(ctx context.Context, record *domain.AuditRecord) {
	query := `
		INSERT INTO audit_log (id, ts, action, client_id, details, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Timestamp,
		string(record.Action),
		record.ClientID,
		record.Details,
		string(record.Status),
	)
	if err != nil {
		r.log.Error(ctx, "failed to append audit record", err, map[string]interface{}{
			"action": string(record.Action),
		})
	}
}

// List retrieves recent records, newest first
func (r *PostgresAuditRepository) List(ctx context.Context, limit, offset int) ([]*domain.AuditRecord, error) {
	query := `
		SELECT id, ts, action, client_id, details, status
		FROM audit_log
		ORDER BY ts DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []*domain.AuditRecord
	for rows.Next() {
		var record domain.AuditRecord
		var clientID sql.NullString
		var action, status string
		if err := rows.Scan(&record.ID, &record.Timestamp, &action, &clientID, &record.Details, &status); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		if clientID.Valid {
			record.ClientID = &clientID.String
		}
		record.Action = domain.AuditAction(action)
		record.Status = domain.AuditStatus(status)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}
	return records, nil
}

// PostgresDedupRepository implements DedupRepository using PostgreSQL. The
// unique constraint on event_id is the only arbiter of insert races.
type PostgresDedupRepository struct {
	db *sql.DB
}

// NewPostgresDedupRepository creates a new PostgreSQL dedup repository
func NewPostgresDedupRepository(db *sql.DB) ports.DedupRepository {
	return &PostgresDedupRepository{db: db}
}

// Exists reports whether an entry for eventID already exists
func (r *PostgresDedupRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM agenda_dedup WHERE event_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check dedup entry: %w", err)
	}
	return exists, nil
}

// Insert attempts to record the entry. A conflicting row means another
// invocation won the race; that is reported as not-inserted, not an error.
func (r *PostgresDedupRepository) Insert(ctx context.Context, entry *domain.DedupEntry) (bool, error) {
	query := `
		INSERT INTO agenda_dedup (event_id, client_id, generated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, entry.EventID, entry.ClientID, entry.GeneratedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert dedup entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}
	return rows > 0, nil
}
