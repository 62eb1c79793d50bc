package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/ports"
)

// PostgresUnmatchedRepository implements UnmatchedRepository using PostgreSQL
type PostgresUnmatchedRepository struct {
	db *sql.DB
}

// NewPostgresUnmatchedRepository creates a new PostgreSQL unmatched repository
func NewPostgresUnmatchedRepository(db *sql.DB) ports.UnmatchedRepository {
	return &PostgresUnmatchedRepository{db: db}
}

// Create saves a new unmatched item
func (r *PostgresUnmatchedRepository) Create(ctx context.Context, item *domain.UnmatchedItem) error {
	query := `
		INSERT INTO unmatched_items (id, ts, item_type, details, participants, manually_resolved)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Timestamp,
		string(item.ItemType),
		item.Details,
		pq.Array(item.Participants),
		item.ManuallyResolved,
	)
	if err != nil {
		return fmt.Errorf("failed to create unmatched item: %w", err)
	}
	return nil
}

// FindByID retrieves an unmatched item by its ID
func (r *PostgresUnmatchedRepository) FindByID(ctx context.Context, id string) (*domain.UnmatchedItem, error) {
	query := `
		SELECT id, ts, item_type, details, participants, manually_resolved
		FROM unmatched_items
		WHERE id = $1
	`

	item, err := scanUnmatched(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrUnmatchedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unmatched item: %w", err)
	}
	return item, nil
}

// MarkResolved flips the manually-resolved flag
func (r *PostgresUnmatchedRepository) MarkResolved(ctx context.Context, id string) error {
	query := `UPDATE unmatched_items SET manually_resolved = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to resolve unmatched item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check resolve result: %w", err)
	}
	if rows == 0 {
		return domain.ErrUnmatchedNotFound
	}
	return nil
}

// ListUnresolved retrieves items awaiting operator review, oldest first
func (r *PostgresUnmatchedRepository) ListUnresolved(ctx context.Context) ([]*domain.UnmatchedItem, error) {
	query := `
		SELECT id, ts, item_type, details, participants, manually_resolved
		FROM unmatched_items
		WHERE manually_resolved = FALSE
		ORDER BY ts ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmatched items: %w", err)
	}
	defer rows.Close()

	var items []*domain.UnmatchedItem
	for rows.Next() {
		item, err := scanUnmatched(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unmatched item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unmatched items: %w", err)
	}
	return items, nil
}

func scanUnmatched(row rowScanner) (*domain.UnmatchedItem, error) {
	var item domain.UnmatchedItem
	var itemType string
	var participants pq.StringArray

	err := row.Scan(
		&item.ID,
		&item.Timestamp,
		&itemType,
		&item.Details,
		&participants,
		&item.ManuallyResolved,
	)
	if err != nil {
		return nil, err
	}

	item.ItemType = domain.UnmatchedItemType(itemType)
	item.Participants = participants
	return &item, nil
}
