package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/ports"
)

// PostgresClientRepository implements ClientRepository using PostgreSQL.
// A serial column records insertion order; ListAll returns rows in that
// order because the matcher's first-hit-wins scan depends on it.
type PostgresClientRepository struct {
	db *sql.DB
}

// NewPostgresClientRepository creates a new PostgreSQL client repository
func NewPostgresClientRepository(db *sql.DB) ports.ClientRepository {
	return &PostgresClientRepository{db: db}
}

// Create saves a new client record
func (r *PostgresClientRepository) Create(ctx context.Context, client *domain.ClientRecord) error {
	query := `
		INSERT INTO clients (id, name, contact_emails, domains, internal_only, document_id, task_project_id, setup_complete, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.Name,
		pq.Array(client.ContactEmails),
		pq.Array(client.Domains),
		client.InternalOnly,
		client.DocumentID,
		client.TaskProjectID,
		client.SetupComplete,
		client.Active,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// FindByID retrieves a client record by its ID
func (r *PostgresClientRepository) FindByID(ctx context.Context, id string) (*domain.ClientRecord, error) {
	query := `
		SELECT id, name, contact_emails, domains, internal_only, document_id, task_project_id, setup_complete, active, created_at, updated_at
		FROM clients
		WHERE id = $1
	`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return client, nil
}

// Update updates an existing client record
func (r *PostgresClientRepository) Update(ctx context.Context, client *domain.ClientRecord) error {
	query := `
		UPDATE clients
		SET name = $2, contact_emails = $3, domains = $4, internal_only = $5, document_id = $6, task_project_id = $7, setup_complete = $8, active = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.Name,
		pq.Array(client.ContactEmails),
		pq.Array(client.Domains),
		client.InternalOnly,
		client.DocumentID,
		client.TaskProjectID,
		client.SetupComplete,
		client.Active,
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// ListAll retrieves every client record in insertion order
func (r *PostgresClientRepository) ListAll(ctx context.Context) ([]*domain.ClientRecord, error) {
	query := `
		SELECT id, name, contact_emails, domains, internal_only, document_id, task_project_id, setup_complete, active, created_at, updated_at
		FROM clients
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.ClientRecord
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*domain.ClientRecord, error) {
	var client domain.ClientRecord
	var contacts, domains pq.StringArray

	err := row.Scan(
		&client.ID,
		&client.Name,
		&contacts,
		&domains,
		&client.InternalOnly,
		&client.DocumentID,
		&client.TaskProjectID,
		&client.SetupComplete,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	client.ContactEmails = contacts
	client.Domains = domains
	return &client, nil
}
