package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/ports"
)

// PostgresOperatorRepository implements OperatorRepository using PostgreSQL
type PostgresOperatorRepository struct {
	db *sql.DB
}

// NewPostgresOperatorRepository creates a new PostgreSQL operator repository
func NewPostgresOperatorRepository(db *sql.DB) ports.OperatorRepository {
	return &PostgresOperatorRepository{db: db}
}

// Create saves a new operator
func (r *PostgresOperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	query := `
		INSERT INTO operators (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		operator.ID,
		operator.Username,
		operator.PasswordHash,
		operator.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

// FindByUsername retrieves an operator by username
func (r *PostgresOperatorRepository) FindByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	query := `SELECT id, username, password_hash, created_at FROM operators WHERE username = $1`

	var operator domain.Operator
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&operator.ID,
		&operator.Username,
		&operator.PasswordHash,
		&operator.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrOperatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find operator: %w", err)
	}
	return &operator, nil
}
