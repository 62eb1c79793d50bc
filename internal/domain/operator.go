package domain

import (
	"time"

	"github.com/google/uuid"
)

// Operator is a human user of the review API
type Operator struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewOperator creates an operator with an already-hashed password
func NewOperator(username, passwordHash string) *Operator {
	return &Operator{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}
