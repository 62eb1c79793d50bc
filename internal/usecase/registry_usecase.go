package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/pkg/apperror"
)

// CreateClientRequest represents a registry onboarding request
type CreateClientRequest struct {
	Name          string   `json:"name"`
	ContactEmails []string `json:"contact_emails"`
	Domains       []string `json:"domains"`
	InternalOnly  bool     `json:"internal_only"`
	DocumentID    string   `json:"document_id"`
	TaskProjectID string   `json:"task_project_id"`
}

// UpdateClientRequest represents a registry edit. Nil fields are unchanged.
type UpdateClientRequest struct {
	Name          *string   `json:"name,omitempty"`
	ContactEmails *[]string `json:"contact_emails,omitempty"`
	Domains       *[]string `json:"domains,omitempty"`
	DocumentID    *string   `json:"document_id,omitempty"`
	TaskProjectID *string   `json:"task_project_id,omitempty"`
	Deactivate    bool      `json:"deactivate,omitempty"`
}

// RegistryUseCase handles operator edits to the client registry, unmatched
// item review, and audit log reads
type RegistryUseCase struct {
	clientRepo    ports.ClientRepository
	unmatchedRepo ports.UnmatchedRepository
	auditRepo     ports.AuditRepository
	log           logger.Logger
}

// NewRegistryUseCase creates a registry use case
func NewRegistryUseCase(
	clientRepo ports.ClientRepository,
	unmatchedRepo ports.UnmatchedRepository,
	auditRepo ports.AuditRepository,
	log logger.Logger,
) *RegistryUseCase {
	return &RegistryUseCase{
		clientRepo:    clientRepo,
		unmatchedRepo: unmatchedRepo,
		auditRepo:     auditRepo,
		log:           log,
	}
}

// CreateClient onboards a new client record
func (uc *RegistryUseCase) CreateClient(ctx context.Context, req CreateClientRequest) (*domain.ClientRecord, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperror.NewValidationFailure("client name is required", nil)
	}
	if len(req.ContactEmails) == 0 && len(req.Domains) == 0 {
		return nil, apperror.NewValidationFailure("at least one contact email or domain is required", nil)
	}

	client := domain.NewClientRecord(req.Name, req.ContactEmails, req.Domains, req.InternalOnly)
	if req.DocumentID != "" || req.TaskProjectID != "" {
		client.CompleteSetup(req.DocumentID, req.TaskProjectID)
	}

	if err := uc.clientRepo.Create(ctx, client); err != nil {
		return nil, apperror.NewPersistenceFailure("failed to create client", err)
	}

	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionRegistryEdit, &client.ID,
		fmt.Sprintf("client %q onboarded", client.Name), domain.AuditStatusSuccess))
	return client, nil
}

// UpdateClient applies a registry edit. Records are never deleted; a
// deactivate request marks the record inactive instead.
func (uc *RegistryUseCase) UpdateClient(ctx context.Context, id string, req UpdateClientRequest) (*domain.ClientRecord, error) {
	client, err := uc.clientRepo.FindByID(ctx, id)
	if err != nil {
		if err == domain.ErrClientNotFound {
			return nil, apperror.NewNotFound("client not found")
		}
		return nil, apperror.NewPersistenceFailure("failed to load client", err)
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.ContactEmails != nil {
		client.ContactEmails = *req.ContactEmails
	}
	if req.Domains != nil {
		client.Domains = *req.Domains
	}
	if req.DocumentID != nil || req.TaskProjectID != nil {
		doc := client.DocumentID
		proj := client.TaskProjectID
		if req.DocumentID != nil {
			doc = *req.DocumentID
		}
		if req.TaskProjectID != nil {
			proj = *req.TaskProjectID
		}
		client.CompleteSetup(doc, proj)
	}
	if req.Deactivate {
		client.Deactivate()
	}

	if err := uc.clientRepo.Update(ctx, client); err != nil {
		return nil, apperror.NewPersistenceFailure("failed to update client", err)
	}

	uc.auditRepo.Append(ctx, domain.NewAuditRecord(
		domain.AuditActionRegistryEdit, &client.ID,
		fmt.Sprintf("client %q edited", client.Name), domain.AuditStatusSuccess))
	return client, nil
}

// ListClients returns the registry in insertion order
func (uc *RegistryUseCase) ListClients(ctx context.Context) ([]*domain.ClientRecord, error) {
	clients, err := uc.clientRepo.ListAll(ctx)
	if err != nil {
		return nil, apperror.NewPersistenceFailure("failed to list clients", err)
	}
	return clients, nil
}

// ListUnresolved returns unmatched items awaiting operator review
func (uc *RegistryUseCase) ListUnresolved(ctx context.Context) ([]*domain.UnmatchedItem, error) {
	items, err := uc.unmatchedRepo.ListUnresolved(ctx)
	if err != nil {
		return nil, apperror.NewPersistenceFailure("failed to list unmatched items", err)
	}
	return items, nil
}

// ResolveUnmatched flips an item's manually-resolved flag. Nothing is
// reprocessed; the flag only removes the item from operator review.
func (uc *RegistryUseCase) ResolveUnmatched(ctx context.Context, id string) error {
	if err := uc.unmatchedRepo.MarkResolved(ctx, id); err != nil {
		if err == domain.ErrUnmatchedNotFound {
			return apperror.NewNotFound("unmatched item not found")
		}
		return apperror.NewPersistenceFailure("failed to resolve unmatched item", err)
	}
	return nil
}

// ListAudit returns recent audit records, newest first
func (uc *RegistryUseCase) ListAudit(ctx context.Context, limit, offset int) ([]*domain.AuditRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	records, err := uc.auditRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperror.NewPersistenceFailure("failed to list audit records", err)
	}
	return records, nil
}
