package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/pkg/apperror"
)

func newRegistryFixture() (*RegistryUseCase, *MockClientRepository, *MockUnmatchedRepository, *FakeAuditRepository) {
	clients := new(MockClientRepository)
	unmatched := new(MockUnmatchedRepository)
	audit := &FakeAuditRepository{}
	uc := NewRegistryUseCase(clients, unmatched, audit, logger.Noop())
	return uc, clients, unmatched, audit
}

func TestCreateClientRecordsAudit(t *testing.T) {
	uc, clients, _, audit := newRegistryFixture()
	clients.On("Create", mock.Anything, mock.Anything).Return(nil)

	client, err := uc.CreateClient(context.Background(), CreateClientRequest{
		Name:          "Acme",
		ContactEmails: []string{"alice@acme.com"},
		Domains:       []string{"acme.com"},
		DocumentID:    "doc-1",
		TaskProjectID: "proj-1",
	})

	assert.NoError(t, err)
	assert.True(t, client.Active)
	assert.True(t, client.SetupComplete)
	assert.Equal(t, 1, audit.CountByStatus(domain.AuditStatusSuccess))
	clients.AssertExpectations(t)
}

func TestCreateClientRequiresHandles(t *testing.T) {
	uc, clients, _, _ := newRegistryFixture()

	_, err := uc.CreateClient(context.Background(), CreateClientRequest{Name: "Acme"})

	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeValidationFailure))
	clients.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateClientDeactivatesInsteadOfDeleting(t *testing.T) {
	uc, clients, _, _ := newRegistryFixture()
	existing := domain.NewClientRecord("Acme", []string{"alice@acme.com"}, nil, false)
	clients.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	clients.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := uc.UpdateClient(context.Background(), existing.ID, UpdateClientRequest{Deactivate: true})

	assert.NoError(t, err)
	assert.False(t, updated.Active)
	clients.AssertExpectations(t)
}

func TestUpdateClientNotFound(t *testing.T) {
	uc, clients, _, _ := newRegistryFixture()
	clients.On("FindByID", mock.Anything, "missing").Return(nil, domain.ErrClientNotFound)

	_, err := uc.UpdateClient(context.Background(), "missing", UpdateClientRequest{})

	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestResolveUnmatchedFlipsFlagOnly(t *testing.T) {
	uc, _, unmatched, _ := newRegistryFixture()
	unmatched.On("MarkResolved", mock.Anything, "item-1").Return(nil)

	err := uc.ResolveUnmatched(context.Background(), "item-1")

	assert.NoError(t, err)
	unmatched.AssertExpectations(t)
}

func TestResolveUnmatchedNotFound(t *testing.T) {
	uc, _, unmatched, _ := newRegistryFixture()
	unmatched.On("MarkResolved", mock.Anything, "missing").Return(domain.ErrUnmatchedNotFound)

	err := uc.ResolveUnmatched(context.Background(), "missing")

	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestListAuditBoundsLimit(t *testing.T) {
	uc, _, _, audit := newRegistryFixture()
	audit.Append(context.Background(), domain.NewAuditRecord(
		domain.AuditActionRegistryEdit, nil, "edit", domain.AuditStatusSuccess))

	records, err := uc.ListAudit(context.Background(), -5, -1)

	assert.NoError(t, err)
	assert.Len(t, records, 1)
}
