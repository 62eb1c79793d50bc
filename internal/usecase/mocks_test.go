package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/ports"
)

// Mock implementations

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *domain.ClientRecord) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) FindByID(ctx context.Context, id string) (*domain.ClientRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientRecord), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *domain.ClientRecord) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) ListAll(ctx context.Context) ([]*domain.ClientRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClientRecord), args.Error(1)
}

type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Create(ctx context.Context, event *domain.MeetingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockMeetingRepository) FindByID(ctx context.Context, id string) (*domain.MeetingEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingEvent), args.Error(1)
}

func (m *MockMeetingRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.MeetingEvent, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingEvent), args.Error(1)
}

func (m *MockMeetingRepository) Update(ctx context.Context, event *domain.MeetingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockMeetingRepository) ListByState(ctx context.Context, state domain.MeetingState) ([]*domain.MeetingEvent, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MeetingEvent), args.Error(1)
}

func (m *MockMeetingRepository) ListByClientWindow(ctx context.Context, clientID string, from, to time.Time) ([]*domain.MeetingEvent, error) {
	args := m.Called(ctx, clientID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MeetingEvent), args.Error(1)
}

// FakeDedupRepository is an in-memory compare-and-insert gate
type FakeDedupRepository struct {
	mu      sync.Mutex
	entries map[string]*domain.DedupEntry
	// ExistsErr forces the Exists check to fail
	ExistsErr error
}

func NewFakeDedupRepository() *FakeDedupRepository {
	return &FakeDedupRepository{entries: map[string]*domain.DedupEntry{}}
}

func (f *FakeDedupRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}
	_, ok := f.entries[eventID]
	return ok, nil
}

func (f *FakeDedupRepository) Insert(ctx context.Context, entry *domain.DedupEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[entry.EventID]; ok {
		return false, nil
	}
	f.entries[entry.EventID] = entry
	return true, nil
}

func (f *FakeDedupRepository) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// FakeAuditRepository records appended audit rows in memory
type FakeAuditRepository struct {
	mu      sync.Mutex
	Records []*domain.AuditRecord
}

func (f *FakeAuditRepository) Append(ctx context.Context, record *domain.AuditRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = append(f.Records, record)
}

func (f *FakeAuditRepository) List(ctx context.Context, limit, offset int) ([]*domain.AuditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Records, nil
}

func (f *FakeAuditRepository) CountByStatus(status domain.AuditStatus) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.Records {
		if r.Status == status {
			n++
		}
	}
	return n
}

type MockUnmatchedRepository struct {
	mock.Mock
}

func (m *MockUnmatchedRepository) Create(ctx context.Context, item *domain.UnmatchedItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockUnmatchedRepository) FindByID(ctx context.Context, id string) (*domain.UnmatchedItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UnmatchedItem), args.Error(1)
}

func (m *MockUnmatchedRepository) MarkResolved(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUnmatchedRepository) ListUnresolved(ctx context.Context) ([]*domain.UnmatchedItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UnmatchedItem), args.Error(1)
}

type MockMailService struct {
	mock.Mock
}

func (m *MockMailService) CreateDraft(ctx context.Context, req ports.DraftRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockMailService) ListSentByLabel(ctx context.Context, label string, since time.Time) ([]ports.SentMessage, error) {
	args := m.Called(ctx, label, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.SentMessage), args.Error(1)
}

func (m *MockMailService) ApplyLabel(ctx context.Context, messageID, label string) error {
	args := m.Called(ctx, messageID, label)
	return args.Error(0)
}

func (m *MockMailService) SearchCorrespondence(ctx context.Context, addresses []string, since time.Time, max int) ([]domain.EmailSummary, error) {
	args := m.Called(ctx, addresses, since, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EmailSummary), args.Error(1)
}

func (m *MockMailService) SendMessage(ctx context.Context, to []string, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) AppendParagraph(ctx context.Context, documentID, text string) error {
	args := m.Called(ctx, documentID, text)
	return args.Error(0)
}

func (m *MockDocumentService) ReadAllText(ctx context.Context, documentID string) (string, error) {
	args := m.Called(ctx, documentID)
	return args.String(0), args.Error(1)
}

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, projectID, content string, due *time.Time, assignee string) (string, error) {
	args := m.Called(ctx, projectID, content, due, assignee)
	return args.String(0), args.Error(1)
}

func (m *MockTaskService) ListOpenTasks(ctx context.Context, projectID string, dueBy time.Time) ([]domain.TaskItem, error) {
	args := m.Called(ctx, projectID, dueBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaskItem), args.Error(1)
}

type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) ListUpcoming(ctx context.Context, from, to time.Time) ([]ports.CalendarEvent, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.CalendarEvent), args.Error(1)
}

type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	args := m.Called(ctx, prompt, maxTokens)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, subject, body string) error {
	args := m.Called(ctx, subject, body)
	return args.Error(0)
}
