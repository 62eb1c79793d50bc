package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/pkg/retry"
)

type agendaFixture struct {
	clientRepo    *MockClientRepository
	dedup         *FakeDedupRepository
	unmatchedRepo *MockUnmatchedRepository
	audit         *FakeAuditRepository
	calendar      *MockCalendarService
	mail          *MockMailService
	docs          *MockDocumentService
	tasks         *MockTaskService
	completion    *MockCompletionService
	notifier      *MockNotifier
	uc            *AgendaUseCase
}

func newAgendaFixture() *agendaFixture {
	f := &agendaFixture{
		clientRepo:    new(MockClientRepository),
		dedup:         NewFakeDedupRepository(),
		unmatchedRepo: new(MockUnmatchedRepository),
		audit:         &FakeAuditRepository{},
		calendar:      new(MockCalendarService),
		mail:          new(MockMailService),
		docs:          new(MockDocumentService),
		tasks:         new(MockTaskService),
		completion:    new(MockCompletionService),
		notifier:      new(MockNotifier),
	}
	agendaCfg := config.AgendaConfig{
		CorrespondenceWindow: 7 * 24 * time.Hour,
		ThreadCap:            20,
		BodyTruncateChars:    500,
		Lookahead:            24 * time.Hour,
	}
	fastRetry := retry.Config{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	agg := NewContextAggregator(f.mail, f.docs, f.tasks, f.audit, logger.Noop(), agendaCfg)
	agg.retryCfg = fastRetry

	f.uc = NewAgendaUseCase(
		f.clientRepo, f.dedup, f.unmatchedRepo, f.audit,
		f.calendar, agg, f.completion, f.notifier, f.docs,
		logger.Noop(), agendaCfg, 1024,
	)
	f.uc.retryCfg = fastRetry
	return f
}

func upcomingEvent() ports.CalendarEvent {
	start := time.Now().Add(4 * time.Hour)
	return ports.CalendarEvent{
		ID:        "cal-1",
		Title:     "Quarterly sync",
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		Attendees: []string{"a@acme.com"},
	}
}

func (f *agendaFixture) stubHappyPath(client *domain.ClientRecord, event ports.CalendarEvent) {
	f.calendar.On("ListUpcoming", mock.Anything, mock.Anything, mock.Anything).Return([]ports.CalendarEvent{event}, nil)
	f.clientRepo.On("ListAll", mock.Anything).Return([]*domain.ClientRecord{client}, nil)
	f.tasks.On("ListOpenTasks", mock.Anything, "proj-1", mock.Anything).Return([]domain.TaskItem{}, nil)
	f.mail.On("SearchCorrespondence", mock.Anything, mock.Anything, mock.Anything, 20).Return([]domain.EmailSummary{}, nil)
	f.docs.On("ReadAllText", mock.Anything, "doc-1").Return("", nil)
	f.completion.On("Complete", mock.Anything, mock.Anything, 1024).Return("1. Rollout status", nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, "1. Rollout status").Return(nil)
	f.docs.On("AppendParagraph", mock.Anything, "doc-1", mock.Anything).Return(nil)
}

func TestGenerateUpcoming_HappyPath(t *testing.T) {
	f := newAgendaFixture()
	client := acmeClient()
	f.stubHappyPath(client, upcomingEvent())

	err := f.uc.GenerateUpcoming(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, f.dedup.Count())
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
	assert.Equal(t, 1, f.audit.CountByStatus(domain.AuditStatusSuccess))
}

func TestGenerateUpcoming_SecondPassIsNoOp(t *testing.T) {
	f := newAgendaFixture()
	client := acmeClient()
	f.stubHappyPath(client, upcomingEvent())

	assert.NoError(t, f.uc.GenerateUpcoming(context.Background()))
	assert.NoError(t, f.uc.GenerateUpcoming(context.Background()))

	// exactly one dedup entry and at most one notification
	assert.Equal(t, 1, f.dedup.Count())
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
	f.completion.AssertNumberOfCalls(t, "Complete", 1)
}

func TestGenerateUpcoming_UnmatchedMeetingSkipped(t *testing.T) {
	f := newAgendaFixture()
	event := upcomingEvent()
	event.Attendees = []string{"who@unknown.org"}

	f.calendar.On("ListUpcoming", mock.Anything, mock.Anything, mock.Anything).Return([]ports.CalendarEvent{event}, nil)
	f.clientRepo.On("ListAll", mock.Anything).Return([]*domain.ClientRecord{acmeClient()}, nil)
	f.unmatchedRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := f.uc.GenerateUpcoming(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, f.dedup.Count())
	f.unmatchedRepo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
	f.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateUpcoming_SynthesisFailureLeavesEventForNextPass(t *testing.T) {
	f := newAgendaFixture()
	client := acmeClient()
	event := upcomingEvent()

	f.calendar.On("ListUpcoming", mock.Anything, mock.Anything, mock.Anything).Return([]ports.CalendarEvent{event}, nil)
	f.clientRepo.On("ListAll", mock.Anything).Return([]*domain.ClientRecord{client}, nil)
	f.tasks.On("ListOpenTasks", mock.Anything, "proj-1", mock.Anything).Return([]domain.TaskItem{}, nil)
	f.mail.On("SearchCorrespondence", mock.Anything, mock.Anything, mock.Anything, 20).Return([]domain.EmailSummary{}, nil)
	f.docs.On("ReadAllText", mock.Anything, "doc-1").Return("", nil)
	f.completion.On("Complete", mock.Anything, mock.Anything, 1024).Return("", errors.New("model overloaded"))

	err := f.uc.GenerateUpcoming(context.Background())

	assert.NoError(t, err)
	// no ledger row, so the next pass retries this meeting
	assert.Equal(t, 0, f.dedup.Count())
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	assert.GreaterOrEqual(t, f.audit.CountByStatus(domain.AuditStatusError), 1)
}

func TestGenerateUpcoming_NotifyFailureDoesNotRegenerate(t *testing.T) {
	f := newAgendaFixture()
	client := acmeClient()
	event := upcomingEvent()

	f.calendar.On("ListUpcoming", mock.Anything, mock.Anything, mock.Anything).Return([]ports.CalendarEvent{event}, nil)
	f.clientRepo.On("ListAll", mock.Anything).Return([]*domain.ClientRecord{client}, nil)
	f.tasks.On("ListOpenTasks", mock.Anything, "proj-1", mock.Anything).Return([]domain.TaskItem{}, nil)
	f.mail.On("SearchCorrespondence", mock.Anything, mock.Anything, mock.Anything, 20).Return([]domain.EmailSummary{}, nil)
	f.docs.On("ReadAllText", mock.Anything, "doc-1").Return("", nil)
	f.completion.On("Complete", mock.Anything, mock.Anything, 1024).Return("agenda", nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, "agenda").Return(errors.New("smtp down"))
	f.docs.On("AppendParagraph", mock.Anything, "doc-1", mock.Anything).Return(nil)

	assert.NoError(t, f.uc.GenerateUpcoming(context.Background()))

	// ledger-write-before-notify: the entry exists even though delivery failed
	assert.Equal(t, 1, f.dedup.Count())

	// a second pass must not produce a second notification attempt
	assert.NoError(t, f.uc.GenerateUpcoming(context.Background()))
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}
