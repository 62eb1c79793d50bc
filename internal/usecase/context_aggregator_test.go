package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/pkg/retry"
)

type aggregatorFixture struct {
	mail  *MockMailService
	docs  *MockDocumentService
	tasks *MockTaskService
	audit *FakeAuditRepository
	agg   *ContextAggregator
}

func newAggregatorFixture() *aggregatorFixture {
	f := &aggregatorFixture{
		mail:  new(MockMailService),
		docs:  new(MockDocumentService),
		tasks: new(MockTaskService),
		audit: &FakeAuditRepository{},
	}
	f.agg = NewContextAggregator(f.mail, f.docs, f.tasks, f.audit, logger.Noop(), config.AgendaConfig{
		CorrespondenceWindow: 7 * 24 * time.Hour,
		ThreadCap:            20,
		BodyTruncateChars:    500,
		Lookahead:            24 * time.Hour,
	})
	f.agg.retryCfg = retry.Config{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	return f
}

func TestGather_ThreadCapPrefersMostRecent(t *testing.T) {
	f := newAggregatorFixture()
	client := acmeClient()

	base := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	var threads []domain.EmailSummary
	for i := 0; i < 25; i++ {
		threads = append(threads, domain.EmailSummary{
			Subject: fmt.Sprintf("thread-%d", i),
			From:    "a@acme.com",
			Date:    base.Add(time.Duration(i) * time.Hour),
			Snippet: "body",
		})
	}

	f.tasks.On("ListOpenTasks", mock.Anything, "proj-1", mock.Anything).Return([]domain.TaskItem{}, nil)
	f.mail.On("SearchCorrespondence", mock.Anything, mock.Anything, mock.Anything, 20).Return(threads, nil)
	f.docs.On("ReadAllText", mock.Anything, "doc-1").Return("", nil)

	bundle := f.agg.Gather(context.Background(), client, base.Add(48*time.Hour))

	assert.Len(t, bundle.RecentThreads, 20)
	// most recent first
	assert.Equal(t, "thread-24", bundle.RecentThreads[0].Subject)
	assert.Equal(t, "thread-5", bundle.RecentThreads[19].Subject)
}

func TestGather_BodiesTruncated(t *testing.T) {
	f := newAggregatorFixture()
	client := acmeClient()

	long := strings.Repeat("x", 1200)
	f.tasks.On("ListOpenTasks", mock.Anything, "proj-1", mock.Anything).Return([]domain.TaskItem{}, nil)
	f.mail.On("SearchCorrespondence", mock.Anything, mock.Anything, mock.Anything, 20).Return([]domain.EmailSummary{
		{Subject: "s", From: "a@acme.com", Date: time.Now(), Snippet: long},
	}, nil)
	f.docs.On("ReadAllText", mock.Anything, "doc-1").Return("", nil)

	bundle := f.agg.Gather(context.Background(), client, time.Now())

	assert.Len(t, bundle.RecentThreads[0].Snippet, 500)
}

func TestTruncateCountsCharactersNotBytes(t *testing.T) {
	long := strings.Repeat("é", 600)

	got := truncate(long, 500)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 500, utf8.RuneCountInString(got))
	assert.Equal(t, "héllo", truncate("héllo", 10))
}

func TestGather_FailingSourceDegradesOnly(t *testing.T) {
	f := newAggregatorFixture()
	client := acmeClient()

	f.tasks.On("ListOpenTasks", mock.Anything, "proj-1", mock.Anything).Return(nil, errors.New("task service down"))
	f.mail.On("SearchCorrespondence", mock.Anything, mock.Anything, mock.Anything, 20).Return([]domain.EmailSummary{
		{Subject: "s", From: "a@acme.com", Date: time.Now(), Snippet: "hello"},
	}, nil)
	f.docs.On("ReadAllText", mock.Anything, "doc-1").Return("", nil)

	bundle := f.agg.Gather(context.Background(), client, time.Now())

	assert.Empty(t, bundle.OutstandingTasks)
	assert.Len(t, bundle.RecentThreads, 1)
	assert.Equal(t, 1, f.audit.CountByStatus(domain.AuditStatusWarning))
}

func TestGather_PriorNotesAndCarryOver(t *testing.T) {
	f := newAggregatorFixture()
	client := acmeClient()

	doc := domain.FormatNotesBlock(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		"Rollout review.\n\nAction items:\n- Send updated proposal\n- Confirm launch date")

	f.tasks.On("ListOpenTasks", mock.Anything, "proj-1", mock.Anything).Return([]domain.TaskItem{
		{ID: "1", Content: "Send updated proposal to legal"},
	}, nil)
	f.mail.On("SearchCorrespondence", mock.Anything, mock.Anything, mock.Anything, 20).Return([]domain.EmailSummary{}, nil)
	f.docs.On("ReadAllText", mock.Anything, "doc-1").Return(doc, nil)

	bundle := f.agg.Gather(context.Background(), client, time.Now())

	assert.Contains(t, bundle.PriorNotes, "Rollout review.")
	assert.Equal(t, []string{"Confirm launch date"}, bundle.CarriedOverItems)
}

func TestGather_ClientWithoutHandles(t *testing.T) {
	f := newAggregatorFixture()
	client := domain.NewClientRecord("Bare", nil, []string{"bare.io"}, false)

	f.mail.On("SearchCorrespondence", mock.Anything, mock.Anything, mock.Anything, 20).Return([]domain.EmailSummary{}, nil)

	bundle := f.agg.Gather(context.Background(), client, time.Now())

	assert.Empty(t, bundle.OutstandingTasks)
	assert.Empty(t, bundle.PriorNotes)
	f.tasks.AssertNotCalled(t, "ListOpenTasks", mock.Anything, mock.Anything, mock.Anything)
	f.docs.AssertNotCalled(t, "ReadAllText", mock.Anything, mock.Anything)
}
