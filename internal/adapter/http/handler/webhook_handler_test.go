package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/internal/usecase"
)

type recordingAuditRepo struct {
	mu      sync.Mutex
	records []*domain.AuditRecord
}

func (r *recordingAuditRepo) Append(_ context.Context, record *domain.AuditRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func (r *recordingAuditRepo) List(_ context.Context, _, _ int) ([]*domain.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records, nil
}

func (r *recordingAuditRepo) countByAction(action domain.AuditAction) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Action == action {
			n++
		}
	}
	return n
}

type stubClientRepo struct {
	clients []*domain.ClientRecord
}

func (s *stubClientRepo) Create(context.Context, *domain.ClientRecord) error { return nil }
func (s *stubClientRepo) FindByID(context.Context, string) (*domain.ClientRecord, error) {
	return nil, domain.ErrClientNotFound
}
func (s *stubClientRepo) Update(context.Context, *domain.ClientRecord) error { return nil }
func (s *stubClientRepo) ListAll(context.Context) ([]*domain.ClientRecord, error) {
	return s.clients, nil
}

type stubMeetingRepo struct {
	mu      sync.Mutex
	created []*domain.MeetingEvent
}

func (s *stubMeetingRepo) Create(_ context.Context, event *domain.MeetingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, event)
	return nil
}
func (s *stubMeetingRepo) FindByID(context.Context, string) (*domain.MeetingEvent, error) {
	return nil, domain.ErrMeetingNotFound
}
func (s *stubMeetingRepo) FindByExternalID(context.Context, string) (*domain.MeetingEvent, error) {
	return nil, domain.ErrMeetingNotFound
}
func (s *stubMeetingRepo) Update(context.Context, *domain.MeetingEvent) error { return nil }
func (s *stubMeetingRepo) ListByState(context.Context, domain.MeetingState) ([]*domain.MeetingEvent, error) {
	return nil, nil
}
func (s *stubMeetingRepo) ListByClientWindow(context.Context, string, time.Time, time.Time) ([]*domain.MeetingEvent, error) {
	return nil, nil
}

func (s *stubMeetingRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type stubMailService struct{}

func (stubMailService) CreateDraft(context.Context, ports.DraftRequest) (string, error) {
	return "draft-1", nil
}
func (stubMailService) ListSentByLabel(context.Context, string, time.Time) ([]ports.SentMessage, error) {
	return nil, nil
}
func (stubMailService) ApplyLabel(context.Context, string, string) error { return nil }
func (stubMailService) SearchCorrespondence(context.Context, []string, time.Time, int) ([]domain.EmailSummary, error) {
	return nil, nil
}
func (stubMailService) SendMessage(context.Context, []string, string, string) error { return nil }

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestHandler(t *testing.T, secret string) (*WebhookHandler, *recordingAuditRepo, *stubMeetingRepo) {
	t.Helper()

	audit := &recordingAuditRepo{}
	meetings := &stubMeetingRepo{}
	acme := domain.NewClientRecord("Acme", []string{"alice@acme.com"}, []string{"acme.com"}, false)
	acme.CompleteSetup("doc-1", "proj-1")

	lifecycle := usecase.NewLifecycleUseCase(
		&stubClientRepo{clients: []*domain.ClientRecord{acme}},
		meetings,
		nil,
		audit,
		stubMailService{},
		nil,
		nil,
		logger.Noop(),
		config.MailConfig{FollowupLabel: "followup"},
		24*time.Hour,
	)

	cfg := config.WebhookConfig{
		SharedSecret:    secret,
		SignatureHeader: "X-Webhook-Signature",
	}
	return NewWebhookHandler(lifecycle, audit, cfg, logger.Noop()), audit, meetings
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(usecase.MeetingWebhookPayload{
		ID:        "rec-100",
		Title:     "Quarterly Review",
		StartedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		EndedAt:   time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
		Participants: []usecase.WebhookParticipant{
			{Name: "Alice", Email: "alice@acme.com"},
		},
		Summary: "Reviewed roadmap.",
	})
	assert.NoError(t, err)
	return body
}

func TestWebhookReceive_ValidSignatureAccepted(t *testing.T) {
	h, audit, meetings := newTestHandler(t, "s3cret")
	body := validBody(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/meeting", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign(body, "s3cret"))
	rec := httptest.NewRecorder()

	h.Receive(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, meetings.count())
	assert.Equal(t, 0, audit.countByAction(domain.AuditActionWebhookRejected))
}

func TestWebhookReceive_SignatureMismatchRejected(t *testing.T) {
	h, audit, meetings := newTestHandler(t, "s3cret")
	body := validBody(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/meeting", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign(body, "wrong-secret"))
	rec := httptest.NewRecorder()

	h.Receive(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, meetings.count())
	assert.Equal(t, 1, audit.countByAction(domain.AuditActionWebhookRejected))
}

func TestWebhookReceive_MissingSignatureRejected(t *testing.T) {
	h, audit, meetings := newTestHandler(t, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/webhook/meeting", bytes.NewReader(validBody(t)))
	rec := httptest.NewRecorder()

	h.Receive(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, meetings.count())
	assert.Equal(t, 1, audit.countByAction(domain.AuditActionWebhookRejected))
}

func TestWebhookReceive_InvalidJSONRejected(t *testing.T) {
	h, audit, meetings := newTestHandler(t, "s3cret")
	body := []byte("{not json")

	req := httptest.NewRequest(http.MethodPost, "/webhook/meeting", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign(body, "s3cret"))
	rec := httptest.NewRecorder()

	h.Receive(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, meetings.count())
	assert.Equal(t, 1, audit.countByAction(domain.AuditActionWebhookRejected))
}

func TestWebhookReceive_NoSecretSkipsVerification(t *testing.T) {
	h, _, meetings := newTestHandler(t, "")

	req := httptest.NewRequest(http.MethodPost, "/webhook/meeting", bytes.NewReader(validBody(t)))
	rec := httptest.NewRecorder()

	h.Receive(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, meetings.count())
}
