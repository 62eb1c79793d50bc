package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/clientpulse/clientpulse/internal/adapter/http/response"
	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
	"github.com/clientpulse/clientpulse/internal/usecase"
	"github.com/clientpulse/clientpulse/pkg/apperror"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives meeting recording notifications. The signature is
// verified against the raw body before any processing happens; a mismatch
// leaves no meeting event behind, only an audit entry.
type WebhookHandler struct {
	lifecycle *usecase.LifecycleUseCase
	auditRepo ports.AuditRepository
	cfg       config.WebhookConfig
	log       logger.Logger
}

func NewWebhookHandler(
	lifecycle *usecase.LifecycleUseCase,
	auditRepo ports.AuditRepository,
	cfg config.WebhookConfig,
	log logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		lifecycle: lifecycle,
		auditRepo: auditRepo,
		cfg:       cfg,
		log:       log,
	}
}

// Receive handles POST /webhook/meeting
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "failed to read request body")
		return
	}

	if h.cfg.SharedSecret != "" {
		signature := r.Header.Get(h.cfg.SignatureHeader)
		if !verifySignature(body, signature, h.cfg.SharedSecret) {
			h.auditRepo.Append(r.Context(), domain.NewAuditRecord(
				domain.AuditActionWebhookRejected, nil,
				"webhook signature verification failed",
				domain.AuditStatusError))
			h.log.Warn(r.Context(), "webhook signature rejected", map[string]interface{}{
				"remote_addr": r.RemoteAddr,
			})
			response.Unauthorized(w, "invalid webhook signature")
			return
		}
	}

	var payload usecase.MeetingWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.auditRepo.Append(r.Context(), domain.NewAuditRecord(
			domain.AuditActionWebhookRejected, nil,
			"webhook body is not valid JSON",
			domain.AuditStatusError))
		response.BadRequest(w, "invalid request body")
		return
	}

	event, err := h.lifecycle.IngestWebhook(r.Context(), payload)
	if err != nil {
		if apperror.Is(err, apperror.CodeValidationFailure) {
			response.FromError(w, err)
			return
		}
		h.log.Error(r.Context(), "webhook ingestion failed", err, map[string]interface{}{
			"external_id": payload.ID,
		})
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusAccepted, "event accepted", map[string]interface{}{
		"event_id": event.ID,
		"state":    event.State,
	})
}

func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
