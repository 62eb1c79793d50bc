package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/ports"
)

// GmailAdapter implements MailService and Notifier on the Gmail API. Label
// names are resolved to IDs once and cached; missing labels are created on
// first use.
type GmailAdapter struct {
	svc           *gmail.Service
	notifyAddress string
	labelIDs      map[string]string
}

// NewGmailAdapter creates a Gmail adapter acting as the configured user
func NewGmailAdapter(ctx context.Context, cfg Config, notifyAddress string) (*GmailAdapter, error) {
	opts, err := ClientOptions(ctx, cfg,
		gmail.GmailModifyScope,
		gmail.GmailComposeScope,
	)
	if err != nil {
		return nil, err
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailAdapter{
		svc:           svc,
		notifyAddress: notifyAddress,
		labelIDs:      make(map[string]string),
	}, nil
}

// CreateDraft creates a labelled draft and returns its ID. The correlation
// marker is appended to the body so the sent-detection scan can recover the
// client and event date without parsing prose.
func (a *GmailAdapter) CreateDraft(ctx context.Context, req ports.DraftRequest) (string, error) {
	body := req.Body
	if req.CorrelationMarker != "" && !strings.Contains(body, req.CorrelationMarker) {
		body = body + "\n\n" + req.CorrelationMarker
	}

	raw := buildRawMessage(req.To, req.Subject, body)
	draft, err := a.svc.Users.Drafts.Create("me", &gmail.Draft{
		Message: &gmail.Message{Raw: raw},
	}).Context(ctx).Do()
	if err != nil {
		return "", classify(fmt.Errorf("failed to create draft: %w", err))
	}

	if req.Label != "" && draft.Message != nil {
		if err := a.ApplyLabel(ctx, draft.Message.Id, req.Label); err != nil {
			return "", err
		}
	}
	return draft.Id, nil
}

// ListSentByLabel returns system-labelled sent messages newer than since
func (a *GmailAdapter) ListSentByLabel(ctx context.Context, label string, since time.Time) ([]ports.SentMessage, error) {
	query := fmt.Sprintf("in:sent label:%s after:%d", label, since.Unix())

	list, err := a.svc.Users.Messages.List("me").Q(query).MaxResults(200).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list sent messages: %w", err))
	}

	var out []ports.SentMessage
	for _, ref := range list.Messages {
		msg, err := a.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, classify(fmt.Errorf("failed to fetch message %s: %w", ref.Id, err))
		}

		body := extractPlainBody(msg.Payload)
		out = append(out, ports.SentMessage{
			ID:       msg.Id,
			ThreadID: msg.ThreadId,
			Subject:  headerValue(msg.Payload, "Subject"),
			Body:     body,
			SentAt:   time.UnixMilli(msg.InternalDate),
			// The first message in a Gmail thread shares the thread's ID
			FirstInThread: msg.Id == msg.ThreadId,
			Marker:        extractMarker(body),
		})
	}
	return out, nil
}

// ApplyLabel tags a message so it is not scanned again
func (a *GmailAdapter) ApplyLabel(ctx context.Context, messageID, label string) error {
	labelID, err := a.labelID(ctx, label)
	if err != nil {
		return err
	}

	_, err = a.svc.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return classify(fmt.Errorf("failed to apply label %s: %w", label, err))
	}
	return nil
}

// SearchCorrespondence returns threads involving the given addresses newer
// than since, most recent first
func (a *GmailAdapter) SearchCorrespondence(ctx context.Context, addresses []string, since time.Time, max int) ([]domain.EmailSummary, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	var parts []string
	for _, addr := range addresses {
		parts = append(parts, fmt.Sprintf("from:%s", addr), fmt.Sprintf("to:%s", addr))
	}
	query := fmt.Sprintf("{%s} after:%d", strings.Join(parts, " "), since.Unix())

	list, err := a.svc.Users.Messages.List("me").Q(query).MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("failed to search correspondence: %w", err))
	}

	var out []domain.EmailSummary
	for _, ref := range list.Messages {
		msg, err := a.svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").MetadataHeaders("Subject", "From").
			Context(ctx).Do()
		if err != nil {
			return nil, classify(fmt.Errorf("failed to fetch message %s: %w", ref.Id, err))
		}
		out = append(out, domain.EmailSummary{
			Subject: headerValue(msg.Payload, "Subject"),
			From:    headerValue(msg.Payload, "From"),
			Date:    time.UnixMilli(msg.InternalDate),
			Snippet: msg.Snippet,
		})
	}
	return out, nil
}

// SendMessage sends a message immediately
func (a *GmailAdapter) SendMessage(ctx context.Context, to []string, subject, body string) error {
	raw := buildRawMessage(to, subject, body)
	_, err := a.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return classify(fmt.Errorf("failed to send message: %w", err))
	}
	return nil
}

// Notify delivers an operator notification to the configured address
func (a *GmailAdapter) Notify(ctx context.Context, subject, body string) error {
	if a.notifyAddress == "" {
		return fmt.Errorf("notify address is not configured")
	}
	return a.SendMessage(ctx, []string{a.notifyAddress}, subject, body)
}

func (a *GmailAdapter) labelID(ctx context.Context, name string) (string, error) {
	if id, ok := a.labelIDs[name]; ok {
		return id, nil
	}

	list, err := a.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return "", classify(fmt.Errorf("failed to list labels: %w", err))
	}
	for _, l := range list.Labels {
		a.labelIDs[l.Name] = l.Id
	}
	if id, ok := a.labelIDs[name]; ok {
		return id, nil
	}

	created, err := a.svc.Users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", classify(fmt.Errorf("failed to create label %s: %w", name, err))
	}
	a.labelIDs[name] = created.Id
	return created.Id, nil
}

func buildRawMessage(to []string, subject, body string) string {
	var b strings.Builder
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

func headerValue(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func extractPlainBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" && strings.HasPrefix(payload.MimeType, "text/plain") {
		return decodeBody(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		if body := extractPlainBody(part); body != "" {
			return body
		}
	}
	// single-part messages carry the body at the top level regardless of type
	if payload.Body != nil && payload.Body.Data != "" && len(payload.Parts) == 0 {
		return decodeBody(payload.Body.Data)
	}
	return ""
}

// Gmail returns unpadded base64url body data
func decodeBody(data string) string {
	if decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(decoded)
	}
	return ""
}

func extractMarker(body string) string {
	start := strings.Index(body, "[clientpulse:")
	if start < 0 {
		return ""
	}
	end := strings.Index(body[start:], "]")
	if end < 0 {
		return ""
	}
	return body[start : start+end+1]
}
