package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClientRecord represents one client entity in the registry.
// Records are never deleted, only deactivated.
type ClientRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactEmails []string  `json:"contact_emails"`
	Domains       []string  `json:"domains"`
	InternalOnly  bool      `json:"internal_only"`
	DocumentID    string    `json:"document_id"`
	TaskProjectID string    `json:"task_project_id"`
	SetupComplete bool      `json:"setup_complete"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewClientRecord creates a new active client record
func NewClientRecord(name string, contactEmails, domains []string, internalOnly bool) *ClientRecord {
	now := time.Now()
	return &ClientRecord{
		ID:            uuid.NewString(),
		Name:          name,
		ContactEmails: normalizeAddresses(contactEmails),
		Domains:       normalizeAddresses(domains),
		InternalOnly:  internalOnly,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasContact reports whether addr is in the record's exact contact set.
// Comparison is case-insensitive.
func (c *ClientRecord) HasContact(addr string) bool {
	addr = strings.ToLower(strings.TrimSpace(addr))
	for _, e := range c.ContactEmails {
		if strings.ToLower(e) == addr {
			return true
		}
	}
	return false
}

// HasDomain reports whether addr's domain part is in the record's domain set
func (c *ClientRecord) HasDomain(addr string) bool {
	d := addressDomain(addr)
	if d == "" {
		return false
	}
	for _, cd := range c.Domains {
		if strings.ToLower(cd) == d {
			return true
		}
	}
	return false
}

// Deactivate marks the record inactive. Deactivated records are skipped
// by the matcher but remain in the registry.
func (c *ClientRecord) Deactivate() {
	c.Active = false
	c.UpdatedAt = time.Now()
}

// CompleteSetup marks onboarding as finished once the document and
// task-project handles have been assigned
func (c *ClientRecord) CompleteSetup(documentID, taskProjectID string) {
	c.DocumentID = documentID
	c.TaskProjectID = taskProjectID
	c.SetupComplete = true
	c.UpdatedAt = time.Now()
}

func addressDomain(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return addr[at+1:]
}

func normalizeAddresses(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}
