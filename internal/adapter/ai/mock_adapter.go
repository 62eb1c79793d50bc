package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clientpulse/clientpulse/internal/ports"
)

// MockAdapter is an offline CompletionService for development and demos. It
// echoes back a deterministic agenda-shaped blob derived from the prompt.
type MockAdapter struct {
	latency time.Duration
}

// NewMockAdapter creates a mock completion adapter
func NewMockAdapter(latency time.Duration) ports.CompletionService {
	return &MockAdapter{latency: latency}
}

func (m *MockAdapter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	var b strings.Builder
	b.WriteString("Proposed agenda (generated offline):\n")
	b.WriteString("1. Review open items from the last meeting\n")
	b.WriteString("2. Discuss recent correspondence\n")
	b.WriteString("3. Agree next steps and owners\n")
	b.WriteString(fmt.Sprintf("\n(based on %d characters of context)\n", len(prompt)))
	return b.String(), nil
}
