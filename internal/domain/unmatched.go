package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnmatchedItemType represents the kind of item the matcher failed on
type UnmatchedItemType string

const (
	UnmatchedItemMeeting UnmatchedItemType = "MEETING"
	UnmatchedItemEmail   UnmatchedItemType = "EMAIL"
)

// UnmatchedItem represents one item the matcher could not resolve. An
// operator may flip ManuallyResolved; the system never re-reads that flag to
// reprocess the item.
type UnmatchedItem struct {
	ID               string            `json:"id"`
	Timestamp        time.Time         `json:"timestamp"`
	ItemType         UnmatchedItemType `json:"item_type"`
	Details          string            `json:"details"`
	Participants     []string          `json:"participants"`
	ManuallyResolved bool              `json:"manually_resolved"`
}

// NewUnmatchedItem creates an unresolved item for operator review
func NewUnmatchedItem(itemType UnmatchedItemType, details string, participants []string) *UnmatchedItem {
	return &UnmatchedItem{
		ID:           uuid.NewString(),
		Timestamp:    time.Now(),
		ItemType:     itemType,
		Details:      details,
		Participants: normalizeAddresses(participants),
	}
}

// Resolve marks the item as handled by an operator
func (u *UnmatchedItem) Resolve() {
	u.ManuallyResolved = true
}
