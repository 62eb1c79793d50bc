package domain

import (
	"testing"
)

func TestCarriedOverItems_TrackedItemsDropped(t *testing.T) {
	tasks := []TaskItem{
		{ID: "1", Content: "Send updated proposal to Acme legal team"},
		{ID: "2", Content: "Schedule onboarding workshop"},
	}
	notes := []string{
		"send updated proposal",
		"Review renewal pricing with finance",
	}

	carried := CarriedOverItems(notes, tasks)
	if len(carried) != 1 {
		t.Fatalf("Expected 1 carried item, got %d: %v", len(carried), carried)
	}
	if carried[0] != "Review renewal pricing with finance" {
		t.Errorf("Unexpected carried item: %s", carried[0])
	}
}

func TestCarriedOverItems_TokenOverlap(t *testing.T) {
	tasks := []TaskItem{
		{ID: "1", Content: "Draft migration timeline document for Globex"},
	}
	// different phrasing, shared significant tokens
	notes := []string{"globex migration timeline"}

	carried := CarriedOverItems(notes, tasks)
	if len(carried) != 0 {
		t.Errorf("Expected token overlap to count as tracked, got %v", carried)
	}
}

func TestCarriedOverItems_CaseInsensitive(t *testing.T) {
	tasks := []TaskItem{{ID: "1", Content: "FOLLOW UP WITH JANE"}}
	carried := CarriedOverItems([]string{"follow up with jane"}, tasks)
	if len(carried) != 0 {
		t.Errorf("Expected case-insensitive match, got %v", carried)
	}
}

func TestCarriedOverItems_EmptyInputs(t *testing.T) {
	if got := CarriedOverItems(nil, nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
	if got := CarriedOverItems([]string{"", "  "}, nil); len(got) != 0 {
		t.Errorf("Blank items must be skipped, got %v", got)
	}

	carried := CarriedOverItems([]string{"Confirm contract signature date"}, nil)
	if len(carried) != 1 {
		t.Errorf("Items with no tasks at all are carried over, got %v", carried)
	}
}
