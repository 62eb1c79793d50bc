package domain

import (
	"strings"
	"testing"
	"time"
)

func TestFormatAndExtractNotesBlock(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	block := FormatNotesBlock(date, "Discussed rollout.\n\nAction items:\n- Send proposal\n- Book workshop")

	body, gotDate, ok := LatestNotesBlock("older text\n" + block)
	if !ok {
		t.Fatal("Expected to find notes block")
	}
	if !gotDate.Equal(date) {
		t.Errorf("Expected date %v, got %v", date, gotDate)
	}
	if !strings.Contains(body, "Discussed rollout.") {
		t.Errorf("Body missing content: %q", body)
	}
	if strings.Contains(body, NotesFooter) {
		t.Error("Body must not include footer")
	}
}

func TestLatestNotesBlock_PicksMostRecent(t *testing.T) {
	first := FormatNotesBlock(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "february notes")
	second := FormatNotesBlock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "march notes")

	body, date, ok := LatestNotesBlock(first + "\nsome interstitial text\n" + second)
	if !ok {
		t.Fatal("Expected to find notes block")
	}
	if body != "march notes" {
		t.Errorf("Expected the last block only, got %q", body)
	}
	if date.Month() != time.March {
		t.Errorf("Expected march date, got %v", date)
	}
}

func TestLatestNotesBlock_NoBlock(t *testing.T) {
	if _, _, ok := LatestNotesBlock("a document without any filed notes"); ok {
		t.Error("Expected no block found")
	}
}

func TestLatestNotesBlock_MalformedDate(t *testing.T) {
	if _, _, ok := LatestNotesBlock(NotesHeaderPrefix + "not-a-date" + NotesHeaderSuffix + "\nbody"); ok {
		t.Error("Expected malformed header to be rejected")
	}
}

func TestNotesActionLines_WithHeading(t *testing.T) {
	block := "Summary of discussion.\n\nAction items:\n- Send proposal\n- Book workshop\n\nNext steps\n- not an action"
	items := NotesActionLines(block)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d: %v", len(items), items)
	}
	if items[0] != "Send proposal" || items[1] != "Book workshop" {
		t.Errorf("Unexpected items: %v", items)
	}
}

func TestNotesActionLines_NoHeadingFallsBackToBullets(t *testing.T) {
	items := NotesActionLines("intro\n- first thing\ntext\n- second thing")
	if len(items) != 2 {
		t.Errorf("Expected 2 bullet items, got %v", items)
	}
}

func TestNotesActionLines_Empty(t *testing.T) {
	if items := NotesActionLines("no bullets here"); len(items) != 0 {
		t.Errorf("Expected no items, got %v", items)
	}
}
