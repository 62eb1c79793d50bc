package domain

import (
	"strings"
	"time"
)

// DedupEntry represents one generated agenda. Existence of an entry for an
// event ID is the sole gate against regenerating that agenda.
type DedupEntry struct {
	EventID     string    `json:"event_id"`
	ClientID    string    `json:"client_id"`
	GeneratedAt time.Time `json:"generated_at"`
}

// TaskItem represents one outstanding task from the client's task project
type TaskItem struct {
	ID       string     `json:"id"`
	Content  string     `json:"content"`
	Due      *time.Time `json:"due,omitempty"`
	Assignee string     `json:"assignee,omitempty"`
}

// EmailSummary represents one truncated correspondence thread
type EmailSummary struct {
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	Date    time.Time `json:"date"`
	Snippet string    `json:"snippet"`
}

// AgendaContext represents the bounded multi-source bundle handed to the
// synthesis request builder. The aggregator performs no formatting beyond
// truncation; consumers use the fields verbatim.
type AgendaContext struct {
	OutstandingTasks []TaskItem     `json:"outstanding_tasks"`
	RecentThreads    []EmailSummary `json:"recent_threads"`
	PriorNotes       string         `json:"prior_notes"`
	CarriedOverItems []string       `json:"carried_over_items"`
}

// carryOverTokenThreshold is the fraction of an item's significant tokens
// that must appear in some task description for the item to count as already
// tracked. Task phrasing drifts from spoken notes, so this is deliberately a
// loose token-overlap heuristic rather than exact matching.
const carryOverTokenThreshold = 0.5

// CarriedOverItems returns the prior-notes items that do not fuzzy-match any
// current task description. An item is considered tracked when either string
// contains the other (case-insensitive) or enough of its tokens appear in a
// task's description.
func CarriedOverItems(noteItems []string, tasks []TaskItem) []string {
	var carried []string
	for _, item := range noteItems {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		tracked := false
		for _, t := range tasks {
			if fuzzyMatches(item, t.Content) {
				tracked = true
				break
			}
		}
		if !tracked {
			carried = append(carried, item)
		}
	}
	return carried
}

func fuzzyMatches(item, task string) bool {
	li := strings.ToLower(item)
	lt := strings.ToLower(task)
	if li == "" || lt == "" {
		return false
	}
	if strings.Contains(lt, li) || strings.Contains(li, lt) {
		return true
	}

	tokens := significantTokens(li)
	if len(tokens) == 0 {
		return false
	}
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(lt, tok) {
			hits++
		}
	}
	return float64(hits)/float64(len(tokens)) >= carryOverTokenThreshold
}

func significantTokens(s string) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(tok) >= 4 {
			out = append(out, tok)
		}
	}
	return out
}
