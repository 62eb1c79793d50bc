package domain

import (
	"strings"
	"time"
)

// Delimiters for the running-notes document. Every filed notes block is
// wrapped in a dated header and a footer so the most recent block can be
// located without reading document structure.
const (
	NotesHeaderPrefix = "=== Meeting Notes "
	NotesHeaderSuffix = " ==="
	NotesFooter       = "=== End Notes ==="
	notesDateLayout   = "2006-01-02"
)

// FormatNotesBlock wraps body in the delimited notes format for the given
// meeting date
func FormatNotesBlock(date time.Time, body string) string {
	var b strings.Builder
	b.WriteString(NotesHeaderPrefix + date.Format(notesDateLayout) + NotesHeaderSuffix + "\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n" + NotesFooter + "\n")
	return b.String()
}

// LatestNotesBlock returns the body and date of the single most recent
// delimited notes block in docText. Older blocks are deliberately excluded;
// consumers never see the full document.
func LatestNotesBlock(docText string) (string, time.Time, bool) {
	idx := strings.LastIndex(docText, NotesHeaderPrefix)
	if idx < 0 {
		return "", time.Time{}, false
	}
	rest := docText[idx+len(NotesHeaderPrefix):]

	headerEnd := strings.Index(rest, NotesHeaderSuffix)
	if headerEnd < 0 {
		return "", time.Time{}, false
	}
	date, err := time.Parse(notesDateLayout, strings.TrimSpace(rest[:headerEnd]))
	if err != nil {
		return "", time.Time{}, false
	}

	body := rest[headerEnd+len(NotesHeaderSuffix):]
	if footer := strings.Index(body, NotesFooter); footer >= 0 {
		body = body[:footer]
	}
	return strings.TrimSpace(body), date, true
}

// NotesActionLines extracts the action item lines from a notes block body.
// Lines beginning with "- " after an "Action items" heading are items; when
// no such heading exists, any "- " line counts.
func NotesActionLines(block string) []string {
	lines := strings.Split(block, "\n")

	headingAt := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "action items") {
			headingAt = i
			break
		}
	}

	var items []string
	start := 0
	if headingAt >= 0 {
		start = headingAt + 1
	}
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if headingAt >= 0 && trimmed != "" && !strings.HasPrefix(trimmed, "- ") {
			// next section begins
			break
		}
		if strings.HasPrefix(trimmed, "- ") {
			items = append(items, strings.TrimSpace(strings.TrimPrefix(trimmed, "- ")))
		}
	}
	return items
}
