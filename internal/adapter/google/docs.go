package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
)

// DocsAdapter implements DocumentService on the Google Docs API
type DocsAdapter struct {
	svc *docs.Service
}

// NewDocsAdapter creates a Docs adapter acting as the configured user
func NewDocsAdapter(ctx context.Context, cfg Config) (*DocsAdapter, error) {
	opts, err := ClientOptions(ctx, cfg, docs.DocumentsScope)
	if err != nil {
		return nil, err
	}

	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}
	return &DocsAdapter{svc: svc}, nil
}

// AppendParagraph appends text to the end of the document
func (a *DocsAdapter) AppendParagraph(ctx context.Context, documentID, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	req := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{
			{
				InsertText: &docs.InsertTextRequest{
					EndOfSegmentLocation: &docs.EndOfSegmentLocation{},
					Text:                 text,
				},
			},
		},
	}

	_, err := a.svc.Documents.BatchUpdate(documentID, req).Context(ctx).Do()
	if err != nil {
		return classify(fmt.Errorf("failed to append to document %s: %w", documentID, err))
	}
	return nil
}

// ReadAllText returns the document's full text content
func (a *DocsAdapter) ReadAllText(ctx context.Context, documentID string) (string, error) {
	doc, err := a.svc.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return "", classify(fmt.Errorf("failed to read document %s: %w", documentID, err))
	}

	var b strings.Builder
	if doc.Body != nil {
		for _, elem := range doc.Body.Content {
			if elem.Paragraph == nil {
				continue
			}
			for _, pe := range elem.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		}
	}
	return b.String(), nil
}
