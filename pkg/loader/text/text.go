package text

import (
	"context"
	"unicode/utf8"

	"github.com/readingbooks/backend/pkg/common"
	"github.com/readingbooks/backend/pkg/loader"
)

// Extractor treats the document bytes as plain UTF-8 text.
type Extractor struct{}

// NewExtractor creates a plain-text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the whole document as a single span on page 1.
func (e *Extractor) Extract(ctx context.Context, doc loader.Document) ([]common.TextSpan, error) {
	content := string(doc.Data)
	return []common.TextSpan{
		{
			Text:  content,
			Start: 0,
			End:   utf8.RuneCountInString(content),
			Page:  1,
		},
	}, nil
}
