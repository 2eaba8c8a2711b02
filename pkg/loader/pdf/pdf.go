package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/readingbooks/backend/pkg/common"
	"github.com/readingbooks/backend/pkg/loader"

	"github.com/ledongthuc/pdf"
)

// Extractor extracts plain text from PDF documents held in memory.
// Individual pages that fail to parse degrade to empty spans; the document
// as a whole is only rejected when no page yields text.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the PDF and returns one span per page, in page order.
// Offsets are rune positions into the concatenation of all span texts.
func (e *Extractor) Extract(ctx context.Context, doc loader.Document) ([]common.TextSpan, error) {
	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", loader.ErrCorruptDocument, err)
	}

	totalPages := reader.NumPage()
	if totalPages == 0 {
		return nil, fmt.Errorf("%w: document has no pages", loader.ErrCorruptDocument)
	}

	spans := make([]common.TextSpan, 0, totalPages)
	offset := 0
	parsedPages := 0

	for i := 1; i <= totalPages; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		text, ok := extractPage(reader, i)
		if ok {
			parsedPages++
		}

		length := utf8.RuneCountInString(text)
		spans = append(spans, common.TextSpan{
			Text:  text,
			Start: offset,
			End:   offset + length,
			Page:  i,
		})
		offset += length
	}

	if parsedPages == 0 {
		return nil, fmt.Errorf("%w: no page could be parsed", loader.ErrCorruptDocument)
	}

	return spans, nil
}

// extractPage returns the page text and whether the page parsed at all.
// A parse failure is distinct from a page that parsed but holds no text.
func extractPage(reader *pdf.Reader, pageNum int) (text string, ok bool) {
	defer func() {
		// The pdf library panics on some malformed content streams.
		if recover() != nil {
			text, ok = "", false
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", false
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", true
	}

	return content + "\n", true
}
