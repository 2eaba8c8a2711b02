package loader

import (
	"context"
	"errors"
	"strings"

	"github.com/readingbooks/backend/pkg/common"
)

var (
	// ErrUnsupportedFormat is returned when a document declares a media type
	// no registered extractor supports. It is raised before any parsing.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorruptDocument is returned when a document of a supported type
	// cannot be parsed at all: the container is unreadable or every page
	// failed to yield text.
	ErrCorruptDocument = errors.New("corrupt document")
)

// Document is an uploaded file to be processed. It is request-scoped: the
// bytes are read once, turned into text spans and then discarded. Nothing is
// persisted.
type Document struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Extractor converts a document into plain text spans with page and offset
// metadata. Implementations exist per media type; see the pdf and text
// subpackages.
type Extractor interface {
	Extract(ctx context.Context, doc Document) ([]common.TextSpan, error)
}

// Registry maps declared media types to extractors. Lookups happen before
// any parsing, so an unsupported type fails fast.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]Extractor),
	}
}

// Register associates a media type with an extractor. Parameters such as
// "; charset=utf-8" are ignored when matching.
func (r *Registry) Register(mediaType string, e Extractor) {
	r.extractors[normalizeMediaType(mediaType)] = e
}

// Extract dispatches the document to the extractor registered for its
// declared media type. It fails with ErrUnsupportedFormat when no extractor
// matches.
func (r *Registry) Extract(ctx context.Context, doc Document) ([]common.TextSpan, error) {
	e, ok := r.extractors[normalizeMediaType(doc.MediaType)]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return e.Extract(ctx, doc)
}

// FullText concatenates span texts in order. Span offsets index into the
// returned string.
func FullText(spans []common.TextSpan) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

func normalizeMediaType(mediaType string) string {
	if idx := strings.Index(mediaType, ";"); idx != -1 {
		mediaType = mediaType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
