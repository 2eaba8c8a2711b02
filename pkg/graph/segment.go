package graph

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/readingbooks/backend/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrInvalidSegmentConfig is returned when segmentation parameters cannot
// guarantee forward progress (non-positive chunk size, negative overlap, or
// overlap >= chunk size).
var ErrInvalidSegmentConfig = errors.New("invalid segment configuration")

// boundaryLookback is how far back from a hard cut the segmenter searches for
// a natural break before giving up and cutting mid-word.
const boundaryLookback = 120

func validateSegmentConfig(maxChars, overlap int) error {
	if maxChars <= 0 {
		return fmt.Errorf("%w: max chunk chars must be positive, got %d", ErrInvalidSegmentConfig, maxChars)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidSegmentConfig, overlap)
	}
	if overlap >= maxChars {
		return fmt.Errorf("%w: overlap %d must be smaller than max chunk chars %d", ErrInvalidSegmentConfig, overlap, maxChars)
	}
	return nil
}

// Segment splits text into bounded, overlapping chunks in document order.
// Offsets are rune offsets into text. Cuts prefer a newline, then a sentence
// end, then any whitespace within the lookback window; only when none exists
// does a chunk end mid-word. Empty text yields a single empty chunk so that
// downstream stages never special-case it.
func Segment(text string, maxChars, overlap int) ([]common.Chunk, error) {
	if err := validateSegmentConfig(maxChars, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)

	if n == 0 {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		return []common.Chunk{{ID: id, Index: 0, Start: 0, End: 0, Text: ""}}, nil
	}

	chunks := []common.Chunk{}
	start := 0
	for {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}

		end := start + maxChars
		if end >= n {
			chunks = append(chunks, common.Chunk{
				ID:    id,
				Index: len(chunks),
				Start: start,
				End:   n,
				Text:  string(runes[start:n]),
			})
			break
		}

		cut := boundaryCut(runes, start, end)
		chunks = append(chunks, common.Chunk{
			ID:    id,
			Index: len(chunks),
			Start: start,
			End:   cut,
			Text:  string(runes[start:cut]),
		})

		// next chunk rewinds by the overlap but always moves forward
		next := cut - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks, nil
}

func boundaryCut(runes []rune, start, end int) int {
	low := end - boundaryLookback
	if low <= start {
		low = start + 1
	}

	for i := end - 1; i >= low; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i >= low; i-- {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	for i := end - 1; i >= low; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	return end
}
