package graph

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/readingbooks/backend/pkg/common"
	"github.com/readingbooks/backend/pkg/loader"
	"github.com/readingbooks/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// State is the processing stage of a document run. A run moves strictly
// forward: Received, Extracting, Segmenting, Inferring, Aggregating,
// Completed. Failed is terminal and only reachable from Extracting and
// Segmenting; once inference starts, chunk failures degrade the result
// instead of failing the run.
type State string

const (
	StateReceived    State = "received"
	StateExtracting  State = "extracting"
	StateSegmenting  State = "segmenting"
	StateInferring   State = "inferring"
	StateAggregating State = "aggregating"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// ProgressFunc receives state transitions during a run. It is called
// synchronously from the processing goroutine and must not block.
type ProgressFunc func(State)

// Process runs the full extraction pipeline on an uploaded document and
// returns the aggregated result. On cancellation the context error is
// returned and no partial result is produced.
func (c *Client) Process(ctx context.Context, doc loader.Document) (*common.ExtractionResult, error) {
	return c.ProcessWithProgress(ctx, doc, nil)
}

// ProcessWithProgress is Process with state transitions reported through
// progress (may be nil).
func (c *Client) ProcessWithProgress(
	ctx context.Context,
	doc loader.Document,
	progress ProgressFunc,
) (*common.ExtractionResult, error) {
	report := func(s State) {
		if progress != nil {
			progress(s)
		}
	}

	report(StateReceived)
	logger.Info("[Pipeline] processing document", "filename", doc.Filename, "bytes", len(doc.Data))

	report(StateExtracting)
	spans, err := c.registry.Extract(ctx, doc)
	if err != nil {
		report(StateFailed)
		logger.Warn("[Pipeline] text extraction failed", "filename", doc.Filename, "err", err)
		return nil, err
	}
	text := loader.FullText(spans)

	report(StateSegmenting)
	chunks, err := Segment(text, c.maxChunkChars, c.overlapChars)
	if err != nil {
		report(StateFailed)
		return nil, err
	}
	logger.Info("[Pipeline] segmented document", "filename", doc.Filename, "chunks", len(chunks))

	report(StateInferring)
	c.aiClient.ResetMetrics()

	results := make([]common.RawExtraction, len(chunks))
	var (
		failedLock sync.Mutex
		failed     int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxParallel)
	for _, chunk := range chunks {
		g.Go(func() error {
			chunkCtx, cancel := context.WithTimeout(gctx, c.chunkTimeout)
			defer cancel()

			raw, err := c.extractFromChunk(chunkCtx, chunk)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// the chunk's own deadline counts as an unavailable backend,
				// not a cancellation of the run
				logger.Warn("[Pipeline] chunk extraction degraded",
					"filename", doc.Filename, "chunk", chunk.Index, "err", err)
				failedLock.Lock()
				failed++
				failedLock.Unlock()
				results[chunk.Index] = common.RawExtraction{ChunkIndex: chunk.Index}
				return nil
			}

			results[chunk.Index] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report(StateAggregating)
	entities, relationships := aggregate(results)

	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.CanonicalName)
	}

	result := &common.ExtractionResult{
		Entities:      names,
		Relationships: relationships,
		TextLength:    utf8.RuneCountInString(text),
		FailedChunks:  failed,
		Preview:       preview(text, previewRunes),
		EntityDetails: entities,
	}

	metrics := c.aiClient.GetMetrics()
	logger.Info("[Pipeline] completed document",
		"filename", doc.Filename,
		"entities", len(result.Entities),
		"relationships", len(result.Relationships),
		"failed_chunks", failed,
		"total_tokens", metrics.TotalTokens,
		"duration_ms", metrics.DurationMs,
	)

	report(StateCompleted)
	return result, nil
}

// previewRunes bounds the document text echoed back to the caller.
const previewRunes = 500

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// IsClientError reports whether err stems from the uploaded document rather
// than the service, for mapping onto HTTP status codes. Configuration errors
// such as ErrInvalidSegmentConfig are deliberately not client errors.
func IsClientError(err error) bool {
	return errors.Is(err, loader.ErrUnsupportedFormat) ||
		errors.Is(err, loader.ErrCorruptDocument)
}
