package graph

import (
	"time"

	"github.com/readingbooks/backend/pkg/ai"
	"github.com/readingbooks/backend/pkg/loader"
)

// Default processing parameters. Chunk sizes are in runes of document text.
const (
	DefaultMaxChunkChars = 4000
	DefaultOverlapChars  = 200
	DefaultMaxParallel   = 4
	DefaultMaxTries      = 3
	DefaultChunkTimeout  = 2 * time.Minute
)

// Client runs the document-to-graph extraction pipeline. It owns the
// segmentation parameters and delegates text extraction to a loader registry
// and model inference to an ai.Client.
//
// A Client should be created using NewClient. Process resets the backend's
// accumulated metrics per run, so concurrent runs should not share a Client.
type Client struct {
	aiClient ai.Client
	registry *loader.Registry

	maxChunkChars int
	overlapChars  int
	maxParallel   int
	maxTries      int
	chunkTimeout  time.Duration
}

// NewClientParams defines the configuration parameters for creating a new
// Client. Zero values fall back to the package defaults.
//
// MaxChunkChars bounds the size of a single inference chunk.
// OverlapChars is the number of trailing runes repeated at the start of the
// next chunk so that sentences crossing a cut are seen whole at least once.
// MaxParallel bounds concurrent model requests per document.
// MaxTries is the total attempt budget per chunk (first try plus retries).
// ChunkTimeout bounds a single chunk's inference including retries.
type NewClientParams struct {
	AiClient ai.Client
	Registry *loader.Registry

	MaxChunkChars int
	OverlapChars  int
	MaxParallel   int
	MaxTries      int
	ChunkTimeout  time.Duration
}

// NewClient creates a new pipeline client with the specified configuration.
// It fails with ErrInvalidSegmentConfig when the segmentation parameters
// cannot produce forward progress.
func NewClient(params NewClientParams) (*Client, error) {
	c := &Client{
		aiClient: params.AiClient,
		registry: params.Registry,

		maxChunkChars: params.MaxChunkChars,
		overlapChars:  params.OverlapChars,
		maxParallel:   params.MaxParallel,
		maxTries:      params.MaxTries,
		chunkTimeout:  params.ChunkTimeout,
	}

	if c.maxChunkChars == 0 {
		c.maxChunkChars = DefaultMaxChunkChars
	}
	if c.overlapChars == 0 {
		c.overlapChars = DefaultOverlapChars
	}
	if c.maxParallel <= 0 {
		c.maxParallel = DefaultMaxParallel
	}
	if c.maxTries <= 0 {
		c.maxTries = DefaultMaxTries
	}
	if c.chunkTimeout == 0 {
		c.chunkTimeout = DefaultChunkTimeout
	}

	if err := validateSegmentConfig(c.maxChunkChars, c.overlapChars); err != nil {
		return nil, err
	}

	return c, nil
}
