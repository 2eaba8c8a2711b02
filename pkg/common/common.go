package common

// TextSpan is a contiguous run of extracted text. Spans are produced in page
// order by a loader; Start and End are character (rune) offsets into the full
// concatenated document text. A page that failed to parse is represented by a
// span with empty Text.
//
// Spans exist for traceability only and are never returned to callers.
type TextSpan struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Page  int    `json:"page,omitempty"`
}

// Chunk is a bounded-size, possibly overlapping segment of the full document
// text, the unit of model inference. Chunks are immutable once created and
// indexed in document order. Start and End are rune offsets into the full
// text.
type Chunk struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// RelationshipCandidate is one directed, typed relationship as surfaced by
// the model for a single chunk. Names are raw surface forms, not yet
// normalized. Type is a short free-text label such as "parent of" or
// "married to", not a closed enum.
type RelationshipCandidate struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// RawExtraction is the per-chunk model result before aggregation. Entities
// are surface forms in the order the model listed them, exact duplicates
// removed. An empty RawExtraction is the degraded result of a chunk whose
// extraction failed.
type RawExtraction struct {
	ChunkIndex    int
	Entities      []string
	Relationships []RelationshipCandidate
}

// CanonicalEntity is the deduplicated, identity-stable representation of a
// person mentioned under one or more surface forms. CanonicalName is the
// first surface form seen for the identity key; Aliases collects the other
// forms in first-seen order.
type CanonicalEntity struct {
	CanonicalName string   `json:"canonical_name"`
	Aliases       []string `json:"aliases,omitempty"`
}

// CanonicalRelationship is an aggregated edge between two canonical entities.
// Occurrences counts independent chunk-level sightings of the same unordered
// pair with the same (case-insensitive) type and serves as an implicit
// confidence signal. Different types for the same pair stay distinct.
type CanonicalRelationship struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Occurrences int    `json:"occurrences"`
}

// ExtractionResult is the terminal, immutable artifact returned to the
// caller. Entities preserve first-seen order; every relationship endpoint
// appears in Entities. FailedChunks is observability metadata: the number of
// chunks whose extraction degraded to an empty contribution. It never blocks
// completion and is never surfaced as an error.
type ExtractionResult struct {
	Entities      []string                `json:"entities"`
	Relationships []CanonicalRelationship `json:"relationships"`
	TextLength    int                     `json:"text_length"`
	FailedChunks  int                     `json:"failed_chunks"`

	// Preview is the head of the extracted document text, for display.
	Preview string `json:"preview"`

	// EntityDetails carries the alias sets behind Entities, in the same
	// order. Kept out of the minimal wire contract consumers rely on.
	EntityDetails []CanonicalEntity `json:"-"`
}
