package graph

import (
	"reflect"
	"testing"

	"github.com/readingbooks/backend/pkg/common"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase passthrough", input: "mary", want: "mary"},
		{name: "case folded", input: "John Smith", want: "john smith"},
		{name: "whitespace collapsed", input: "  John \t Smith ", want: "john smith"},
		{name: "punctuation stripped", input: "Smith, John", want: "smith john"},
		{name: "only punctuation", input: "...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeKey(tt.input); got != tt.want {
				t.Errorf("normalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAggregateMergesSurfaceForms(t *testing.T) {
	extractions := []common.RawExtraction{
		{
			ChunkIndex: 0,
			Entities:   []string{"John Smith", "Mary"},
			Relationships: []common.RelationshipCandidate{
				{Source: "John Smith", Target: "Mary", Type: "married to"},
			},
		},
		{
			ChunkIndex: 1,
			Entities:   []string{"john smith", "Mary"},
			Relationships: []common.RelationshipCandidate{
				{Source: "john smith", Target: "Mary", Type: "married to"},
			},
		},
	}

	entities, relationships := aggregate(extractions)

	wantEntities := []common.CanonicalEntity{
		{CanonicalName: "John Smith", Aliases: []string{"john smith"}},
		{CanonicalName: "Mary"},
	}
	if !reflect.DeepEqual(entities, wantEntities) {
		t.Errorf("entities = %+v, want %+v", entities, wantEntities)
	}

	wantRelationships := []common.CanonicalRelationship{
		{Source: "John Smith", Target: "Mary", Type: "married to", Occurrences: 2},
	}
	if !reflect.DeepEqual(relationships, wantRelationships) {
		t.Errorf("relationships = %+v, want %+v", relationships, wantRelationships)
	}
}

func TestAggregateUnorderedPair(t *testing.T) {
	extractions := []common.RawExtraction{
		{
			ChunkIndex: 0,
			Entities:   []string{"Alice", "Bob"},
			Relationships: []common.RelationshipCandidate{
				{Source: "Alice", Target: "Bob", Type: "knows"},
			},
		},
		{
			ChunkIndex: 1,
			Entities:   []string{"Bob", "Alice"},
			Relationships: []common.RelationshipCandidate{
				{Source: "Bob", Target: "Alice", Type: "Knows"},
			},
		},
	}

	_, relationships := aggregate(extractions)

	want := []common.CanonicalRelationship{
		{Source: "Alice", Target: "Bob", Type: "knows", Occurrences: 2},
	}
	if !reflect.DeepEqual(relationships, want) {
		t.Errorf("relationships = %+v, want %+v", relationships, want)
	}
}

func TestAggregateDistinctTypesStaySeparate(t *testing.T) {
	extractions := []common.RawExtraction{
		{
			ChunkIndex: 0,
			Entities:   []string{"Alice", "Bob"},
			Relationships: []common.RelationshipCandidate{
				{Source: "Alice", Target: "Bob", Type: "colleague of"},
				{Source: "Alice", Target: "Bob", Type: "married to"},
			},
		},
	}

	_, relationships := aggregate(extractions)
	if len(relationships) != 2 {
		t.Fatalf("len(relationships) = %d, want 2", len(relationships))
	}
}

func TestAggregateDropsSelfRelationship(t *testing.T) {
	extractions := []common.RawExtraction{
		{
			ChunkIndex: 0,
			Entities:   []string{"Bob", "bob"},
			Relationships: []common.RelationshipCandidate{
				{Source: "Bob", Target: "bob", Type: "knows"},
			},
		},
	}

	entities, relationships := aggregate(extractions)
	if len(relationships) != 0 {
		t.Errorf("relationships = %+v, want none", relationships)
	}
	if len(entities) != 1 {
		t.Errorf("entities = %+v, want the two surface forms merged", entities)
	}
}

func TestAggregateEndpointRegisteredByLaterChunk(t *testing.T) {
	extractions := []common.RawExtraction{
		{
			ChunkIndex: 0,
			Entities:   []string{"John Smith"},
			Relationships: []common.RelationshipCandidate{
				{Source: "John Smith", Target: "Jane Doe", Type: "married to"},
			},
		},
		{
			ChunkIndex: 1,
			Entities:   []string{"john smith", "Jane Doe"},
			Relationships: []common.RelationshipCandidate{
				{Source: "john smith", Target: "Jane Doe", Type: "married to"},
			},
		},
	}

	entities, relationships := aggregate(extractions)

	wantEntities := []common.CanonicalEntity{
		{CanonicalName: "John Smith", Aliases: []string{"john smith"}},
		{CanonicalName: "Jane Doe"},
	}
	if !reflect.DeepEqual(entities, wantEntities) {
		t.Errorf("entities = %+v, want %+v", entities, wantEntities)
	}

	want := []common.CanonicalRelationship{
		{Source: "John Smith", Target: "Jane Doe", Type: "married to", Occurrences: 2},
	}
	if !reflect.DeepEqual(relationships, want) {
		t.Errorf("relationships = %+v, want %+v", relationships, want)
	}
}

func TestAggregateDropsUnknownEndpoints(t *testing.T) {
	extractions := []common.RawExtraction{
		{
			ChunkIndex: 0,
			Entities:   []string{"Alice"},
			Relationships: []common.RelationshipCandidate{
				{Source: "Alice", Target: "Jane Doe", Type: "sister of"},
			},
		},
	}

	_, relationships := aggregate(extractions)
	if len(relationships) != 0 {
		t.Errorf("relationships = %+v, want none", relationships)
	}
}

func TestAggregateFirstSeenOrder(t *testing.T) {
	extractions := []common.RawExtraction{
		{ChunkIndex: 0, Entities: []string{"Carol", "Alice"}},
		{ChunkIndex: 1, Entities: []string{"Bob", "alice"}},
	}

	entities, _ := aggregate(extractions)

	var names []string
	for _, e := range entities {
		names = append(names, e.CanonicalName)
	}
	want := []string{"Carol", "Alice", "Bob"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("entity order = %v, want %v", names, want)
	}
}
