package graph

import (
	"strings"
	"unicode"

	"github.com/readingbooks/backend/pkg/common"
	"github.com/readingbooks/backend/pkg/logger"
)

// normalizeKey derives the identity key for an entity name: case-folded,
// punctuation stripped, whitespace collapsed. Surface forms that share a key
// are the same person.
func normalizeKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// "Smith, John" and "Smith John" collapse together
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// aggregate merges per-chunk extractions into canonical entities and
// relationships. Input must be ordered by chunk index; output ordering is
// first-seen and therefore deterministic for a given input.
//
// Entities from every chunk are registered before any relationship is
// resolved, so an endpoint only surfaced by a later chunk still counts for
// relationships reported earlier.
func aggregate(extractions []common.RawExtraction) ([]common.CanonicalEntity, []common.CanonicalRelationship) {
	entityOrder := []string{}
	entitiesByKey := map[string]*common.CanonicalEntity{}
	aliasSeen := map[string]map[string]struct{}{}

	relOrder := []string{}
	relsByKey := map[string]*common.CanonicalRelationship{}

	for _, ex := range extractions {
		for _, surface := range ex.Entities {
			key := normalizeKey(surface)
			if key == "" {
				continue
			}

			ent, ok := entitiesByKey[key]
			if !ok {
				entitiesByKey[key] = &common.CanonicalEntity{CanonicalName: surface}
				aliasSeen[key] = map[string]struct{}{surface: {}}
				entityOrder = append(entityOrder, key)
				continue
			}
			if _, dup := aliasSeen[key][surface]; !dup {
				aliasSeen[key][surface] = struct{}{}
				ent.Aliases = append(ent.Aliases, surface)
			}
		}
	}

	for _, ex := range extractions {
		for _, rel := range ex.Relationships {
			sourceKey := normalizeKey(rel.Source)
			targetKey := normalizeKey(rel.Target)

			if sourceKey == "" || targetKey == "" {
				continue
			}
			if sourceKey == targetKey {
				logger.Debug("[Aggregate] dropped self relationship",
					"chunk", ex.ChunkIndex, "entity", rel.Source, "type", rel.Type)
				continue
			}

			source, ok := entitiesByKey[sourceKey]
			if !ok {
				logger.Debug("[Aggregate] dropped relationship with unregistered source",
					"chunk", ex.ChunkIndex, "source", rel.Source)
				continue
			}
			target, ok := entitiesByKey[targetKey]
			if !ok {
				logger.Debug("[Aggregate] dropped relationship with unregistered target",
					"chunk", ex.ChunkIndex, "target", rel.Target)
				continue
			}

			// unordered pair: A->B and B->A with the same type are one edge
			a, b := sourceKey, targetKey
			if b < a {
				a, b = b, a
			}
			relKey := a + "\x00" + b + "\x00" + strings.ToLower(rel.Type)

			if existing, ok := relsByKey[relKey]; ok {
				existing.Occurrences++
				continue
			}
			relsByKey[relKey] = &common.CanonicalRelationship{
				Source:      source.CanonicalName,
				Target:      target.CanonicalName,
				Type:        rel.Type,
				Occurrences: 1,
			}
			relOrder = append(relOrder, relKey)
		}
	}

	entities := make([]common.CanonicalEntity, 0, len(entityOrder))
	for _, key := range entityOrder {
		entities = append(entities, *entitiesByKey[key])
	}
	relationships := make([]common.CanonicalRelationship, 0, len(relOrder))
	for _, key := range relOrder {
		relationships = append(relationships, *relsByKey[key])
	}

	return entities, relationships
}
