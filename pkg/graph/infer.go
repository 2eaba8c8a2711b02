package graph

import (
	"context"
	"strings"

	"github.com/readingbooks/backend/internal/util"
	"github.com/readingbooks/backend/pkg/ai"
	"github.com/readingbooks/backend/pkg/common"
	"github.com/readingbooks/backend/pkg/logger"
)

type extractedRelationship struct {
	SourceEntity     string `json:"source_entity" jsonschema_description:"Name of the person the relationship originates from, exactly as listed in entities"`
	TargetEntity     string `json:"target_entity" jsonschema_description:"Name of the person the relationship points to, exactly as listed in entities"`
	RelationshipType string `json:"relationship_type" jsonschema_description:"Short free-text label for the relationship, e.g. 'parent of' or 'married to'"`
}

type extractResponse struct {
	Entities      []string                `json:"entities" jsonschema_description:"Names of all people mentioned in the text, exactly as written"`
	Relationships []extractedRelationship `json:"relationships" jsonschema_description:"Relationships between the listed people"`
}

// extractFromChunk runs schema-constrained inference on one chunk and
// validates the response. The whole retry budget is spent here; callers see
// either a usable RawExtraction or a classified error.
func (c *Client) extractFromChunk(
	ctx context.Context,
	chunk common.Chunk,
) (common.RawExtraction, error) {
	resp, err := util.RetryWithContext(ctx, c.maxTries, func(ctx context.Context) (extractResponse, error) {
		var out extractResponse
		err := c.aiClient.GenerateCompletionWithFormat(
			ctx,
			"person_extraction",
			"People mentioned in a text segment and the relationships between them",
			chunk.Text,
			&out,
			ai.WithSystemPrompts(ai.ExtractPeoplePrompt),
		)
		return out, err
	})
	if err != nil {
		return common.RawExtraction{ChunkIndex: chunk.Index}, err
	}

	return validateExtraction(chunk, resp), nil
}

// validateExtraction enforces the per-chunk contract: entity names are
// trimmed and exact duplicates removed; relationships must reference names
// from the chunk's own entity list (compared under normalization) and
// identical candidates collapse to one.
func validateExtraction(chunk common.Chunk, resp extractResponse) common.RawExtraction {
	entities := make([]string, 0, len(resp.Entities))
	exact := make(map[string]struct{}, len(resp.Entities))
	known := make(map[string]struct{}, len(resp.Entities))
	for _, name := range resp.Entities {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := exact[name]; ok {
			continue
		}
		exact[name] = struct{}{}
		known[normalizeKey(name)] = struct{}{}
		entities = append(entities, name)
	}

	relationships := make([]common.RelationshipCandidate, 0, len(resp.Relationships))
	seen := make(map[string]struct{}, len(resp.Relationships))
	for _, rel := range resp.Relationships {
		source := strings.TrimSpace(rel.SourceEntity)
		target := strings.TrimSpace(rel.TargetEntity)
		relType := strings.TrimSpace(rel.RelationshipType)

		if source == "" || target == "" || relType == "" {
			logger.Debug("[Extract] dropped incomplete relationship",
				"chunk", chunk.Index, "source", source, "target", target, "type", relType)
			continue
		}
		if _, ok := known[normalizeKey(source)]; !ok {
			logger.Debug("[Extract] dropped relationship with unknown source",
				"chunk", chunk.Index, "source", source)
			continue
		}
		if _, ok := known[normalizeKey(target)]; !ok {
			logger.Debug("[Extract] dropped relationship with unknown target",
				"chunk", chunk.Index, "target", target)
			continue
		}

		key := source + "\x00" + target + "\x00" + relType
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		relationships = append(relationships, common.RelationshipCandidate{
			Source: source,
			Target: target,
			Type:   relType,
		})
	}

	return common.RawExtraction{
		ChunkIndex:    chunk.Index,
		Entities:      entities,
		Relationships: relationships,
	}
}
