package ai

// ExtractPeoplePrompt is the fixed instruction for per-chunk person and
// relationship extraction. The chunk text is sent as the user prompt; the
// response structure is enforced separately through a JSON schema.
const ExtractPeoplePrompt = `
# Task Context
You extract **people** and the **relationships between them** from a segment of a document. Capture everything explicitly present in the segment, nothing more.

# Detailed Task Description & Rules

## Person Extraction
1. Identify every human being mentioned by name in the text.
2. List each person's name exactly as it appears in the text.
3. Do not include organizations, places, or other non-person entities.
4. Do not invent people who are not named in the text.

## Relationship Extraction
1. Identify relationships between the people found in step 1.
2. Each relationship has a source person, a target person, and a type.
3. The type is a short free-text label describing the relationship, for example "parent of", "married to", "colleague of", "met".
4. Only report relationships where both people appear in your person list.
5. Only report relationships the text supports; do not infer beyond what is written.

# Output Formatting
Return only the structured result: the list of person names and the list of relationships. No commentary, no extra text.
`
