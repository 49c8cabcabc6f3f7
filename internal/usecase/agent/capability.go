package agent

import "strings"

// Capability is one of the closed set of handlers a query can be routed to.
type Capability string

const (
	// VectorQuery answers from the indexed study material.
	VectorQuery Capability = "VectorQuery"
	// ContentModeration handles inappropriate or offensive input.
	ContentModeration Capability = "ContentModeration"
)

// capabilities lists routing targets in prompt order with their descriptions.
var capabilities = []struct {
	name        Capability
	description string
}{
	{VectorQuery, "Answer questions about the study material by searching the indexed documents. " +
		"Use this for any subject question, explanation or definition."},
	{ContentModeration, "Detect inappropriate, offensive or harmful language in the query " +
		"and reply with a polite warning."},
}

// ParseCapability maps a model reply to a Capability. Matching ignores case
// and surrounding punctuation; anything unrecognised falls back to VectorQuery.
func ParseCapability(s string) Capability {
	s = strings.Trim(strings.TrimSpace(s), "\"'`.*:")
	for _, c := range capabilities {
		if strings.EqualFold(s, string(c.name)) {
			return c.name
		}
	}
	return VectorQuery
}
