package pipeline

import "github.com/kailas-cloud/ragtutor/internal/domain"

// EmptyResponseReply replaces the no-answer sentinel in user-facing output.
const EmptyResponseReply = `Your query did not receive a response from our server.

This might occur if there is no relevant information for your query or if the query is too vague. Please try again by framing your query as a direct question.`

// IrrelevantQueryReply is returned when the relevance gate rejects a query.
const IrrelevantQueryReply = "Query seems to be irrelevant to the topics covered in the study material. " +
	"Kindly elaborate or rephrase your query."

// Fallback maps a raw synthesized answer to what the user sees.
// The sentinel becomes EmptyResponseReply and is invalid; anything else passes through.
func Fallback(raw string) (string, bool) {
	if raw == domain.EmptyResponse {
		return EmptyResponseReply, false
	}
	return raw, true
}
