package chi

import "github.com/kailas-cloud/ragtutor/internal/domain"

// ErrorCode is a machine-readable error category.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnsupportedFile  ErrorCode = "unsupported_file"
	ErrorCodeProviderError    ErrorCode = "provider_error"
	ErrorCodeRetrievalFailed  ErrorCode = "retrieval_failed"
	ErrorCodeSynthesisFailed  ErrorCode = "synthesis_failed"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code   ErrorCode `json:"code"`
	Detail string    `json:"detail"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Response string `json:"response"`
}

// DefaultQuery answers requests that omit the query field.
const DefaultQuery = "what is sound propagation?"

// AgentRequest is the body of POST /agent.
type AgentRequest struct {
	Query *string `json:"query"`
}

// AgentResponse is the body of a successful POST /agent.
type AgentResponse struct {
	Response string `json:"response"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query      *string `json:"query"`
	LongAnswer bool    `json:"long_answer"`
}

// queryText returns the requested query, or DefaultQuery when absent.
// A blank query is passed through as is.
func queryText(q *string) string {
	if q == nil {
		return DefaultQuery
	}
	return *q
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	Response       string          `json:"response"`
	IsValid        bool            `json:"is_valid"`
	Sources        []domain.Source `json:"sources"`
	Classification string          `json:"classification"`
}

// UploadResponse is the body of a successful POST /documents.
type UploadResponse struct {
	ChunksIndexed int    `json:"chunks_indexed"`
	FileName      string `json:"file_name"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
