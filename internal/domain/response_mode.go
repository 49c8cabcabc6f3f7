package domain

import "fmt"

// ResponseMode selects how retrieved chunks are batched into completion calls.
type ResponseMode string

const (
	// ResponseModeCompactAccumulate packs as many chunks as fit the context window
	// into each call and accumulates the partial answers.
	ResponseModeCompactAccumulate ResponseMode = "compact_accumulate"
	// ResponseModeAccumulate makes one call per chunk and accumulates the answers.
	ResponseModeAccumulate ResponseMode = "accumulate"
)

// ParseResponseMode converts a config string to a ResponseMode. Empty means the default.
func ParseResponseMode(s string) (ResponseMode, error) {
	switch ResponseMode(s) {
	case "", ResponseModeCompactAccumulate:
		return ResponseModeCompactAccumulate, nil
	case ResponseModeAccumulate:
		return ResponseModeAccumulate, nil
	default:
		return "", fmt.Errorf("unknown response mode %q: %w", s, ErrConfiguration)
	}
}
