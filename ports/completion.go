package ports

import "context"

// CompletionClient is the natural-language completion service. Treated as
// unreliable: timeouts, malformed output, and rate limiting are absorbed by
// fallback paths, never surfaced as a pipeline crash.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)
}
