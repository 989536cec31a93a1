package push

import (
	"context"
)

// Content is the message payload shared by every token in a dispatch.
type Content struct {
	Title    string
	Body     string
	ImageURL string
	DeepLink string
}

// Result is the outcome for a single token. Results are positionally aligned
// with the token list passed to Send.
type Result struct {
	Success   bool
	MessageID string
	Error     string
}

// Sender delivers one logical message to many device tokens. A returned error
// means the transmission as a whole could not be attempted; per-token failures
// are reported in the result list instead and never abort the batch.
type Sender interface {
	Send(ctx context.Context, content Content, tokens []string) ([]Result, error)
}
