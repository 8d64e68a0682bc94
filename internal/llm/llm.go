// Package llm sends one chat completion per request to a remote model
// provider. There are no retries and no streaming: a single timed call is
// made and any failure is returned.
package llm

import (
	"context"
	"strings"
)

// Request is one system+user exchange.
type Request struct {
	// Model is the provider model id, e.g. "anthropic/claude-3.5-sonnet".
	Model  string
	System string
	// Prompt is the complete user message.
	Prompt string
}

// Usage reports token counts when the provider returns them.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the first choice's text.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Client completes a single request.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Provider returns the prefix before the first "/" of a model id.
func Provider(model string) string {
	if i := strings.Index(model, "/"); i >= 0 {
		return model[:i]
	}
	return ""
}
