package llm

import (
	"context"
	"sync"
)

// TokenTracker tracks token usage across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
	failures  int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// AddFailure records a call that returned an error.
func (t *TokenTracker) AddFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.failures++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Failures returns the number of failed calls.
func (t *TokenTracker) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}

// Reset clears all tracked token usage.
func (t *TokenTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok = 0
	t.outputTok = 0
	t.calls = 0
	t.failures = 0
}

// Tracked wraps c so every call is counted in t.
func Tracked(c Client, t *TokenTracker) Client {
	return ClientFunc(func(ctx context.Context, req Request) (*Response, error) {
		resp, err := c.Complete(ctx, req)
		if err != nil {
			t.AddFailure()
			return nil, err
		}
		t.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
		return resp, nil
	})
}
