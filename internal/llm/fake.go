package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrNoFakeResponse is returned by a Fake whose queue ran empty
var ErrNoFakeResponse = errors.New("fake llm: no response queued")

// FakeResponse is one canned reply of a Fake
type FakeResponse struct {
	Text string
	Err  error
}

// Fake is an in-memory Client for tests. It replays queued responses in
// order, or delegates to a handler when one is set.
type Fake struct {
	mu        sync.Mutex
	responses []FakeResponse
	handler   func(prompt string, tier ModelTier) (string, error)
	prompts   []string
}

func NewFake(responses ...FakeResponse) *Fake {
	return &Fake{responses: responses}
}

// NewFakeFunc answers every prompt with handler
func NewFakeFunc(handler func(prompt string, tier ModelTier) (string, error)) *Fake {
	return &Fake{handler: handler}
}

func (f *Fake) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	if f.handler != nil {
		handler := f.handler
		f.mu.Unlock()
		return handler(prompt, tier)
	}
	defer f.mu.Unlock()

	if len(f.responses) == 0 {
		return "", ErrNoFakeResponse
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next.Text, next.Err
}

func (f *Fake) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := f.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (f *Fake) Close() error {
	return nil
}

// Calls returns how many prompts the fake received
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// Prompts returns a copy of the received prompts
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
