// Package mock provides a scripted generate.Generator for tests.
package mock

import (
	"context"
	"sync"

	"github.com/YanaYuan/chinese-pinyin-ime/pkg/generate"
)

// Response is one canned reply.
type Response struct {
	Text string
	Err  error
}

// Generator replays Responses in order, then falls back to Func, then fails
// with generate.ErrMalformedResponse. It records every request and is safe
// for concurrent use.
type Generator struct {
	mu        sync.Mutex
	responses []Response
	calls     []generate.Request

	// Func, when set, answers requests once the canned responses run out.
	Func func(ctx context.Context, req generate.Request) (string, error)
	// Block, when set, is waited on before answering.
	Block chan struct{}
}

// New returns a generator that replays responses.
func New(responses ...Response) *Generator {
	return &Generator{responses: responses}
}

// Push queues more canned responses.
func (g *Generator) Push(responses ...Response) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, responses...)
}

// Generate implements generate.Generator.
func (g *Generator) Generate(ctx context.Context, req generate.Request) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	var next *Response
	if len(g.responses) > 0 {
		next = &g.responses[0]
		g.responses = g.responses[1:]
	}
	fn := g.Func
	block := g.Block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", &generate.GenerationError{Kind: generate.ErrUpstreamFailure, Err: ctx.Err()}
		}
	}

	switch {
	case next != nil:
		return next.Text, next.Err
	case fn != nil:
		return fn(ctx, req)
	default:
		return "", &generate.GenerationError{Kind: generate.ErrMalformedResponse}
	}
}

// Calls returns a copy of the recorded requests.
func (g *Generator) Calls() []generate.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]generate.Request, len(g.calls))
	copy(out, g.calls)
	return out
}

// CallCount returns the number of recorded requests.
func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
