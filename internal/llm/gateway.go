package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Gateway is the text-generation capability the pipeline depends on
type Gateway interface {
	Generate(ctx context.Context, prompt, system string, opts ...Option) (string, error)
	// Provider names the provider behind the gateway
	Provider() string
}

type Option func(*CompletionRequest)

// JSONOutput asks the provider for a JSON-only response
func JSONOutput() Option {
	return func(r *CompletionRequest) {
		r.JSON = true
	}
}

// MaxTokens caps the completion length
func MaxTokens(n int) Option {
	return func(r *CompletionRequest) {
		r.MaxTokens = n
	}
}

type gateway struct {
	provider Provider
	model    string
	timeout  time.Duration
}

// NewGateway wraps p so every call is bounded by timeout and every failure
// surfaces as a *ProviderError.
func NewGateway(p Provider, model string, timeout time.Duration) Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &gateway{provider: p, model: model, timeout: timeout}
}

func (g *gateway) Provider() string {
	return g.provider.Name()
}

func (g *gateway) Generate(ctx context.Context, prompt, system string, opts ...Option) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := NewRequest(g.model, system, prompt)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return "", classify(g.provider.Name(), err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", upstream(g.provider.Name(), fmt.Errorf("empty completion"))
	}
	return resp.Content, nil
}
