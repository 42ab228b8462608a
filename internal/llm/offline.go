package llm

import (
	"context"
	"errors"
)

var errOffline = errors.New("offline mode: no model configured")

// OfflineProvider never reaches a model. Every call fails as unavailable so
// callers take their deterministic fallbacks (rule matching, templated
// answers).
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (OfflineProvider) Name() string {
	return "offline"
}

func (OfflineProvider) Ping(context.Context) error {
	return nil
}

func (o OfflineProvider) Complete(context.Context, *CompletionRequest) (*CompletionResponse, error) {
	return nil, unavailable(o.Name(), errOffline)
}
