package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/chartwise/internal/config"
)

const pingTimeout = 5 * time.Second

// NewProvider creates the provider registered under id
func NewProvider(ctx context.Context, id string, cfg *config.Config) (Provider, error) {
	info := config.GetProvider(id)
	if info == nil {
		return nil, fmt.Errorf("unknown provider: %s", id)
	}

	apiKey := cfg.APIKeyFor(id)
	if info.NeedsAPIKey && apiKey == "" {
		return nil, unavailable(id, fmt.Errorf("%s requires an API key", id))
	}
	model := cfg.ModelFor(id)

	switch id {
	case "gemini":
		p, err := NewGeminiProvider(ctx, apiKey, model)
		if err != nil {
			return nil, unavailable(id, err)
		}
		return p, nil

	case "ollama":
		host := ""
		if id == cfg.Provider {
			host = cfg.BaseURL
		}
		if host == "" && cfg.Local != nil {
			host = cfg.Local.Host
		}
		return NewOllamaProvider(host, model), nil

	case "groq":
		return NewGroqProvider(apiKey, model), nil

	case "openai":
		return NewOpenAIProvider(apiKey, model), nil

	case "anthropic":
		return NewAnthropicProvider(apiKey, model), nil

	case "openrouter":
		return NewOpenRouterProvider(apiKey, model), nil

	case "custom":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("custom provider requires base_url")
		}
		return NewCustomProvider(cfg.BaseURL, apiKey, model), nil

	case "offline":
		return NewOfflineProvider(), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
}

// NewLocalProvider creates the designated default provider
func NewLocalProvider(cfg *config.Config) Provider {
	local := cfg.Local
	if local == nil {
		local = config.DefaultConfig().Local
	}
	return NewOllamaProvider(local.Host, local.Model)
}

// Resolve walks the configured provider chain and returns a gateway for the
// first provider that starts. When none does, the local ollama provider is
// used.
func Resolve(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) Gateway {
	for _, id := range cfg.Chain() {
		entry := log.WithField("provider", id)

		p, err := NewProvider(ctx, id, cfg)
		if err != nil {
			entry.WithError(err).Warn("skipping provider")
			continue
		}

		if cfg.VerifyOnStart {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err = p.Ping(pctx)
			cancel()
			if err != nil {
				entry.WithError(err).Warn("provider failed health check")
				continue
			}
		}

		entry.Debug("provider resolved")
		return NewGateway(p, cfg.ModelFor(id), cfg.Timeout)
	}

	local := NewLocalProvider(cfg)
	model := config.DefaultConfig().Local.Model
	if cfg.Local != nil && cfg.Local.Model != "" {
		model = cfg.Local.Model
	}
	log.WithFields(logrus.Fields{
		"provider": local.Name(),
		"model":    model,
	}).Warn("no configured provider could start, using local default")
	return NewGateway(local, model, cfg.Timeout)
}
