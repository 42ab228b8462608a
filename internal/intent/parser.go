package intent

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/llm"
	"github.com/sant0-9/chartwise/internal/prompts"
)

// Parser turns natural-language commands into intents
type Parser struct {
	gateway llm.Gateway
	log     logrus.FieldLogger
}

func NewParser(gateway llm.Gateway, log logrus.FieldLogger) *Parser {
	return &Parser{
		gateway: gateway,
		log:     log,
	}
}

// Parse asks the model for an intent. When the model cannot be reached or
// fails, the keyword rules answer instead.
func (p *Parser) Parse(ctx context.Context, command string, d *dashboard.Dashboard, catalog dataset.Catalog) Intent {
	prompt := prompts.BuildIntentPrompt(command, prompts.BuildIntentContext(d, catalog))

	resp, err := p.gateway.Generate(ctx, prompt, prompts.IntentSystem(), llm.JSONOutput())
	if err != nil {
		p.log.WithError(err).WithField("provider", p.gateway.Provider()).Warn("intent generation failed, using rule matcher")
		return MatchRules(command, catalog)
	}

	raw, ok := extract(resp)
	in := Validate(raw)
	in.Command = command
	in.Source = SourceLLM
	if !ok {
		in.Source = SourceFallback
		p.log.WithField("response", truncate(resp, 200)).Debug("could not extract action from response")
	}
	return in
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
