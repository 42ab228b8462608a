// Package eval scores how well commands were understood and carried out.
package eval

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/sant0-9/chartwise/internal/compiler"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/intent"
)

// Result is the scored record of one processed command
type Result struct {
	ID             string            `json:"id" yaml:"id"`
	At             time.Time         `json:"timestamp" yaml:"timestamp"`
	Command        string            `json:"user_command" yaml:"user_command"`
	ActionType     intent.ActionType `json:"action_type" yaml:"action_type"`
	Intent         json.RawMessage   `json:"intent_parsed" yaml:"-"`
	Action         json.RawMessage   `json:"action_generated" yaml:"-"`
	Success        bool              `json:"success" yaml:"success"`
	Error          string            `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Latency        time.Duration     `json:"latency_ns" yaml:"latency"`
	PromptTokens   int               `json:"prompt_tokens" yaml:"prompt_tokens"`
	ResponseTokens int               `json:"response_tokens" yaml:"response_tokens"`
	Cost           float64           `json:"estimated_cost" yaml:"estimated_cost"`
	Correctness    float64           `json:"action_correctness_score" yaml:"action_correctness_score"`
	ToolCorrect    bool              `json:"tool_usage_correct" yaml:"tool_usage_correct"`
	Provider       string            `json:"llm_provider" yaml:"llm_provider"`
}

// LatencyMs is the latency in fractional milliseconds
func (r Result) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}

// price is USD per million tokens
type price struct {
	input  float64
	output float64
}

var prices = map[string]price{
	"gemini":     {input: 0.075, output: 0.30},
	"openai":     {input: 0.15, output: 0.60},
	"groq":       {input: 0.59, output: 0.79},
	"anthropic":  {input: 0.80, output: 4.00},
	"openrouter": {input: 0.075, output: 0.30},
}

// compatible lists intent types that may stand in for one another
var compatible = map[intent.ActionType][]intent.ActionType{
	intent.AddChart:          {intent.GenerateDashboard},
	intent.GenerateDashboard: {intent.AddChart},
}

// produces maps each action kind to the intent types that compile to it
var produces = map[compiler.Kind][]intent.ActionType{
	compiler.AddComponent:          {intent.AddChart},
	compiler.AddMultipleComponents: {intent.GenerateDashboard},
	compiler.UpdateComponent:       {intent.ModifyChart, intent.UpdateKPI, intent.RenameComponent},
	compiler.RemoveComponent:       {intent.RemoveChart},
	compiler.ApplyFilter:           {intent.FilterData},
	compiler.ApplyTransformation:   {intent.TransformData},
	compiler.ExplainChart:          {intent.ExplainChart},
	compiler.AnswerQuestion:        {intent.AnswerQuestion},
}

type Evaluator struct {
	now func() time.Time
	ids func() string
}

func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now, ids: uuid.NewString}
}

// EstimateTokens approximates a token count at about four characters per
// token.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// EstimateCost prices a call for provider. Unknown and local providers are
// free.
func EstimateCost(provider string, promptTokens, responseTokens int) float64 {
	p, ok := prices[provider]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1e6*p.input + float64(responseTokens)/1e6*p.output
}

// Score evaluates one command's intent and action
func (e *Evaluator) Score(command string, in intent.Intent, a compiler.Action, provider string, latency time.Duration, promptText, responseText string) Result {
	r := Result{
		ID:             e.ids(),
		At:             e.now().UTC(),
		Command:        command,
		ActionType:     in.ActionType,
		Success:        a.Success,
		Latency:        latency,
		PromptTokens:   EstimateTokens(promptText),
		ResponseTokens: EstimateTokens(responseText),
		Provider:       provider,
		Correctness:    Correctness(in, a),
		ToolCorrect:    ToolCorrect(in, a),
	}
	if !a.Success {
		r.Error = string(a.Error)
	}
	r.Cost = EstimateCost(provider, r.PromptTokens, r.ResponseTokens)
	r.Intent, _ = json.Marshal(in)
	r.Action, _ = json.Marshal(a)
	return r
}

// producedType is the intent type an action stands for. Failed actions
// stand for nothing.
func producedType(in intent.Intent, a compiler.Action) (intent.ActionType, bool) {
	if !a.Success {
		return "", false
	}
	types := produces[a.Kind]
	for _, t := range types {
		if t == in.ActionType {
			return t, true
		}
	}
	if len(types) == 0 {
		return "", false
	}
	return types[0], true
}

// Correctness scores from 0 to 1 how well the action matches the intent
func Correctness(in intent.Intent, a compiler.Action) float64 {
	score := 0.0

	if at, ok := producedType(in, a); ok {
		switch {
		case at == in.ActionType:
			score += 0.4
		case in.ActionType == intent.Unknown && at != intent.Unknown:
			score += 0.2
		}
	}

	if a.Success {
		score += 0.3
	}

	want := intent.ParamMap(in.Params)
	got := actionParams(a)
	if len(want) > 0 && len(got) > 0 {
		matched := 0
		for k, v := range want {
			if gv, ok := got[k]; ok && reflect.DeepEqual(gv, v) {
				matched++
			}
		}
		score += 0.3 * float64(matched) / float64(len(want))
	}

	if score > 1 {
		return 1
	}
	return score
}

// ToolCorrect reports whether the action kind fits the intent, allowing the
// compatible substitutions.
func ToolCorrect(in intent.Intent, a compiler.Action) bool {
	at, ok := producedType(in, a)
	if !ok {
		return false
	}
	if at == in.ActionType {
		return true
	}
	for _, alt := range compatible[in.ActionType] {
		if alt == at {
			return true
		}
	}
	return false
}

// actionParams flattens an action payload into the parameter names an
// intent uses, normalized through JSON so values compare by content.
func actionParams(a compiler.Action) map[string]any {
	out := map[string]any{}
	if !a.Success {
		return out
	}

	switch a.Kind {
	case compiler.AddComponent:
		if c := a.Component; c != nil {
			out["chart_type"] = string(c.Type)
			out["title"] = c.Title
			setNonEmpty(out, "x_axis", c.Config.XAxis)
			setNonEmpty(out, "y_axis", c.Config.YAxis)
			setNonEmpty(out, "aggregation", c.Config.Aggregation)
		}
	case compiler.UpdateComponent:
		if u := a.Updates; u != nil {
			patchParams(out, *u)
		}
	case compiler.ApplyFilter:
		if a.Filter != nil {
			out = normalize(a.Filter)
		}
	case compiler.ApplyTransformation:
		out = normalize(a.Transformation)
	case compiler.ExplainChart:
		setNonEmpty(out, "chart_id", a.ChartID)
		setNonEmpty(out, "question", a.Question)
	case compiler.AnswerQuestion:
		setNonEmpty(out, "question", a.Question)
	}
	return normalize(out)
}

func patchParams(out map[string]any, p dashboard.Patch) {
	if p.Type != nil {
		out["chart_type"] = string(*p.Type)
	}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if c := p.Config; c != nil {
		if c.XAxis != nil {
			out["x_axis"] = *c.XAxis
		}
		if c.YAxis != nil {
			out["y_axis"] = *c.YAxis
		}
		if c.HasValue {
			out["value"] = c.Value
		}
	}
}

func setNonEmpty(m map[string]any, k, v string) {
	if v != "" {
		m[k] = v
	}
}

func normalize(v any) map[string]any {
	out := map[string]any{}
	data, err := json.Marshal(v)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}
