package intent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/llm"
)

var salesCatalog = dataset.Catalog{
	{Name: "order_date", Type: dataset.Date},
	{Name: "region", Type: dataset.String},
	{Name: "product", Type: dataset.String},
	{Name: "revenue", Type: dataset.Numeric},
	{Name: "quantity", Type: dataset.Numeric},
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType string
		wantOK   bool
	}{
		{
			name:     "plain object",
			text:     `{"action_type":"add_chart","parameters":{"chart_type":"bar_chart"}}`,
			wantType: "add_chart",
			wantOK:   true,
		},
		{
			name:     "prose around object",
			text:     `Sure! Here you go: {"action_type":"remove_chart"} Hope that helps.`,
			wantType: "remove_chart",
			wantOK:   true,
		},
		{
			name:     "fenced json",
			text:     "```json\n{\"action_type\": \"explain_chart\", \"parameters\": {\"chart_id\": \"c1\"}}\n```",
			wantType: "explain_chart",
			wantOK:   true,
		},
		{
			name:     "doubly nested object",
			text:     `{"action_type":"generate_dashboard","parameters":{"widgets":[{"chart_type":"kpi","extra":{"a":1}}]}}`,
			wantType: "generate_dashboard",
			wantOK:   true,
		},
		{
			name:     "object without action type is accepted by span fallback",
			text:     "```\n{\"foo\": 1}\n```",
			wantType: "",
			wantOK:   true,
		},
		{
			name:     "no json",
			text:     "I cannot help with that.",
			wantType: "unknown",
			wantOK:   false,
		},
		{
			name:     "broken json",
			text:     `{"action_type": "add_chart",`,
			wantType: "unknown",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := extract(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantType == "" {
				assert.NotContains(t, raw, "action_type")
				return
			}
			assert.Equal(t, tt.wantType, raw["action_type"])
		})
	}
}

func TestExtractSentinel(t *testing.T) {
	raw := Extract("nothing here")
	assert.Equal(t, "unknown", raw["action_type"])
	assert.Nil(t, raw["target_component"])
	assert.Equal(t, map[string]any{}, raw["parameters"])
	assert.Equal(t, parseFailureExplanation, raw["explanation"])
}

func TestValidate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		in := Validate(map[string]any{})
		assert.Equal(t, Unknown, in.ActionType)
		assert.Empty(t, in.TargetComponent)
		assert.Equal(t, "Processing your request.", in.Explanation)
		assert.Equal(t, UnknownParams{}, in.Params)
	})

	t.Run("unrecognized action type", func(t *testing.T) {
		in := Validate(map[string]any{"action_type": "delete_everything", "explanation": "ok"})
		assert.Equal(t, Unknown, in.ActionType)
		assert.Equal(t, "Unknown action type. Available: generate_dashboard, add_chart, modify_chart, remove_chart, explain_chart, answer_question, filter_data, transform_data, update_kpi, rename_component, unknown", in.Explanation)
	})

	t.Run("typed params", func(t *testing.T) {
		in := Validate(map[string]any{
			"action_type":      "add_chart",
			"target_component": "c9",
			"parameters":       map[string]any{"chart_type": "line_chart", "x_axis": "order_date", "y_axis": "revenue"},
			"explanation":      "Adding a line chart",
		})
		assert.Equal(t, AddChart, in.ActionType)
		assert.Equal(t, "c9", in.TargetComponent)
		assert.Equal(t, AddChartParams{ChartType: "line_chart", XAxis: "order_date", YAxis: "revenue"}, in.Params)
	})

	t.Run("weakly typed limit", func(t *testing.T) {
		in := Validate(map[string]any{
			"action_type": "filter_data",
			"parameters":  map[string]any{"column": "revenue", "limit": "5"},
		})
		p, ok := in.Params.(FilterParams)
		require.True(t, ok)
		require.NotNil(t, p.Limit)
		assert.Equal(t, 5, *p.Limit)
	})

	t.Run("undecodable params degrade to zero", func(t *testing.T) {
		in := Validate(map[string]any{
			"action_type": "generate_dashboard",
			"parameters":  map[string]any{"widgets": "lots"},
		})
		assert.Equal(t, GenerateDashboardParams{}, in.Params)
	})
}

func TestDecodeParamsAliases(t *testing.T) {
	p := DecodeParams(ModifyChart, map[string]any{"type": "pie_chart", "title": "Share"})
	mp := p.(ModifyChartParams)
	assert.Equal(t, "pie_chart", mp.Type)
	require.NotNil(t, mp.Title)
	assert.Equal(t, "Share", *mp.Title)
	assert.Nil(t, mp.XAxis)

	r := DecodeParams(RenameComponent, map[string]any{"new_title": "Sales"})
	assert.Equal(t, RenameParams{Title: "Sales"}, r)

	k := DecodeParams(UpdateKPI, map[string]any{"value": nil})
	assert.True(t, k.(UpdateKPIParams).HasValue)
	assert.Nil(t, k.(UpdateKPIParams).Title)

	tr := DecodeParams(TransformData, map[string]any{"operation": "pivot"})
	assert.Equal(t, map[string]any{"operation": "pivot"}, tr.(TransformParams).Spec)
}

func TestIntentJSON(t *testing.T) {
	in := Intent{ActionType: RemoveChart, Explanation: "Removing"}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Contains(t, obj, "action_type")
	assert.Contains(t, obj, "target_component")
	assert.Nil(t, obj["target_component"])
	assert.Equal(t, map[string]any{}, obj["parameters"])
	assert.Equal(t, "Removing", obj["explanation"])

	var back Intent
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, RemoveChart, back.ActionType)
}

func TestMatchRules(t *testing.T) {
	tests := []struct {
		name       string
		command    string
		wantAction ActionType
		wantParams Params
		wantExpl   string
	}{
		{
			name:       "metric by category",
			command:    "Create a bar chart of revenue by region",
			wantAction: AddChart,
			wantParams: AddChartParams{ChartType: "bar_chart", XAxis: "region", YAxis: "revenue"},
			wantExpl:   "Adding bar_chart to dashboard",
		},
		{
			name:       "pie from keyword",
			command:    "plot a pie of quantity per product",
			wantAction: AddChart,
			wantParams: AddChartParams{ChartType: "pie_chart", XAxis: "product", YAxis: "quantity"},
			wantExpl:   "Adding pie_chart to dashboard",
		},
		{
			name:       "total maps to kpi with defaults",
			command:    "show total sales",
			wantAction: AddChart,
			wantParams: AddChartParams{ChartType: "kpi", XAxis: "order_date", YAxis: "revenue"},
			wantExpl:   "Adding kpi to dashboard",
		},
		{
			name:       "remove",
			command:    "delete the last one",
			wantAction: RemoveChart,
			wantParams: RemoveChartParams{},
			wantExpl:   "Removing component from dashboard",
		},
		{
			name:       "filter",
			command:    "filter to north only",
			wantAction: FilterData,
			wantParams: FilterParams{},
			wantExpl:   "Applying filter to data",
		},
		{
			name:       "modify",
			command:    "switch it to lines",
			wantAction: ModifyChart,
			wantParams: ModifyChartParams{},
			wantExpl:   "Modifying chart as requested",
		},
		{
			name:       "rename",
			command:    "rename it",
			wantAction: RenameComponent,
			wantParams: RenameParams{},
			wantExpl:   "Renaming component",
		},
		{
			name:       "nothing matches",
			command:    "hello there",
			wantAction: Unknown,
			wantParams: UnknownParams{},
			wantExpl:   "I didn't understand that command. Please try rephrasing or be more specific.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := MatchRules(tt.command, salesCatalog)
			assert.Equal(t, tt.wantAction, in.ActionType)
			assert.Equal(t, tt.wantParams, in.Params)
			assert.Equal(t, tt.wantExpl, in.Explanation)
			assert.Equal(t, tt.command, in.Command)
			assert.Equal(t, SourceRules, in.Source)
		})
	}
}

func TestMatchRulesNoColumns(t *testing.T) {
	in := MatchRules("make a chart", nil)
	assert.Equal(t, AddChartParams{ChartType: "bar_chart"}, in.Params)
}

type fakeGateway struct {
	resp   string
	err    error
	prompt string
	system string
}

func (f *fakeGateway) Generate(_ context.Context, prompt, system string, _ ...llm.Option) (string, error) {
	f.prompt, f.system = prompt, system
	return f.resp, f.err
}

func (f *fakeGateway) Provider() string { return "fake" }

func TestParser(t *testing.T) {
	d := dashboard.New("d1", "ds1", "Sales")

	t.Run("model response", func(t *testing.T) {
		gw := &fakeGateway{resp: `{"action_type":"answer_question","parameters":{"question":"top regions?"},"explanation":"Answering"}`}
		log, _ := test.NewNullLogger()
		p := NewParser(gw, log)

		in := p.Parse(context.Background(), "what are the top regions?", d, salesCatalog)
		assert.Equal(t, AnswerQuestion, in.ActionType)
		assert.Equal(t, AnswerQuestionParams{Question: "top regions?"}, in.Params)
		assert.Equal(t, SourceLLM, in.Source)
		assert.Equal(t, "what are the top regions?", in.Command)
		assert.Contains(t, gw.prompt, "region (string)")
		assert.NotEmpty(t, gw.system)
	})

	t.Run("unparseable response", func(t *testing.T) {
		gw := &fakeGateway{resp: "no idea"}
		log, _ := test.NewNullLogger()
		in := NewParser(gw, log).Parse(context.Background(), "bar chart please", d, salesCatalog)
		assert.Equal(t, Unknown, in.ActionType)
		assert.Equal(t, SourceFallback, in.Source)
		assert.Equal(t, parseFailureExplanation, in.Explanation)
	})

	t.Run("gateway failure uses rules", func(t *testing.T) {
		gw := &fakeGateway{err: errors.Join(llm.ErrProviderUnavailable, errors.New("refused"))}
		log, hook := test.NewNullLogger()
		in := NewParser(gw, log).Parse(context.Background(), "add a line chart of revenue by order_date", d, salesCatalog)
		assert.Equal(t, AddChart, in.ActionType)
		assert.Equal(t, SourceRules, in.Source)
		assert.Equal(t, AddChartParams{ChartType: "line_chart", XAxis: "order_date", YAxis: "revenue"}, in.Params)
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "fake", hook.LastEntry().Data["provider"])
	})
}
