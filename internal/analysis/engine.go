// Package analysis answers analytical questions about the active dataset.
// Numbers are always computed locally; the model only narrates them.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/llm"
	"github.com/sant0-9/chartwise/internal/prompts"
	"github.com/sant0-9/chartwise/internal/stats"
)

const (
	contextSampleRows = 50
	promptSampleRows  = 10
	topValueCount     = 10

	noDataAnswer  = "I need data to answer your question. Please ensure your dataset is loaded."
	noDataExplain = "I need data to explain this chart. Please ensure your dataset is loaded."
)

// Result is the outcome of Answer or Explain
type Result struct {
	Success bool
	// NoData is set when the call failed because there were no rows
	NoData   bool
	Question string
	ChartID  string
	Text     string
	Findings *Findings
	// Narrated reports whether the text came from the model
	Narrated bool
}

type Engine struct {
	gateway llm.Gateway
	log     logrus.FieldLogger
}

func NewEngine(gateway llm.Gateway, log logrus.FieldLogger) *Engine {
	return &Engine{
		gateway: gateway,
		log:     log,
	}
}

// Answer responds to a free-form question about the data
func (e *Engine) Answer(ctx context.Context, question string, d *dashboard.Dashboard, catalog dataset.Catalog, rows []dataset.Row) Result {
	if len(rows) == 0 {
		return Result{NoData: true, Question: question, Text: noDataAnswer}
	}

	findings := Analyze(question, catalog, rows)
	prompt := prompts.BuildAnswerPrompt(question, prompts.AnswerContext{
		Widgets:   toJSON(widgetSummaries(d)),
		TotalRows: len(rows),
		Columns:   catalog.Names(),
		Summary:   toJSON(dataSummary(catalog, rows)),
		Analysis:  toJSON(findings),
		Sample:    toJSON(head(rows, promptSampleRows)),
	})

	res := Result{Success: true, Question: question, Findings: &findings}

	text, err := e.gateway.Generate(ctx, prompt, prompts.AnalystSystem())
	if err != nil {
		e.log.WithError(err).WithField("kind", findings.Kind).Warn("answer narration failed, using template")
		res.Text = fallbackAnswer(findings)
		return res
	}

	res.Text = strings.TrimSpace(text)
	res.Narrated = true
	return res
}

// Explain describes one chart of the dashboard. An empty chartID means the
// first component.
func (e *Engine) Explain(ctx context.Context, chartID, question string, d *dashboard.Dashboard, catalog dataset.Catalog, rows []dataset.Row) Result {
	chart := findChart(d, chartID)
	if chart != nil {
		chartID = chart.ID
	}

	if len(rows) == 0 {
		return Result{NoData: true, Question: question, ChartID: chartID, Text: noDataExplain}
	}

	prompt := prompts.BuildExplainPrompt(question, explainContext(chart, catalog, rows))
	res := Result{Success: true, Question: question, ChartID: chartID}

	text, err := e.gateway.Generate(ctx, prompt, prompts.ExplainSystem())
	if err != nil {
		e.log.WithError(err).WithField("chart_id", chartID).Warn("chart explanation failed, using template")
		res.Text = fallbackExplain(chart, rows)
		return res
	}

	res.Text = strings.TrimSpace(text)
	res.Narrated = true
	return res
}

func findChart(d *dashboard.Dashboard, id string) *dashboard.Component {
	if d == nil {
		return nil
	}
	if id != "" {
		c, ok := d.Find(id)
		if !ok {
			return nil
		}
		return c
	}
	if len(d.Components) > 0 {
		return &d.Components[0]
	}
	return nil
}

func explainContext(chart *dashboard.Component, catalog dataset.Catalog, rows []dataset.Row) string {
	var b strings.Builder

	b.WriteString("CHART INFORMATION:\n")
	if chart != nil {
		title := chart.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "Type: %s\n", chart.Type)
		fmt.Fprintf(&b, "Title: %s\n", title)
		if chart.Config.XAxis != "" {
			fmt.Fprintf(&b, "X-axis: %s\n", chart.Config.XAxis)
		}
		if chart.Config.YAxis != "" {
			fmt.Fprintf(&b, "Y-axis: %s\n", chart.Config.YAxis)
		}
	}

	b.WriteString("\nAVAILABLE DATA COLUMNS:\n")
	for _, col := range catalog {
		fmt.Fprintf(&b, "- %s (%s)\n", col.Name, col.Type)
	}

	b.WriteString("\nSAMPLE DATA (first 10 rows):\n")
	for i, r := range head(rows, promptSampleRows) {
		fmt.Fprintf(&b, "Row %d: %s\n", i+1, toJSON(r))
	}

	return b.String()
}

type widgetSummary struct {
	Type  dashboard.ComponentType `json:"type"`
	Title string                  `json:"title"`
	XAxis string                  `json:"x_axis,omitempty"`
	YAxis string                  `json:"y_axis,omitempty"`
}

func widgetSummaries(d *dashboard.Dashboard) []widgetSummary {
	out := []widgetSummary{}
	if d == nil {
		return out
	}
	for _, c := range d.Components {
		out = append(out, widgetSummary{Type: c.Type, Title: c.Title, XAxis: c.Config.XAxis, YAxis: c.Config.YAxis})
	}
	return out
}

type columnSummary struct {
	Mean        *float64      `json:"mean,omitempty"`
	Median      *float64      `json:"median,omitempty"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
	Sum         *float64      `json:"sum,omitempty"`
	Std         *float64      `json:"std,omitempty"`
	UniqueCount *int          `json:"unique_count,omitempty"`
	TopValues   []stats.Entry `json:"top_values,omitempty"`
}

type summary struct {
	TotalRows  int                      `json:"total_rows"`
	SampleData []dataset.Row            `json:"sample_data"`
	Columns    map[string]columnSummary `json:"column_statistics"`
}

func dataSummary(catalog dataset.Catalog, rows []dataset.Row) summary {
	s := summary{
		TotalRows:  len(rows),
		SampleData: head(rows, contextSampleRows),
		Columns:    map[string]columnSummary{},
	}

	b := catalog.Buckets()
	for _, col := range b.Numeric {
		xs := stats.Column(rows, col)
		if len(xs) == 0 {
			continue
		}
		d := stats.Describe(xs)
		s.Columns[col] = columnSummary{
			Mean: &d.Mean, Median: &d.Median, Min: &d.Min,
			Max: &d.Max, Sum: &d.Sum, Std: &d.Std,
		}
	}
	for _, col := range b.String {
		unique := stats.Unique(rows, col)
		s.Columns[col] = columnSummary{
			UniqueCount: &unique,
			TopValues:   stats.TopValues(rows, col, topValueCount),
		}
	}
	return s
}

func head(rows []dataset.Row, n int) []dataset.Row {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
