// Package compiler turns validated intents into concrete dashboard actions.
package compiler

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sant0-9/chartwise/internal/analysis"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/intent"
)

var questionIndicators = []string{"what", "which", "how many", "how much", "what's", "what are", "show me the", "tell me"}

// Suggestions are offered when a command maps to no action
var Suggestions = []string{
	"Try: 'Create a bar chart showing [metric] by [category]'",
	"Try: 'Show me [metric]'",
	"Try: 'Display total [metric]'",
	"Try: 'Add a line chart for [metric] over time'",
	"Try: 'Show KPIs for [metric]'",
	"Try: 'What are the top 5 [items] by [metric]?'",
	"Try: 'What's the average [metric]?'",
	"Try: 'Which [category] has the highest [metric]?'",
}

var topNPattern = regexp.MustCompile(`top\s+(\d+)`)

var titler = cases.Title(language.English)

// Input is everything a compilation reads. Nothing in it is modified.
type Input struct {
	Intent    intent.Intent
	Dashboard *dashboard.Dashboard
	Catalog   dataset.Catalog
	Rows      []dataset.Row
}

type Compiler struct {
	analysis *analysis.Engine
	ids      func() string
}

type Option func(*Compiler)

// WithIDs replaces the component id generator
func WithIDs(ids func() string) Option {
	return func(c *Compiler) {
		c.ids = ids
	}
}

func New(engine *analysis.Engine, opts ...Option) *Compiler {
	c := &Compiler{
		analysis: engine,
		ids:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewID returns a fresh component id from the compiler's generator
func (c *Compiler) NewID() string {
	return c.ids()
}

// EffectiveType is the action type the compiler will dispatch on. Unknown
// intents that read like a question become answer_question.
func EffectiveType(in intent.Intent) intent.ActionType {
	return rescue(in).ActionType
}

func rescue(in intent.Intent) intent.Intent {
	if in.ActionType != intent.Unknown {
		return in
	}

	explanation := strings.ToLower(in.Explanation)
	command := strings.ToLower(in.Command)
	if !isQuestion(explanation) && !isQuestion(command) {
		return in
	}

	// a canned explanation such as the rule matcher's is not a question
	question := in.Explanation
	if !isQuestion(explanation) {
		question = command
	}
	in.ActionType = intent.AnswerQuestion
	in.Params = intent.AnswerQuestionParams{Question: question}
	return in
}

func isQuestion(s string) bool {
	for _, ind := range questionIndicators {
		if strings.Contains(s, ind) {
			return true
		}
	}
	return false
}

// Compile produces the action for one intent. It never fails; problems are
// reported as unsuccessful actions.
func (c *Compiler) Compile(ctx context.Context, in Input) Action {
	it := rescue(in.Intent)
	d := in.Dashboard
	if d == nil {
		d = &dashboard.Dashboard{}
	}
	cols := in.Catalog.Buckets()

	params := it.Parameters()
	if params.Action() != it.ActionType {
		params = intent.EmptyParams(it.ActionType)
	}

	switch p := params.(type) {
	case intent.AddChartParams:
		return c.addChart(it, p, d, cols)
	case intent.ModifyChartParams:
		return modifyChart(it, p, d)
	case intent.RemoveChartParams:
		return removeChart(it, d)
	case intent.FilterParams:
		return filter(it, p)
	case intent.TransformParams:
		return transform(it, p)
	case intent.UpdateKPIParams:
		return updateKPI(it, p, d)
	case intent.RenameParams:
		return rename(it, p, d)
	case intent.GenerateDashboardParams:
		return c.generateDashboard(it, p, d, cols)
	case intent.ExplainChartParams:
		return c.explainChart(ctx, it, p, d, in)
	case intent.AnswerQuestionParams:
		return c.answerQuestion(ctx, it, p, d, in)
	default:
		return unknown(it)
	}
}

func explain(it intent.Intent, fallback string) string {
	if it.Explanation != "" {
		return it.Explanation
	}
	return fallback
}

// title renders a column or type name the way chart titles show it
func title(name string) string {
	return titler.String(strings.ReplaceAll(name, "_", " "))
}

func normalizeChartType(t string, allowed ...dashboard.ComponentType) dashboard.ComponentType {
	for _, a := range allowed {
		if dashboard.ComponentType(t) == a {
			return a
		}
	}
	return dashboard.BarChart
}

func (c *Compiler) addChart(it intent.Intent, p intent.AddChartParams, d *dashboard.Dashboard, cols dataset.Buckets) Action {
	chartType := normalizeChartType(p.ChartType,
		dashboard.BarChart, dashboard.LineChart, dashboard.PieChart, dashboard.KPI, dashboard.Table, dashboard.ScatterChart)

	x, y := p.XAxis, p.YAxis
	if x == "" {
		x = dataset.First(cols.String)
	}
	if y == "" {
		y = dataset.First(cols.Numeric)
	}

	switch chartType {
	case dashboard.BarChart, dashboard.LineChart:
		if x == "" || y == "" {
			return failure(ErrMissingRequiredColumn, "Cannot create chart: missing required columns")
		}
	case dashboard.PieChart:
		if x == "" || y == "" {
			if len(cols.String) == 0 || len(cols.Numeric) == 0 {
				return failure(ErrInsufficientColumns, "Cannot create pie chart: insufficient columns")
			}
			x, y = cols.String[0], cols.Numeric[0]
		}
	}

	name := p.Title
	if name == "" {
		if x != "" && y != "" {
			name = fmt.Sprintf("%s by %s", title(y), title(x))
		} else {
			name = "New " + title(string(chartType))
		}
	}

	aggregation := p.Aggregation
	if aggregation == "" {
		aggregation = "sum"
	}

	comp := dashboard.Component{
		ID:    c.ids(),
		Type:  chartType,
		Title: name,
		Config: dashboard.Config{
			XAxis:       x,
			YAxis:       y,
			Aggregation: aggregation,
		},
		Position: dashboard.Position{Row: nextRow(d), Col: 0, Width: 2, Height: 2},
	}

	return Action{
		Success:     true,
		Kind:        AddComponent,
		Component:   &comp,
		Explanation: explain(it, fmt.Sprintf("Added %s to dashboard", chartType)),
	}
}

func modifyChart(it intent.Intent, p intent.ModifyChartParams, d *dashboard.Dashboard) Action {
	target, missing := explicitTarget(it, d)
	if missing {
		return unknownTarget(it.TargetComponent)
	}
	if target == "" {
		for _, c := range d.Components {
			if c.Type.IsChart() {
				target = c.ID
				break
			}
		}
		if target == "" && len(d.Components) > 0 {
			target = d.Components[0].ID
		}
		if target == "" {
			return failure(ErrNoTargetComponent, "No components found in dashboard")
		}
	}

	var patch dashboard.Patch
	switch t := dashboard.ComponentType(p.Type); t {
	case dashboard.BarChart, dashboard.LineChart, dashboard.PieChart, dashboard.ScatterChart:
		patch.Type = &t
	}
	if p.Title != nil {
		patch.Title = p.Title
	}
	if p.XAxis != nil || p.YAxis != nil {
		patch.Config = &dashboard.ConfigPatch{XAxis: p.XAxis, YAxis: p.YAxis}
	}

	if patch.Empty() {
		return failure(ErrNoUpdateSpecified, "Please specify what to modify (type, title, axes, etc.)")
	}

	return Action{
		Success:     true,
		Kind:        UpdateComponent,
		ComponentID: target,
		Updates:     &patch,
		Explanation: explain(it, "Modified chart"),
	}
}

// explicitTarget returns the intent's target id. missing is set when an id
// was named but no component on d carries it.
func explicitTarget(it intent.Intent, d *dashboard.Dashboard) (id string, missing bool) {
	if it.TargetComponent == "" {
		return "", false
	}
	if _, ok := d.Find(it.TargetComponent); !ok {
		return "", true
	}
	return it.TargetComponent, false
}

func unknownTarget(id string) Action {
	return failure(ErrNoTargetComponent, fmt.Sprintf("No component with id '%s' in dashboard", id))
}

// nextRow is the first grid row below every existing component
func nextRow(d *dashboard.Dashboard) int {
	return max(len(d.Components), d.RowCount())
}

func removeChart(it intent.Intent, d *dashboard.Dashboard) Action {
	target, missing := explicitTarget(it, d)
	if missing {
		return unknownTarget(it.TargetComponent)
	}
	if target == "" {
		if len(d.Components) == 0 {
			return failure(ErrNoTargetComponent, "No components found in dashboard")
		}
		target = d.Components[len(d.Components)-1].ID
	}

	return Action{
		Success:     true,
		Kind:        RemoveComponent,
		ComponentID: target,
		Explanation: explain(it, "Removed component"),
	}
}

func filter(it intent.Intent, p intent.FilterParams) Action {
	f := Filter{
		Column:   p.Column,
		Operator: p.Operator,
		Value:    p.Value,
		Limit:    p.Limit,
		SortBy:   p.SortBy,
		Order:    p.Order,
	}
	if f.Operator == "" {
		f.Operator = "eq"
	}
	if f.Order == "" {
		f.Order = "desc"
	}
	if m := topNPattern.FindStringSubmatch(strings.ToLower(it.Explanation)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Limit = &n
		}
	}

	return Action{
		Success:     true,
		Kind:        ApplyFilter,
		Filter:      &f,
		Explanation: explain(it, "Applied filter to data"),
	}
}

func transform(it intent.Intent, p intent.TransformParams) Action {
	spec := p.Spec
	if spec == nil {
		spec = map[string]any{}
	}
	return Action{
		Success:        true,
		Kind:           ApplyTransformation,
		Transformation: spec,
		Explanation:    explain(it, "Applied transformation to data"),
	}
}

func updateKPI(it intent.Intent, p intent.UpdateKPIParams, d *dashboard.Dashboard) Action {
	target, missing := explicitTarget(it, d)
	if missing {
		return unknownTarget(it.TargetComponent)
	}
	if target == "" {
		for _, c := range d.Components {
			if c.Type == dashboard.KPI {
				target = c.ID
				break
			}
		}
		if target == "" {
			return failure(ErrNoTargetComponent, "No KPI cards in dashboard to update")
		}
	}

	var patch dashboard.Patch
	if p.HasValue {
		patch.Config = &dashboard.ConfigPatch{Value: p.Value, HasValue: true}
	}
	if p.Title != nil {
		patch.Title = p.Title
	}

	return Action{
		Success:     true,
		Kind:        UpdateComponent,
		ComponentID: target,
		Updates:     &patch,
		Explanation: explain(it, "Updated KPI"),
	}
}

func rename(it intent.Intent, p intent.RenameParams, d *dashboard.Dashboard) Action {
	if p.Title == "" {
		return failure(ErrNoUpdateSpecified, "Please specify the new title for the component")
	}

	target, missing := explicitTarget(it, d)
	if missing {
		return unknownTarget(it.TargetComponent)
	}
	if target == "" {
		if len(d.Components) == 0 {
			return failure(ErrNoTargetComponent, "No components found in dashboard")
		}
		target = d.Components[0].ID
	}

	newTitle := p.Title
	return Action{
		Success:     true,
		Kind:        UpdateComponent,
		ComponentID: target,
		Updates:     &dashboard.Patch{Title: &newTitle},
		Explanation: explain(it, fmt.Sprintf("Renamed component to '%s'", newTitle)),
	}
}

func (c *Compiler) generateDashboard(it intent.Intent, p intent.GenerateDashboardParams, d *dashboard.Dashboard, cols dataset.Buckets) Action {
	var components []dashboard.Component
	if len(p.Widgets) > 0 {
		components = c.widgets(p.Widgets, nextRow(d), cols)
	} else {
		components = c.Synthesize(nextRow(d), cols)
	}

	return Action{
		Success:     true,
		Kind:        AddMultipleComponents,
		Components:  components,
		Explanation: explain(it, fmt.Sprintf("Generated comprehensive dashboard with %d widgets", len(components))),
	}
}

// widgets lays out explicitly requested widgets three to a row
func (c *Compiler) widgets(specs []intent.WidgetSpec, row int, cols dataset.Buckets) []dashboard.Component {
	out := make([]dashboard.Component, 0, len(specs))
	for i, w := range specs {
		kind := w.ChartType
		if kind == "" {
			kind = string(dashboard.BarChart)
		}
		x, y := w.XAxis, w.YAxis

		switch kind {
		case string(dashboard.BarChart), string(dashboard.LineChart):
			if x == "" {
				x = dataset.First(cols.String)
			}
			if y == "" {
				y = dataset.First(cols.Numeric)
			}
		case string(dashboard.KPI):
			if y == "" {
				y = dataset.First(cols.Numeric)
			}
		}

		name := w.Title
		if name == "" {
			switch {
			case x != "" && y != "":
				name = fmt.Sprintf("%s by %s", title(y), title(x))
			case y != "":
				name = "Total " + title(y)
			default:
				name = title(kind)
			}
		}

		height := 2
		if kind == string(dashboard.KPI) {
			height = 1
		}

		out = append(out, dashboard.Component{
			ID:    c.ids(),
			Type:  normalizeChartType(kind, dashboard.BarChart, dashboard.LineChart, dashboard.PieChart, dashboard.KPI, dashboard.Table),
			Title: name,
			Config: dashboard.Config{
				XAxis:       x,
				YAxis:       y,
				Aggregation: "sum",
			},
			Position: dashboard.Position{
				Row:    row + i/3,
				Col:    (i % 3) * 4,
				Width:  4,
				Height: height,
			},
		})
	}
	return out
}

// Synthesize builds a starter layout from the column types alone: up to
// three KPI cards, up to two bar charts and a trend line when a date column
// exists. Placement starts at grid row row.
func (c *Compiler) Synthesize(row int, cols dataset.Buckets) []dashboard.Component {
	var out []dashboard.Component
	col := 0

	for _, n := range head(cols.Numeric, 3) {
		out = append(out, dashboard.Component{
			ID:       c.ids(),
			Type:     dashboard.KPI,
			Title:    "Total " + title(n),
			Config:   dashboard.Config{YAxis: n, Aggregation: "sum"},
			Position: dashboard.Position{Row: row, Col: col, Width: 4, Height: 1},
		})
		col += 4
		if col >= dashboard.GridColumns {
			col = 0
			row++
		}
	}

	if len(cols.String) > 0 && len(cols.Numeric) > 0 {
		metric := cols.Numeric[0]
		for _, s := range head(cols.String, 2) {
			if col+6 > dashboard.GridColumns {
				col = 0
				row += 2
			}
			out = append(out, dashboard.Component{
				ID:       c.ids(),
				Type:     dashboard.BarChart,
				Title:    fmt.Sprintf("%s by %s", title(metric), title(s)),
				Config:   dashboard.Config{XAxis: s, YAxis: metric, Aggregation: "sum"},
				Position: dashboard.Position{Row: row, Col: col, Width: 6, Height: 2},
			})
			col += 6
		}
	}

	if len(cols.Date) > 0 && len(cols.Numeric) > 0 {
		if col+6 > dashboard.GridColumns {
			col = 0
			row += 2
		}
		metric := cols.Numeric[0]
		out = append(out, dashboard.Component{
			ID:       c.ids(),
			Type:     dashboard.LineChart,
			Title:    title(metric) + " Trend",
			Config:   dashboard.Config{XAxis: cols.Date[0], YAxis: metric, Aggregation: "sum"},
			Position: dashboard.Position{Row: row, Col: col, Width: 6, Height: 2},
		})
	}

	return out
}

func head(names []string, n int) []string {
	if len(names) > n {
		return names[:n]
	}
	return names
}

func (c *Compiler) explainChart(ctx context.Context, it intent.Intent, p intent.ExplainChartParams, d *dashboard.Dashboard, in Input) Action {
	chartID := p.ChartID
	if chartID == "" {
		chartID = it.TargetComponent
	}

	res := c.analysis.Explain(ctx, chartID, p.Question, d, in.Catalog, in.Rows)
	if res.NoData {
		return failure(ErrNoDataAvailable, res.Text)
	}

	return Action{
		Success:     true,
		Kind:        ExplainChart,
		ChartID:     res.ChartID,
		Question:    p.Question,
		Explanation: res.Text,
		Insights:    res.Text,
	}
}

func (c *Compiler) answerQuestion(ctx context.Context, it intent.Intent, p intent.AnswerQuestionParams, d *dashboard.Dashboard, in Input) Action {
	question := p.Question
	if question == "" {
		question = it.Explanation
	}

	res := c.analysis.Answer(ctx, question, d, in.Catalog, in.Rows)
	if res.NoData {
		return failure(ErrNoDataAvailable, res.Text)
	}

	return Action{
		Success:     true,
		Kind:        AnswerQuestion,
		Question:    question,
		Explanation: res.Text,
		Analysis:    res.Findings,
	}
}

func unknown(it intent.Intent) Action {
	var b strings.Builder
	b.WriteString(explain(it, "I didn't understand that command."))
	b.WriteString("\n\nAvailable commands:")
	for _, s := range Suggestions {
		b.WriteString("\n- ")
		b.WriteString(s)
	}

	a := failure(ErrUnrecognizedActionType, b.String())
	a.Suggestions = append([]string(nil), Suggestions...)
	return a
}
