package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
)

const unmatchedExplanation = "I didn't understand that command. Please try rephrasing or be more specific."

type rule struct {
	match func(cmd string) bool
	build func(cmd string, catalog dataset.Catalog) Intent
}

var (
	visualizationKeywords = []string{"chart", "graph", "visualization", "visualize", "plot", "show", "display", "create", "add", "make", "generate"}
	removeKeywords        = []string{"remove", "delete", "drop"}
	filterKeywords        = []string{"filter", "show only", "top"}
	modifyKeywords        = []string{"change", "modify", "update", "switch"}

	metricKeywords   = []string{"revenue", "sales", "quantity", "amount", "price", "cost", "profit", "total", "sum", "count"}
	categoryKeywords = []string{"category", "region", "product", "date", "time", "month", "year", "day"}
)

// chartKeywords is checked in order, the first hit wins
var chartKeywords = []struct {
	word string
	kind dashboard.ComponentType
}{
	{"bar", dashboard.BarChart},
	{"line", dashboard.LineChart},
	{"pie", dashboard.PieChart},
	{"kpi", dashboard.KPI},
	{"metric", dashboard.KPI},
	{"total", dashboard.KPI},
	{"table", dashboard.Table},
}

var byPattern = regexp.MustCompile(`(\w+)\s+by\s+(\w+)`)

var rules = []rule{
	{match: containsAny(visualizationKeywords), build: addChartRule},
	{match: containsAny(removeKeywords), build: fixed(RemoveChart, "Removing component from dashboard")},
	{match: containsAny(filterKeywords), build: fixed(FilterData, "Applying filter to data")},
	{match: containsAny(modifyKeywords), build: fixed(ModifyChart, "Modifying chart as requested")},
	{match: containsAny([]string{"rename"}), build: fixed(RenameComponent, "Renaming component")},
}

// MatchRules maps a command to an intent with keyword rules alone. It is
// the path taken when no model is reachable and it never fails.
func MatchRules(command string, catalog dataset.Catalog) Intent {
	cmd := strings.ToLower(command)

	in := Intent{
		ActionType:  Unknown,
		Params:      UnknownParams{},
		Explanation: unmatchedExplanation,
	}
	for _, r := range rules {
		if r.match(cmd) {
			in = r.build(cmd, catalog)
			break
		}
	}

	in.Command = command
	in.Source = SourceRules
	return in
}

func containsAny(words []string) func(string) bool {
	return func(cmd string) bool {
		for _, w := range words {
			if strings.Contains(cmd, w) {
				return true
			}
		}
		return false
	}
}

func fixed(action ActionType, explanation string) func(string, dataset.Catalog) Intent {
	return func(string, dataset.Catalog) Intent {
		return Intent{
			ActionType:  action,
			Params:      EmptyParams(action),
			Explanation: explanation,
		}
	}
}

func addChartRule(cmd string, catalog dataset.Catalog) Intent {
	chartType := dashboard.BarChart
	for _, k := range chartKeywords {
		if strings.Contains(cmd, k.word) {
			chartType = k.kind
			break
		}
	}

	x, y := bindColumns(cmd, catalog)

	return Intent{
		ActionType: AddChart,
		Params: AddChartParams{
			ChartType: string(chartType),
			XAxis:     x,
			YAxis:     y,
		},
		Explanation: fmt.Sprintf("Adding %s to dashboard", chartType),
	}
}

func isCategory(t dataset.Type) bool {
	return t == dataset.String || t == dataset.Date
}

// bindColumns picks the x (category) and y (metric) columns for a chart
// command, trying progressively weaker signals.
func bindColumns(cmd string, catalog dataset.Catalog) (x, y string) {
	// "<metric> by <category>"
	if m := byPattern.FindStringSubmatch(cmd); m != nil {
		metric, category := m[1], m[2]
		for _, col := range catalog {
			name := strings.ToLower(col.Name)
			if (strings.Contains(name, metric) || strings.Contains(metric, name)) && col.Type == dataset.Numeric {
				y = col.Name
			}
			if (strings.Contains(name, category) || strings.Contains(category, name)) && isCategory(col.Type) {
				x = col.Name
			}
		}
	}

	// column names mentioned directly
	if x == "" || y == "" {
		for _, col := range catalog {
			name := strings.ToLower(col.Name)
			clean := strings.NewReplacer("_", " ", "-", " ").Replace(name)
			if !strings.Contains(cmd, name) && !strings.Contains(cmd, clean) {
				continue
			}
			if col.Type == dataset.Numeric && y == "" {
				y = col.Name
			} else if isCategory(col.Type) && x == "" {
				x = col.Name
			}
		}
	}

	if y == "" {
		y = keywordColumn(cmd, catalog, metricKeywords, func(t dataset.Type) bool { return t == dataset.Numeric })
	}
	if x == "" {
		x = keywordColumn(cmd, catalog, categoryKeywords, isCategory)
	}

	b := catalog.Buckets()
	if x == "" {
		x = dataset.First(b.Date)
		if x == "" {
			x = dataset.First(b.String)
		}
	}
	if y == "" {
		y = dataset.First(b.Numeric)
	}
	return x, y
}

func keywordColumn(cmd string, catalog dataset.Catalog, keywords []string, typeOK func(dataset.Type) bool) string {
	for _, kw := range keywords {
		if !strings.Contains(cmd, kw) {
			continue
		}
		for _, col := range catalog {
			if strings.Contains(strings.ToLower(col.Name), kw) && typeOK(col.Type) {
				return col.Name
			}
		}
	}
	return ""
}
