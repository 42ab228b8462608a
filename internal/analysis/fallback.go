package analysis

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/stats"
)

const (
	maxFallbackItems = 10
	genericExplain   = "Chart analysis: This chart displays the selected metrics. Review the data to identify trends and patterns for informed decision-making."
)

var printer = message.NewPrinter(language.English)

// fallbackAnswer renders findings as text when no model is available
func fallbackAnswer(f Findings) string {
	var b strings.Builder
	b.WriteString("Based on the data analysis:\n\n")

	switch {
	case len(f.TopItems) > 0:
		metric := f.Metric
		if metric == "" {
			metric = "value"
		}
		printer.Fprintf(&b, "Top items by %s:\n", metric)
		for _, e := range stats.Head(f.TopItems, maxFallbackItems) {
			printer.Fprintf(&b, "- %s: %.2f\n", e.Label, e.Value)
		}
	case f.Kind == KindAverage && f.Value != nil:
		printer.Fprintf(&b, "Average %s: %.2f\n", f.Metric, *f.Value)
	case f.Kind == KindTotal && f.Value != nil:
		printer.Fprintf(&b, "Total %s: %.2f\n", f.Metric, *f.Value)
	case f.Count != nil:
		printer.Fprintf(&b, "Total records: %d\n", *f.Count)
		for col, n := range f.UniqueCount {
			printer.Fprintf(&b, "Unique %s: %d\n", col, n)
		}
	default:
		b.WriteString(toJSON(f))
		b.WriteString("\n")
	}

	return b.String()
}

// fallbackExplain summarizes a chart's grouped values when its axes resolve
func fallbackExplain(chart *dashboard.Component, rows []dataset.Row) string {
	if chart == nil || chart.Config.XAxis == "" || chart.Config.YAxis == "" {
		return genericExplain
	}

	entries := stats.GroupSum(rows, chart.Config.XAxis, chart.Config.YAxis)
	if len(entries) == 0 {
		return genericExplain
	}
	stats.SortDesc(entries)

	var b strings.Builder
	printer.Fprintf(&b, "Chart analysis: %s shows %s by %s across %d groups.\n\n",
		chart.Title, chart.Config.YAxis, chart.Config.XAxis, len(entries))
	for _, e := range stats.Head(entries, maxFallbackItems) {
		printer.Fprintf(&b, "- %s: %.2f\n", e.Label, e.Value)
	}

	total := 0.0
	for _, e := range entries {
		total += e.Value
	}
	if total != 0 {
		printer.Fprintf(&b, "\n%s leads with %.1f%% of the total.\n", entries[0].Label, entries[0].Value/total*100)
	}
	return b.String()
}
