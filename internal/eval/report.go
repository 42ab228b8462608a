package eval

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes a results table followed by the summary
func Render(w io.Writer, results []Result, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Command", "Action", "OK", "Score", "Tool", "Latency (ms)", "Cost ($)"})
	for _, r := range results {
		t.AppendRow(table.Row{
			truncate(r.Command, 48),
			r.ActionType,
			mark(r.Success),
			fmt.Sprintf("%.2f", r.Correctness),
			mark(r.ToolCorrect),
			fmt.Sprintf("%.0f", r.LatencyMs()),
			fmt.Sprintf("%.6f", r.Cost),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()

	st := table.NewWriter()
	st.SetOutputMirror(w)
	st.SetStyle(table.StyleLight)
	st.SetTitle("Summary")
	st.AppendRows([]table.Row{
		{"Tasks", s.TotalTasks},
		{"Success rate", percent(s.SuccessRate)},
		{"Tool accuracy", percent(s.ToolAccuracy)},
		{"Avg correctness", fmt.Sprintf("%.2f", s.AvgCorrectness)},
		{"Avg latency (ms)", fmt.Sprintf("%.0f", s.AvgLatencyMs)},
		{"Avg tokens", fmt.Sprintf("%.0f", s.AvgReasoning.Total)},
		{"Total cost ($)", fmt.Sprintf("%.6f", s.TotalCost)},
	})
	st.Render()

	if len(s.ByActionType) == 0 {
		return
	}
	keys := make([]string, 0, len(s.ByActionType))
	for k := range s.ByActionType {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bt := table.NewWriter()
	bt.SetOutputMirror(w)
	bt.SetStyle(table.StyleLight)
	bt.AppendHeader(table.Row{"Action type", "Count", "Success", "Avg latency (ms)"})
	for _, k := range keys {
		m := s.ByActionType[k]
		bt.AppendRow(table.Row{k, m.Count, percent(m.SuccessRate), fmt.Sprintf("%.0f", m.AvgLatencyMs)})
	}
	bt.Render()
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func percent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
