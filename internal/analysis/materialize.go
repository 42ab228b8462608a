package analysis

import (
	"slices"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/stats"
)

const (
	maxBarGroups   = 10
	maxTableRows   = 100
	maxScatterRows = 500
	tablePageSize  = 10
)

// Materialize computes the rendered data of a component from the dataset
// rows. The component is returned by value; the input is not modified.
func Materialize(c dashboard.Component, rows []dataset.Row) dashboard.Component {
	x, y := c.Config.XAxis, c.Config.YAxis

	switch c.Type {
	case dashboard.KPI:
		if y != "" {
			c.Config.Value = stats.Sum(stats.Column(rows, y))
		}

	case dashboard.BarChart, dashboard.PieChart:
		if x == "" || y == "" {
			break
		}
		entries := stats.GroupSum(rows, x, y)
		stats.SortDesc(entries)
		c.Config.Data = records(stats.Head(entries, maxBarGroups), x, y)

	case dashboard.LineChart:
		if x == "" || y == "" {
			break
		}
		entries := stats.GroupSum(rows, x, y)
		stats.SortByLabel(entries)
		c.Config.Data = records(entries, x, y)

	case dashboard.ScatterChart:
		if x == "" || y == "" {
			break
		}
		var data []map[string]any
		for _, r := range head(rows, maxScatterRows) {
			xv, okx := stats.ToFloat(r[x])
			yv, oky := stats.ToFloat(r[y])
			if okx && oky {
				data = append(data, map[string]any{x: xv, y: yv})
			}
		}
		c.Config.Data = data

	case dashboard.Table:
		if len(c.Config.Columns) == 0 && len(rows) > 0 {
			c.Config.Columns = columnsOf(rows[0])
		}
		data := make([]map[string]any, 0, min(len(rows), maxTableRows))
		for _, r := range head(rows, maxTableRows) {
			rec := make(map[string]any, len(r))
			for k, v := range r {
				rec[k] = v
			}
			data = append(data, rec)
		}
		c.Config.Data = data
		if c.Config.PageSize == 0 {
			c.Config.PageSize = tablePageSize
		}
	}

	return c
}

// MaterializeAll fills every component of d in place
func MaterializeAll(d *dashboard.Dashboard, catalog dataset.Catalog, rows []dataset.Row) {
	for i, c := range d.Components {
		if c.Type == dashboard.Table && len(c.Config.Columns) == 0 {
			c.Config.Columns = catalog.Names()
		}
		d.Components[i] = Materialize(c, rows)
	}
}

func records(entries []stats.Entry, x, y string) []map[string]any {
	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{x: e.Label, y: e.Value}
	}
	return out
}

func columnsOf(r dataset.Row) []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}
