package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/stats"
)

func (a *App) renderDashboard() string {
	var b strings.Builder

	d := a.state.dashboard
	if d == nil {
		return a.centerVertically(styleSubtitle.Render("No dashboard loaded yet"))
	}

	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render(d.Title)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n")
	meta := fmt.Sprintf("%d components on a %dx%d grid", len(d.Components), d.Layout.Rows, dashboard.GridColumns)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleSubtitle.Render(meta)))
	b.WriteString("\n\n")

	comps := append([]dashboard.Component(nil), d.Components...)
	sort.SliceStable(comps, func(i, j int) bool {
		if comps[i].Position.Row != comps[j].Position.Row {
			return comps[i].Position.Row < comps[j].Position.Row
		}
		return comps[i].Position.Col < comps[j].Position.Col
	})

	var lines []string
	for _, c := range comps {
		pos := c.Position
		head := fmt.Sprintf("%-32s %-13s row %d col %d  %dx%d",
			truncate(c.Title, 32), c.Type, pos.Row, pos.Col, pos.Width, pos.Height)
		lines = append(lines, styleAssistant.Render(head))
		if detail := componentDetail(c); detail != "" {
			lines = append(lines, styleSubtitle.Render("  "+detail))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, styleSubtitle.Render("(no components)"))
	}

	box := styleBox.Copy().
		Width(min(90, a.width-4)).
		Render(strings.Join(lines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, box))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleStatusBar.Render("[Esc] Back")))

	return a.centerVertically(b.String())
}

// componentDetail summarizes a component's binding and materialized data
func componentDetail(c dashboard.Component) string {
	cfg := c.Config
	switch c.Type {
	case dashboard.KPI:
		if cfg.Value == nil {
			return cfg.YAxis
		}
		if f, ok := stats.ToFloat(cfg.Value); ok {
			return fmt.Sprintf("%s = %s", cfg.YAxis, styleSuccess.Render(fmt.Sprintf("%.2f", f)))
		}
		return fmt.Sprintf("%s = %v", cfg.YAxis, cfg.Value)
	case dashboard.Table:
		return fmt.Sprintf("%d columns, %d rows", len(cfg.Columns), len(cfg.Data))
	}

	if cfg.XAxis == "" && cfg.YAxis == "" {
		return ""
	}
	detail := fmt.Sprintf("%s by %s", cfg.YAxis, cfg.XAxis)
	if len(cfg.Data) > 0 {
		detail += fmt.Sprintf(", %d points", len(cfg.Data))
	}
	return detail
}
