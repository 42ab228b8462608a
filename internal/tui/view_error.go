package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/chartwise/internal/store"
)

func (a *App) renderError() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true).
		Render("Could not open the workspace")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	errMsg := "Unknown error"
	if a.state.connectErr != nil {
		errMsg = a.state.connectErr.Error()
	}

	errBox := styleBox.Copy().
		Width(min(60, a.width-4)).
		BorderForeground(colorError).
		Render(errMsg)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, errBox))
	b.WriteString("\n\n")

	if suggestions := suggestionsFor(a.state.connectErr); len(suggestions) > 0 {
		suggBox := styleBox.Copy().
			Width(min(60, a.width-4)).
			Render("Suggestions:\n" + strings.Join(suggestions, "\n"))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, suggBox))
		b.WriteString("\n\n")
	}

	status := styleStatusBar.Render("[r] Retry  [Esc] Quit")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}

func suggestionsFor(err error) []string {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return []string{
			"List dashboards with: chartwise dashboards",
			"Or create one with: chartwise generate <dataset-id>",
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		return []string{
			"Check your API key in ~/.config/chartwise/config.yaml",
			"Or set CHARTWISE_PROVIDER=offline to use rule matching",
		}
	case strings.Contains(msg, "ollama"):
		return []string{
			"Make sure Ollama is running: ollama serve",
			"Or switch to a cloud provider in your config",
		}
	case strings.Contains(msg, "connect") || strings.Contains(msg, "timeout"):
		return []string{"Check your network connection and try again"}
	case strings.Contains(msg, "database") || strings.Contains(msg, "sqlite"):
		return []string{"Check database.path in your config points to a writable file"}
	}
	return nil
}
