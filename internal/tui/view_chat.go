package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Loading messages shown while a command runs
var loadingMessages = []string{
	"Thinking...",
	"Reading the data...",
	"Crunching numbers...",
	"Sketching charts...",
}

const (
	headerHeight = 3 // title, dashboard line, blank
	footerHeight = 4 // input box and status bar
)

func (a *App) chatWidth() int {
	w := min(90, a.width-4)
	if w < 20 {
		w = 20
	}
	return w
}

func (a *App) resize() {
	h := a.height - headerHeight - footerHeight
	if h < 5 {
		h = 5
	}
	a.state.viewport.Width = a.chatWidth()
	a.state.viewport.Height = h
	a.state.input.Width = a.chatWidth() - 6
	a.refreshViewport()
}

func (a *App) refreshViewport() {
	a.state.viewport.SetContent(a.renderMessages())
	a.state.viewport.GotoBottom()
}

func (a *App) renderMessages() string {
	width := a.chatWidth()
	var blocks []string

	for i := range a.state.history {
		msg := &a.state.history[i]
		switch msg.role {
		case roleUser:
			lines := strings.Split(wrapText(msg.content, width-4), "\n")
			for i, line := range lines {
				prefix := "> "
				if i > 0 {
					prefix = "  "
				}
				lines[i] = styleUser.Render(prefix + line)
			}
			blocks = append(blocks, strings.Join(lines, "\n"))
		case roleAssistant:
			if msg.failed {
				blocks = append(blocks, styleFailure.Render(wrapText(msg.content, width-4)))
				continue
			}
			if msg.renderedWidth != width {
				msg.rendered = renderMarkdown(msg.content, width)
				msg.renderedWidth = width
			}
			blocks = append(blocks, msg.rendered)
		default:
			style := styleSubtitle
			if msg.failed {
				style = styleFailure
			}
			blocks = append(blocks, style.Render(wrapText(msg.content, width-4)))
		}
	}

	if a.state.busy {
		elapsed := time.Since(a.state.busySince).Seconds()
		loading := loadingMessages[int(elapsed/2)%len(loadingMessages)]
		blocks = append(blocks, fmt.Sprintf("%s %s", a.state.spinner.View(), styleSpinner.Render(loading)))
	}

	return strings.Join(blocks, "\n\n")
}

// renderMarkdown renders assistant text through glamour, falling back to
// plain wrapped text when rendering fails.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return styleAssistant.Render(wrapText(text, width-4))
	}
	out, err := r.Render(text)
	if err != nil {
		return styleAssistant.Render(wrapText(text, width-4))
	}
	return strings.Trim(out, "\n")
}

func (a *App) renderChat() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("chartwise")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n")

	info := "connecting..."
	if d := a.state.dashboard; d != nil {
		info = fmt.Sprintf("%s  |  %d components  |  %s", d.Title, len(d.Components), a.providerLabel())
	}
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleSubtitle.Render(info)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, a.state.viewport.View()))
	b.WriteString("\n")

	inputBox := styleBox.Copy().
		Width(a.chatWidth()).
		BorderForeground(colorMuted).
		Render(a.state.input.View())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, inputBox))
	b.WriteString("\n")

	status := "[Enter] Send  [PgUp/PgDn] Scroll  /dashboard  /help  [Esc] Quit"
	if a.state.busy {
		status = fmt.Sprintf("Working... %.1fs", time.Since(a.state.busySince).Seconds())
	}
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleStatusBar.Render(status)))

	return b.String()
}

func (a *App) providerLabel() string {
	if a.state.config == nil {
		return ""
	}
	if a.state.config.Model == "" {
		return a.state.config.Provider
	}
	return fmt.Sprintf("%s via %s", a.state.config.Model, a.state.config.Provider)
}

// wrapText wraps text to fit within maxWidth, preserving words and line
// breaks.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 60
	}

	var out []string
	for _, para := range strings.Split(text, "\n") {
		if len(para) <= maxWidth {
			out = append(out, para)
			continue
		}

		var line strings.Builder
		for _, word := range strings.Fields(para) {
			if line.Len() > 0 && line.Len()+1+len(word) > maxWidth {
				out = append(out, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteString(" ")
			}
			line.WriteString(word)
		}
		out = append(out, line.String())
	}
	return strings.Join(out, "\n")
}
