package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/chartwise/internal/config"
)

const logo = `      _                _            _
  ___| |__   __ _ _ __| |___      _(_)___  ___
 / __| '_ \ / _' | '__| __\ \ /\ / / / __|/ _ \
| (__| | | | (_| | |  | |_ \ V  V /| \__ \  __/
 \___|_| |_|\__,_|_|   \__| \_/\_/ |_|___/\___|`

func (a *App) renderSetup() string {
	switch a.state.setupStep {
	case 0:
		return a.renderProviderSelection()
	case 1:
		provider := config.GetProvider(a.state.config.Provider)
		title := "Enter your API key:"
		link := ""
		if provider != nil {
			title = fmt.Sprintf("Enter your %s API key:", provider.Name)
			if provider.SignupURL != "" {
				link = fmt.Sprintf("Get one at: %s", provider.SignupURL)
			}
		}
		return a.renderSetupInput(title, link, a.state.apiKeyInput)
	case 2:
		return a.renderSetupInput("Enter the base URL of your OpenAI-compatible server:", "", a.state.baseURLInput)
	default:
		return ""
	}
}

func (a *App) renderProviderSelection() string {
	var b strings.Builder

	// Header
	header := styleLogo.Render(logo)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, header))
	b.WriteString("\n\n")

	title := lipgloss.NewStyle().
		Foreground(colorWhite).
		Bold(true).
		Render("Welcome! Choose how commands are interpreted:")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	var providerLines []string
	for i, p := range config.Providers {
		if i == a.state.selectedProvider {
			providerLines = append(providerLines, lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				Render(fmt.Sprintf("> [x] %-12s %s", p.Name, p.Description)))
			continue
		}
		providerLines = append(providerLines, lipgloss.NewStyle().
			Foreground(colorMuted).
			Render(fmt.Sprintf("  [ ] %-12s %s", p.Name, p.Description)))
	}

	providerBox := styleBox.Copy().
		Width(54).
		Render(strings.Join(providerLines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, providerBox))
	b.WriteString("\n\n")

	b.WriteString(a.renderSetupError())

	instructions := styleStatusBar.Render("[j/k] Navigate  [Enter] Select")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func (a *App) renderSetupInput(title, link string, input textinput.Model) string {
	var b strings.Builder

	header := styleLogo.Render(logo)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, header))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(colorWhite).Bold(true).Render(title)))
	b.WriteString("\n\n")

	if link != "" {
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleSubtitle.Render(link)))
		b.WriteString("\n\n")
	}

	inputBox := styleBox.Copy().
		Width(60).
		BorderForeground(colorSecondary).
		Render(input.View())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, inputBox))
	b.WriteString("\n\n")

	b.WriteString(a.renderSetupError())

	instructions := styleStatusBar.Render("[Enter] Continue  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func (a *App) renderSetupError() string {
	if a.state.setupError == nil {
		return ""
	}
	msg := styleFailure.Render(a.state.setupError.Error())
	return lipgloss.PlaceHorizontal(a.width, lipgloss.Center, msg) + "\n\n"
}
