// Package tui is the terminal chat interface for editing a dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sant0-9/chartwise/internal/config"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/pipeline"
)

const chatTimeout = 2 * time.Minute

type view int

const (
	viewSetup view = iota
	viewChat
	viewDashboard
	viewHelp
	viewError
)

// ConnectFunc builds the workspace pipeline from a config
type ConnectFunc func(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, error)

type Options struct {
	Config      *config.Config
	ConfigPath  string
	NeedsSetup  bool
	DashboardID string
	Connect     ConnectFunc
}

type App struct {
	width    int
	height   int
	view     view
	state    *state
	connect  ConnectFunc
	quitting bool
}

func NewApp(opts Options) *App {
	s := newState()
	s.config = opts.Config
	if s.config == nil {
		s.config = config.DefaultConfig()
		s.needsSetup = true
	}
	s.needsSetup = s.needsSetup || opts.NeedsSetup
	s.configPath = opts.ConfigPath
	s.dashboardID = opts.DashboardID

	return &App{
		view:    viewChat,
		state:   s,
		connect: opts.Connect,
	}
}

func (a *App) Init() tea.Cmd {
	if a.state.needsSetup {
		a.view = viewSetup
		return tea.Batch(tea.WindowSize(), textinput.Blink)
	}
	return tea.Batch(tea.WindowSize(), textinput.Blink, a.connectCmd())
}

func (a *App) connectCmd() tea.Cmd {
	cfg := a.state.config
	dashboardID := a.state.dashboardID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if a.connect == nil {
			return connectErrorMsg{fmt.Errorf("no workspace configured")}
		}
		p, err := a.connect(ctx, cfg)
		if err != nil {
			return connectErrorMsg{err}
		}
		d, err := p.Store().GetDashboard(ctx, dashboardID)
		if err != nil {
			return connectErrorMsg{err}
		}
		return connectedMsg{pipeline: p, dashboard: d}
	}
}

// chatCmd runs one command through the pipeline off the UI goroutine
func (a *App) chatCmd(command string) tea.Cmd {
	p := a.state.pipeline
	sessionID := a.state.sessionID
	dashboardID := a.state.dashboardID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
		defer cancel()

		res, err := p.Chat(ctx, sessionID, dashboardID, command)
		if err != nil {
			return chatErrorMsg{err}
		}
		return chatResultMsg{res}
	}
}

type setupCompleteMsg struct{}
type setupErrorMsg struct{ error }
type connectedMsg struct {
	pipeline  *pipeline.Pipeline
	dashboard *dashboard.Dashboard
}
type connectErrorMsg struct{ error }
type chatResultMsg struct{ result *pipeline.ChatResult }
type chatErrorMsg struct{ error }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()

	case setupCompleteMsg:
		a.state.needsSetup = false
		a.state.setupError = nil
		a.view = viewChat
		return a, a.connectCmd()

	case setupErrorMsg:
		a.state.setupError = msg.error
		return a, nil

	case connectedMsg:
		a.state.pipeline = msg.pipeline
		a.state.dashboard = msg.dashboard
		a.state.connectErr = nil
		a.state.input.Focus()
		a.addMessage(roleSystem, fmt.Sprintf("Editing %q (%d components). Type /help for commands.",
			msg.dashboard.Title, len(msg.dashboard.Components)), false)
		return a, textinput.Blink

	case connectErrorMsg:
		a.state.connectErr = msg.error
		a.view = viewError
		return a, nil

	case chatResultMsg:
		a.state.busy = false
		res := msg.result
		a.state.sessionID = res.SessionID
		a.state.dashboard = res.Dashboard
		action := res.Response.Action
		a.addMessage(roleAssistant, action.Explanation, !action.Success)
		return a, nil

	case chatErrorMsg:
		a.state.busy = false
		a.addMessage(roleAssistant, "Error: "+msg.Error(), true)
		return a, nil

	case spinner.TickMsg:
		if !a.state.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.state.spinner, cmd = a.state.spinner.Update(msg)
		a.refreshViewport()
		return a, cmd
	}

	switch a.view {
	case viewSetup:
		var cmd tea.Cmd
		switch a.state.setupStep {
		case 1:
			a.state.apiKeyInput, cmd = a.state.apiKeyInput.Update(msg)
		case 2:
			a.state.baseURLInput, cmd = a.state.baseURLInput.Update(msg)
		}
		cmds = append(cmds, cmd)
	case viewChat:
		var cmd tea.Cmd
		if !a.state.busy {
			a.state.input, cmd = a.state.input.Update(msg)
			cmds = append(cmds, cmd)
		}
		a.state.viewport, cmd = a.state.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// handleKey processes global and view keys. It reports whether the key was
// consumed so it is not also typed into an input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Quit):
		a.quitting = true
		return tea.Quit, true

	case key.Matches(msg, keys.Back):
		switch a.view {
		case viewDashboard, viewHelp:
			a.view = viewChat
			return nil, true
		case viewSetup:
			if a.state.setupStep > 0 {
				a.state.setupStep = 0
				a.state.apiKeyInput.Reset()
				a.state.baseURLInput.Reset()
				return nil, true
			}
		}
		a.quitting = true
		return tea.Quit, true
	}

	switch a.view {
	case viewSetup:
		return a.handleSetupKey(msg)
	case viewChat:
		if key.Matches(msg, keys.Enter) {
			return a.handleInput(), true
		}
	case viewError:
		if msg.String() == "r" {
			a.view = viewChat
			return a.connectCmd(), true
		}
	}
	return nil, false
}

func (a *App) handleInput() tea.Cmd {
	input := strings.TrimSpace(a.state.input.Value())
	if input == "" || a.state.busy {
		return nil
	}
	a.state.input.Reset()

	if strings.HasPrefix(input, "/") {
		return a.handleSlash(strings.ToLower(input))
	}

	if a.state.pipeline == nil {
		a.addMessage(roleSystem, "Still connecting, try again in a moment.", true)
		return nil
	}

	a.addMessage(roleUser, input, false)
	a.state.busy = true
	a.state.busySince = time.Now()
	return tea.Batch(a.state.spinner.Tick, a.chatCmd(input))
}

func (a *App) handleSlash(cmd string) tea.Cmd {
	switch cmd {
	case "/help", "/h":
		a.view = viewHelp
	case "/dashboard", "/d":
		a.view = viewDashboard
	case "/history":
		a.showHistory()
	case "/clear":
		a.state.history = nil
		if a.state.pipeline != nil {
			if sess, ok := a.state.pipeline.Sessions().Lookup(a.state.sessionID); ok {
				sess.Clear()
			}
		}
		a.refreshViewport()
	case "/quit", "/q":
		a.quitting = true
		return tea.Quit
	default:
		a.addMessage(roleSystem, fmt.Sprintf("Unknown command %s. Type /help for commands.", cmd), true)
	}
	return nil
}

func (a *App) showHistory() {
	if a.state.pipeline == nil || a.state.sessionID == "" {
		a.addMessage(roleSystem, "No commands yet.", false)
		return
	}
	sess, ok := a.state.pipeline.Sessions().Lookup(a.state.sessionID)
	if !ok || sess.Len() == 0 {
		a.addMessage(roleSystem, "No commands yet.", false)
		return
	}

	var b strings.Builder
	b.WriteString("Session history:")
	for i, e := range sess.History() {
		status := "ok"
		if !e.Action.Success {
			status = string(e.Action.Error)
		}
		fmt.Fprintf(&b, "\n%d. %s  [%s, %s, %dms]", i+1, e.Command, e.Intent.ActionType, status, e.Latency.Milliseconds())
	}
	a.addMessage(roleSystem, b.String(), false)
}

func (a *App) handleSetupKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch a.state.setupStep {
	case 0: // Provider selection
		switch {
		case key.Matches(msg, keys.Up):
			if a.state.selectedProvider > 0 {
				a.state.selectedProvider--
			}
			return nil, true
		case key.Matches(msg, keys.Down):
			if a.state.selectedProvider < len(config.Providers)-1 {
				a.state.selectedProvider++
			}
			return nil, true
		case key.Matches(msg, keys.Enter):
			provider := config.Providers[a.state.selectedProvider]
			a.state.config.Provider = provider.ID
			a.state.config.Model = provider.DefaultModel

			switch {
			case provider.NeedsAPIKey:
				a.state.setupStep = 1
				a.state.apiKeyInput.Focus()
				return textinput.Blink, true
			case provider.NeedsBaseURL:
				a.state.setupStep = 2
				a.state.baseURLInput.Focus()
				return textinput.Blink, true
			}
			return a.finishSetup(), true
		}

	case 1: // API key entry
		if key.Matches(msg, keys.Enter) {
			a.state.config.APIKey = strings.TrimSpace(a.state.apiKeyInput.Value())
			if p := config.GetProvider(a.state.config.Provider); p != nil && p.NeedsBaseURL {
				a.state.setupStep = 2
				a.state.apiKeyInput.Blur()
				a.state.baseURLInput.Focus()
				return textinput.Blink, true
			}
			return a.finishSetup(), true
		}

	case 2: // Base URL entry
		if key.Matches(msg, keys.Enter) {
			a.state.config.BaseURL = strings.TrimSpace(a.state.baseURLInput.Value())
			return a.finishSetup(), true
		}
	}

	return nil, false
}

func (a *App) finishSetup() tea.Cmd {
	cfg := a.state.config
	path := a.state.configPath
	return func() tea.Msg {
		if err := cfg.Validate(); err != nil {
			return setupErrorMsg{err}
		}
		if err := cfg.Save(path); err != nil {
			return setupErrorMsg{err}
		}
		return setupCompleteMsg{}
	}
}

func (a *App) addMessage(r role, content string, failed bool) {
	a.state.history = append(a.state.history, message{role: r, content: content, failed: failed})
	a.refreshViewport()
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	switch a.view {
	case viewSetup:
		return a.renderSetup()
	case viewDashboard:
		return a.renderDashboard()
	case viewHelp:
		return a.renderHelp()
	case viewError:
		return a.renderError()
	default:
		return a.renderChat()
	}
}

func (a *App) centerVertically(content string) string {
	lines := strings.Count(content, "\n") + 1
	padding := (a.height - lines) / 2
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat("\n", padding) + content
}
