package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/chartwise/internal/agent"
	"github.com/sant0-9/chartwise/internal/compiler"
	"github.com/sant0-9/chartwise/internal/config"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/pipeline"
	"github.com/sant0-9/chartwise/internal/store"
)

func sampleDashboard() *dashboard.Dashboard {
	d := dashboard.New("d1", "ds1", "Sales Dashboard")
	d.Components = []dashboard.Component{
		{
			ID: "c1", Type: dashboard.KPI, Title: "Total Revenue",
			Position: dashboard.Position{Row: 0, Col: 0, Width: 3, Height: 1},
			Config:   dashboard.Config{YAxis: "revenue", Value: 400.0},
		},
		{
			ID: "c2", Type: dashboard.BarChart, Title: "Revenue by Region",
			Position: dashboard.Position{Row: 1, Col: 0, Width: 6, Height: 4},
			Config: dashboard.Config{XAxis: "region", YAxis: "revenue", Data: []map[string]any{
				{"region": "North", "revenue": 150.0},
			}},
		},
	}
	return d
}

func newTestApp() *App {
	cfg := config.DefaultConfig()
	cfg.Provider = "offline"
	a := NewApp(Options{Config: cfg, DashboardID: "d1"})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a
}

func typeInput(a *App, s string) tea.Cmd {
	a.state.input.SetValue(s)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestSlashCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  view
	}{
		{"help", "/help", viewHelp},
		{"help short", "/h", viewHelp},
		{"dashboard", "/dashboard", viewDashboard},
		{"dashboard short", "/D", viewDashboard},
		{"unknown", "/nope", viewChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp()
			a.state.dashboard = sampleDashboard()
			typeInput(a, tt.input)
			assert.Equal(t, tt.want, a.view)
			assert.Empty(t, a.state.input.Value())
		})
	}
}

func TestUnknownSlashCommandReportsError(t *testing.T) {
	a := newTestApp()
	typeInput(a, "/nope")

	require.Len(t, a.state.history, 1)
	assert.True(t, a.state.history[0].failed)
	assert.Contains(t, a.state.history[0].content, "/nope")
}

func TestBackReturnsToChat(t *testing.T) {
	a := newTestApp()
	typeInput(a, "/help")
	require.Equal(t, viewHelp, a.view)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, viewChat, a.view)
	assert.False(t, a.quitting)
}

func TestQuitCommand(t *testing.T) {
	a := newTestApp()
	cmd := typeInput(a, "/quit")
	require.NotNil(t, cmd)
	assert.True(t, a.quitting)
	assert.Empty(t, a.View())
}

func TestCommandBeforeConnect(t *testing.T) {
	a := newTestApp()
	cmd := typeInput(a, "add a bar chart of revenue by region")

	assert.Nil(t, cmd)
	assert.False(t, a.state.busy)
	require.Len(t, a.state.history, 1)
	assert.Equal(t, roleSystem, a.state.history[0].role)
}

func TestClearHistory(t *testing.T) {
	a := newTestApp()
	a.addMessage(roleUser, "hello", false)
	a.addMessage(roleAssistant, "hi", false)

	typeInput(a, "/clear")
	assert.Empty(t, a.state.history)
}

func TestChatResultUpdatesState(t *testing.T) {
	a := newTestApp()
	a.state.busy = true
	d := sampleDashboard()

	a.Update(chatResultMsg{&pipeline.ChatResult{
		SessionID: "s1",
		Dashboard: d,
		Response: agent.Response{Action: compiler.Action{
			Success:     true,
			Kind:        compiler.AddComponent,
			Explanation: "Added a bar chart",
		}},
	}})

	assert.False(t, a.state.busy)
	assert.Equal(t, "s1", a.state.sessionID)
	assert.Same(t, d, a.state.dashboard)
	require.Len(t, a.state.history, 1)
	assert.Equal(t, roleAssistant, a.state.history[0].role)
	assert.False(t, a.state.history[0].failed)
}

func TestChatFailureMarksMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"action failure", chatResultMsg{&pipeline.ChatResult{
			SessionID: "s1",
			Dashboard: sampleDashboard(),
			Response: agent.Response{Action: compiler.Action{
				Error:       compiler.ErrNoTargetComponent,
				Explanation: "No chart called sales",
			}},
		}}},
		{"pipeline error", chatErrorMsg{errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp()
			a.state.busy = true
			a.Update(tt.msg)

			assert.False(t, a.state.busy)
			require.Len(t, a.state.history, 1)
			assert.True(t, a.state.history[0].failed)
		})
	}
}

func TestConnectErrorShowsErrorView(t *testing.T) {
	a := newTestApp()
	a.Update(connectErrorMsg{fmt.Errorf("dashboard d1: %w", store.ErrNotFound)})

	assert.Equal(t, viewError, a.view)
	out := a.View()
	assert.Contains(t, out, "Could not open the workspace")
	assert.Contains(t, out, "chartwise dashboards")
}

func TestSetupNavigation(t *testing.T) {
	a := NewApp(Options{ConfigPath: filepath.Join(t.TempDir(), "config.yaml")})
	a.Init()
	require.Equal(t, viewSetup, a.view)

	a.Update(tea.KeyMsg{Type: tea.KeyDown})
	a.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, a.state.selectedProvider)
	a.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, a.state.selectedProvider)

	// Back to the first provider, which needs a key
	a.Update(tea.KeyMsg{Type: tea.KeyUp})
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, a.state.setupStep)
	assert.Equal(t, config.Providers[0].ID, a.state.config.Provider)
	assert.Contains(t, a.View(), "API key")

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 0, a.state.setupStep)
	assert.False(t, a.quitting)
}

func TestSetupCustomAsksForBaseURL(t *testing.T) {
	a := NewApp(Options{ConfigPath: filepath.Join(t.TempDir(), "config.yaml")})
	a.Init()

	for i, p := range config.Providers {
		if p.ID == "custom" {
			a.state.selectedProvider = i
		}
	}
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 2, a.state.setupStep)
	assert.Contains(t, a.View(), "base URL")
}

func TestSetupCompleteConnects(t *testing.T) {
	a := NewApp(Options{ConfigPath: filepath.Join(t.TempDir(), "config.yaml")})
	a.Init()

	_, cmd := a.Update(setupCompleteMsg{})
	assert.Equal(t, viewChat, a.view)
	assert.False(t, a.state.needsSetup)
	require.NotNil(t, cmd)

	msg := cmd()
	_, ok := msg.(connectErrorMsg)
	assert.True(t, ok, "expected connect error without a connect func, got %T", msg)
}

func TestRenderDashboard(t *testing.T) {
	a := newTestApp()
	a.state.dashboard = sampleDashboard()
	a.view = viewDashboard

	out := a.View()
	assert.Contains(t, out, "Sales Dashboard")
	assert.Contains(t, out, "Total Revenue")
	assert.Contains(t, out, "Revenue by Region")
	assert.Contains(t, out, "revenue by region, 1 points")
	assert.Contains(t, out, "400.00")
}

func TestRenderChatShowsMessages(t *testing.T) {
	a := newTestApp()
	a.state.dashboard = sampleDashboard()
	a.addMessage(roleUser, "show revenue by region", false)

	out := a.View()
	assert.Contains(t, out, "show revenue by region")
	assert.Contains(t, out, "Sales Dashboard")
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short", "hello world", 20, "hello world"},
		{"wraps", "the quick brown fox", 10, "the quick\nbrown fox"},
		{"keeps breaks", "a\nb", 10, "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.text, tt.width))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a long ...", truncate("a long title here", 10))
	assert.True(t, strings.HasSuffix(truncate("日本語のタイトルです", 6), "..."))
}
