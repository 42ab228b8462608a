package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sant0-9/chartwise/internal/config"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/pipeline"
)

type state struct {
	// Config
	config     *config.Config
	configPath string
	needsSetup bool

	// Setup wizard state
	setupStep        int
	selectedProvider int
	apiKeyInput      textinput.Model
	baseURLInput     textinput.Model
	setupError       error

	// Workspace
	pipeline    *pipeline.Pipeline
	dashboardID string
	dashboard   *dashboard.Dashboard
	sessionID   string
	connectErr  error

	// Chat
	input     textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	history   []message
	busy      bool
	busySince time.Time
}

type role int

const (
	roleUser role = iota
	roleAssistant
	roleSystem
)

type message struct {
	role    role
	content string
	failed  bool

	// markdown rendering cache, keyed by width
	rendered      string
	renderedWidth int
}

func newState() *state {
	input := textinput.New()
	input.Placeholder = "Ask about your data or change the dashboard... (/help)"
	input.CharLimit = 500
	input.Width = 60

	apiKey := textinput.New()
	apiKey.Placeholder = "Paste your API key here..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.CharLimit = 200
	apiKey.Width = 50

	baseURL := textinput.New()
	baseURL.Placeholder = "https://my-endpoint.example.com/v1"
	baseURL.CharLimit = 200
	baseURL.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleSpinner

	return &state{
		input:        input,
		apiKeyInput:  apiKey,
		baseURLInput: baseURL,
		spinner:      sp,
		viewport:     viewport.New(70, 20),
	}
}
