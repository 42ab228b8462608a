package cli

import (
	"context"
	"errors"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sant0-9/chartwise/internal/config"
	"github.com/sant0-9/chartwise/internal/pipeline"
	"github.com/sant0-9/chartwise/internal/tui"
)

func newChatCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <dashboard-id>",
		Short: "Edit a dashboard interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				mu sync.Mutex
				ws *workspace
			)
			defer func() {
				mu.Lock()
				defer mu.Unlock()
				if ws != nil {
					_ = ws.Close()
				}
			}()

			connect := func(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, error) {
				mu.Lock()
				defer mu.Unlock()
				if ws != nil {
					_ = ws.Close()
					ws = nil
				}
				opened, err := openWorkspace(ctx, cfg, e.log)
				if err != nil {
					return nil, err
				}
				ws = opened
				return ws.Pipeline, nil
			}

			path := e.cfgFile
			if path == "" {
				var err error
				if path, err = config.ConfigPath(); err != nil {
					return err
				}
			}

			app := tui.NewApp(tui.Options{
				Config:      e.cfg,
				ConfigPath:  path,
				NeedsSetup:  needsSetup(e.cfg, e.cfgFound),
				DashboardID: args[0],
				Connect:     connect,
			})

			p := tea.NewProgram(app,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithOutput(os.Stdout),
			)
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}
}

// needsSetup reports whether the first-run wizard should run: no config
// file was found and the chosen provider cannot start without a key.
func needsSetup(cfg *config.Config, found bool) bool {
	if found {
		return false
	}
	p := config.GetProvider(cfg.Provider)
	if p == nil {
		return true
	}
	return p.NeedsAPIKey && cfg.APIKeyFor(p.ID) == ""
}
