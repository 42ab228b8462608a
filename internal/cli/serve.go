package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sant0-9/chartwise/internal/server"
)

func newServeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := os.MkdirAll(e.cfg.UploadDir, 0755); err != nil {
				return err
			}

			srv := server.New(server.Config{
				Addr:      e.cfg.Server.Addr,
				UploadDir: e.cfg.UploadDir,
				Pipeline:  ws.Pipeline,
				Log:       e.log,
			})
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from config, :8000)")
	return cmd
}
