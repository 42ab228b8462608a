// Package cli provides the chartwise command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sant0-9/chartwise/internal/config"
	"github.com/sant0-9/chartwise/internal/logging"
)

// Version information (set at build time)
var Version = "dev"

// env is the state shared by every subcommand once the root has loaded the
// config.
type env struct {
	cfgFile   string
	cfg       *config.Config
	cfgFound  bool
	log       *logrus.Logger
	logCloser io.Closer
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "chartwise",
		Short: "Conversational dashboards over tabular data",
		Long: `chartwise loads CSV, Parquet or JSON files, builds a starter dashboard
and lets you reshape it and ask questions in plain English.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "__complete" {
				return nil
			}
			return e.load(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if e.logCloser != nil {
				return e.logCloser.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.cfgFile, "config", "", "config file (default: ~/.config/chartwise/config.yaml)")
	flags.String("provider", "", "LLM provider (gemini, openai, groq, anthropic, openrouter, ollama, custom, offline)")
	flags.String("model", "", "model name for the provider")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("db", "", "path to the SQLite workspace database")

	_ = rootCmd.RegisterFlagCompletionFunc("provider", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		ids := make([]string, 0, len(config.Providers))
		for _, p := range config.Providers {
			ids = append(ids, p.ID)
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newVersionCmd(),
		newIngestCmd(e),
		newDatasetsCmd(e),
		newGenerateCmd(e),
		newDashboardsCmd(e),
		newShowCmd(e),
		newAskCmd(e),
		newChatCmd(e),
		newServeCmd(e),
		newEvalCmd(e),
	)

	return rootCmd
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, found, err := config.Load(e.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// The TUI owns the terminal, so its logs go to a file
	if cmd.Name() == "chat" && cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(filepath.Dir(cfg.Database.Path), "chartwise.log")
	}

	log, closer, err := logging.FromConfig(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	e.cfg = cfg
	e.cfgFound = found
	e.log = log
	e.logCloser = closer
	return nil
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chartwise %s\n", Version)
		},
	}
}
