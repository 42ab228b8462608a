package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sant0-9/chartwise/internal/eval"
)

func newEvalCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure how well commands are understood",
	}
	cmd.AddCommand(newEvalRunCmd(e), newEvalReportCmd(e))
	return cmd
}

func newEvalRunCmd(e *env) *cobra.Command {
	var (
		dashboardID string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Run a suite of commands and score them",
		Long: `Run each command of a YAML suite against a dashboard in one session and
print per-command scores and the aggregate summary. A suite looks like:

  dashboard: <dashboard-id>
  cases:
    - command: add a bar chart of revenue by region
      expect: add_chart
    - command: what is the average revenue?`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := eval.LoadSuite(args[0])
			if err != nil {
				return err
			}
			if dashboardID == "" {
				dashboardID = suite.Dashboard
			}
			if dashboardID == "" {
				return fmt.Errorf("no dashboard: set it in the suite or pass --dashboard")
			}

			ctx := cmd.Context()
			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			var (
				results    []eval.Result
				sessionID  string
				mismatches int
			)
			for _, c := range suite.Cases {
				res, err := ws.Chat(ctx, sessionID, dashboardID, c.Command)
				if err != nil {
					return fmt.Errorf("%q: %w", c.Command, err)
				}
				sessionID = res.SessionID
				results = append(results, res.Evaluation)

				if c.Expect != "" && res.Response.Intent.ActionType != c.Expect {
					mismatches++
					e.log.WithFields(logrus.Fields{
						"command": c.Command,
						"expect":  c.Expect,
						"got":     res.Response.Intent.ActionType,
					}).Warn("unexpected action type")
				}
			}

			summary := eval.Summarize(results)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					Results    []eval.Result `json:"results"`
					Summary    eval.Summary  `json:"summary"`
					Mismatches int           `json:"mismatches"`
				}{results, summary, mismatches})
			}

			eval.Render(out, results, summary)
			if mismatches > 0 {
				fmt.Fprintf(out, "%d of %d commands parsed to an unexpected action type\n", mismatches, len(suite.Cases))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dashboardID, "dashboard", "", "dashboard id (overrides the suite)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEvalReportCmd(e *env) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded evaluations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			results, err := ws.Store().ListEvaluations(ctx, limit)
			if err != nil {
				return err
			}
			summary := eval.Summarize(results)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			eval.Render(cmd.OutOrStdout(), results, summary)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "most recent evaluations to include")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}
