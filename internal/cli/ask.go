package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(e *env) *cobra.Command {
	var (
		sessionID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "ask <dashboard-id> <command...>",
		Short: "Run one natural-language command against a dashboard",
		Example: `  chartwise ask 3f2a... add a pie chart of revenue by region
  chartwise ask 3f2a... "what are the top 5 products by revenue?"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			command := strings.Join(args[1:], " ")
			res, err := ws.Chat(ctx, sessionID, args[0], command)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}

			a := res.Response.Action
			if !a.Success {
				fmt.Fprintf(out, "failed (%s): %s\n", a.Error, a.Explanation)
				for _, s := range a.Suggestions {
					fmt.Fprintf(out, "  - %s\n", s)
				}
				return nil
			}
			fmt.Fprintln(out, a.Explanation)
			if a.Mutates() {
				fmt.Fprintln(out)
				renderComponents(out, res.Dashboard)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id to continue")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
