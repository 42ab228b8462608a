package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sant0-9/chartwise/internal/dashboard"
)

func newGenerateCmd(e *env) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "generate <dataset-id>",
		Short: "Build a starter dashboard for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			d, err := ws.Generate(ctx, args[0], title)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dashboard %s (%s)\n", d.ID, d.Title)
			renderComponents(out, d)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "dashboard title (default: \"<dataset> Dashboard\")")
	return cmd
}

func newDashboardsCmd(e *env) *cobra.Command {
	var (
		datasetID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "dashboards",
		Short: "List dashboards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			list, err := ws.Store().ListDashboards(ctx, datasetID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Title", "Dataset", "Components", "Updated"})
			for _, d := range list {
				t.AppendRow(table.Row{d.ID, d.Title, d.DatasetID, len(d.Components), d.UpdatedAt.Format("2006-01-02 15:04")})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetID, "dataset", "", "only dashboards for this dataset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <dashboard-id>",
		Short: "Show a dashboard's components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			d, err := ws.Store().GetDashboard(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, d)
			}
			fmt.Fprintf(out, "Dashboard %s (%s)\n", d.ID, d.Title)
			renderComponents(out, d)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON including materialized data")
	return cmd
}

func renderComponents(w io.Writer, d *dashboard.Dashboard) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Type", "Title", "X", "Y", "Position"})
	for _, c := range d.Components {
		p := c.Position
		t.AppendRow(table.Row{
			c.ID, c.Type, c.Title, c.Config.XAxis, c.Config.YAxis,
			fmt.Sprintf("r%d c%d %dx%d", p.Row, p.Col, p.Width, p.Height),
		})
	}
	t.Render()
}
