package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/pipeline"
	"github.com/sant0-9/chartwise/internal/store"
)

func newIngestCmd(e *env) *cobra.Command {
	var (
		generate bool
		title    string
	)

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Load a CSV, Parquet or JSON file into the workspace",
		Example: `  # Load a file and print its columns
  chartwise ingest sales.csv

  # Load a file and build a starter dashboard
  chartwise ingest sales.csv --generate --title "Q3 Sales"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			ws.SetProgressCallback(func(p pipeline.Progress) {
				e.log.WithField("stage", p.Stage.String()).Debug(p.Message)
			})

			ds, err := ws.Ingest(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dataset %s (%s): %d rows, %d columns\n", ds.ID, ds.Name, ds.RowCount, len(ds.Catalog))
			renderCatalog(out, ds.Catalog)

			if !generate {
				return nil
			}
			d, err := ws.Generate(ctx, ds.ID, title)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nDashboard %s (%s)\n", d.ID, d.Title)
			renderComponents(out, d)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "also build a starter dashboard")
	cmd.Flags().StringVar(&title, "title", "", "dashboard title (with --generate)")
	return cmd
}

func newDatasetsCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "datasets [id]",
		Short: "List datasets, or show one dataset's columns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				ds, err := ws.Store().GetDataset(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, ds)
				}
				fmt.Fprintf(out, "Dataset %s (%s): %d rows from %s\n", ds.ID, ds.Name, ds.RowCount, ds.SourcePath)
				renderCatalog(out, ds.Catalog)
				return nil
			}

			list, err := ws.Store().ListDatasets(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, list)
			}
			renderDatasets(out, list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func renderDatasets(w io.Writer, list []store.Dataset) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Rows", "Columns", "Created"})
	for _, ds := range list {
		t.AppendRow(table.Row{ds.ID, ds.Name, ds.RowCount, len(ds.Catalog), ds.CreatedAt.Format("2006-01-02 15:04")})
	}
	t.Render()
}

func renderCatalog(w io.Writer, catalog dataset.Catalog) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nulls", "Unique", "Range", "Samples"})
	for _, c := range catalog {
		var nulls, unique any = "", ""
		if c.Stats != nil {
			nulls = c.Stats.NullCount
			unique = c.Stats.UniqueCount
		}
		t.AppendRow(table.Row{c.Name, c.Type, nulls, unique, columnRange(c), strings.Join(c.SampleValues, ", ")})
	}
	t.Render()
}

func columnRange(c dataset.Column) string {
	s := c.Stats
	if s == nil {
		return ""
	}
	switch {
	case s.Min != nil && s.Max != nil:
		return fmt.Sprintf("%g .. %g", *s.Min, *s.Max)
	case s.MinDate != "":
		return s.MinDate + " .. " + s.MaxDate
	case s.MinLength != nil && s.MaxLength != nil:
		return fmt.Sprintf("len %d .. %d", *s.MinLength, *s.MaxLength)
	}
	return ""
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
