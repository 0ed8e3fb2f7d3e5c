package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"reportflow/internal/dataprocessing"
	"reportflow/internal/operations"
	"reportflow/pkg/contracts/domain"
)

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <workbook>",
		Short: "List the sheets of a workbook and the period each one maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := dataprocessing.ListSheets(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SHEET\tPERIOD")
			for _, name := range names {
				period := "-"
				if p, err := dataprocessing.ParsePeriod(name); err == nil {
					period = fmt.Sprint(p)
				}
				fmt.Fprintf(w, "%s\t%s\n", name, period)
			}
			return w.Flush()
		},
	}
}

func newRunCmd(g *globalOptions) *cobra.Command {
	r := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [workbook]",
		Short: "Run the pipeline once and write the report tables",
		Long: `Loads every sheet of the workbook, combines and enriches the rows, and writes
the combined, summary, changes and latest tables to the output directory.

--category restricts the change figures to one category. The null label
(default NA) selects entities the lookup could not place.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, g, r, args)
			if err != nil {
				return err
			}
			defer a.close()

			manager := operations.NewManager(a.cfg, a.logger, operations.WithTelemetry(a.telemetry))
			state, err := manager.Run(cmd.Context())
			if err != nil {
				return err
			}

			printFiles(cmd.OutOrStdout(), state.Files)
			if len(state.Lookup.Misses) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d entities without a category: %v\n",
					len(state.Lookup.Misses), state.Lookup.Misses)
			}
			return nil
		},
	}
	addRunFlags(cmd, r)
	cmd.Flags().StringVar(&r.category, "category", "", "restrict change figures to one category")
	return cmd
}

func newBatchCmd(g *globalOptions) *cobra.Command {
	r := &runOptions{}
	var categories []string

	cmd := &cobra.Command{
		Use:   "batch [workbook]",
		Short: "Write one set of report tables per category",
		Long: `Builds the combined table once, then writes the summary, changes and latest
tables of each category into <out>/<category>/. Without --categories every
category present in the data is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, g, r, args)
			if err != nil {
				return err
			}
			defer a.close()

			manager := operations.NewManager(a.cfg, a.logger, operations.WithTelemetry(a.telemetry))
			states, err := manager.Batch(cmd.Context(), categories)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tROWS\tDIRECTORY")
			for _, s := range states[1:] {
				fmt.Fprintf(w, "%s\t%d\t%s\n",
					domain.CategoryLabel(*s.Category, a.cfg.Output.NullLabel), s.Combined.Len(), s.Paths.OutputDir)
			}
			return w.Flush()
		},
	}
	addRunFlags(cmd, r)
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "categories to write (default: all)")
	return cmd
}
