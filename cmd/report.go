package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	reportRunID     string
	reportPlot      bool
	reportXLSX      bool
	reportShapefile bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate output files for a stored run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, reportRunID)
		if err != nil {
			return err
		}
		if run == nil {
			return eris.Errorf("run not found: %s", reportRunID)
		}
		pairs, err := st.ListPairs(ctx, run.ID, 0, 0)
		if err != nil {
			return err
		}

		opts := outputOptions{Plot: reportPlot, XLSX: reportXLSX, Shapefile: reportShapefile}
		if err := writeOutputs(cfg.Data.OutputDir, run, pairs, opts); err != nil {
			return err
		}
		printer.Printf("Wrote outputs for run %s (%d pairs) -> %s\n", run.ID, len(pairs), cfg.Data.OutputDir)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "run id to report on (required)")
	reportCmd.Flags().BoolVar(&reportPlot, "plot", false, "render the validation scatter plot PNG")
	reportCmd.Flags().BoolVar(&reportXLSX, "xlsx", false, "write the matched-pairs workbook")
	reportCmd.Flags().BoolVar(&reportShapefile, "shapefile", false, "write the matched-pairs shapefile")
	_ = reportCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(reportCmd)
}
