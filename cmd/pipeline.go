package main

import (
	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run extract, transform, and analyze as one pass",
	Long: `Pipeline chains the three stages end to end: download measurements and
stations from the Water Quality Portal, clean and partition them into
volunteer and professional populations, then match the populations and fit
the regression. Intermediate CSVs are written to the raw and processed
directories exactly as the standalone commands write them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		applyExtractFlags()
		applyAnalyzeFlags(cmd)
		if err := cfg.Validate("pipeline"); err != nil {
			return err
		}

		records, stats, err := runExtractStage(ctx)
		if err != nil {
			return err
		}
		printer.Printf("Extracted %d results and %d stations (%d merged)\n",
			stats.ResultRows, stats.StationRows, stats.MergedRows)

		vol, pro, err := runTransformStage(records)
		if err != nil {
			return err
		}
		printer.Printf("Cleaned into %d volunteer and %d professional observations\n",
			len(vol), len(pro))

		run, err := runAnalyzeStage(ctx, vol, pro, analyzeOutputOptions())
		if err != nil {
			return err
		}
		printAnalyzeResult(run)
		return nil
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&extractStart, "start", "", "start date, MM-DD-YYYY (overrides config)")
	pipelineCmd.Flags().StringVar(&extractEnd, "end", "", "end date, MM-DD-YYYY (overrides config)")
	pipelineCmd.Flags().StringVar(&extractState, "state", "", "FIPS state code, e.g. US:40 (overrides config)")
	pipelineCmd.Flags().StringVar(&extractCharacteristic, "characteristic", "", "characteristic name, e.g. Chloride (overrides config)")
	registerAnalyzeFlags(pipelineCmd)
	rootCmd.AddCommand(pipelineCmd)
}
