package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/config"
)

var cfg *config.Config

// printer renders counts with digit grouping, so a statewide extraction
// reads as "245,120 results" instead of a digit wall.
var printer = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "bluethumb",
	Short: "Virtual triangulation of volunteer water-quality measurements",
	Long: "Extracts volunteer and professional measurements from the EPA Water Quality\n" +
		"Portal, pairs them by spatial-temporal proximity, and quantifies volunteer\n" +
		"data quality with an ordinary least-squares fit against professional values.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
