package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/transform"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/wqp"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Clean merged portal records and split them into the two populations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("transform"); err != nil {
			return err
		}

		mergedPath := filepath.Join(cfg.Data.RawDir, "merged.csv")
		records, err := wqp.ReadMergedCSV(cmd.Context(), mergedPath)
		if err != nil {
			return err
		}

		vol, pro, err := runTransformStage(records)
		if err != nil {
			return err
		}

		printer.Printf("Cleaned %d records into %d volunteer and %d professional observations -> %s\n",
			len(records), len(vol), len(pro), cfg.Data.ProcessedDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
}

// observationPaths returns the processed-stage file names for the configured
// characteristic, e.g. volunteer_chloride.csv.
func observationPaths() (string, string) {
	slug := charSlug(cfg.WQP.Characteristic)
	return filepath.Join(cfg.Data.ProcessedDir, "volunteer_"+slug+".csv"),
		filepath.Join(cfg.Data.ProcessedDir, "professional_"+slug+".csv")
}

// charSlug lowercases a characteristic name into a file-name fragment.
func charSlug(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
}

// runTransformStage cleans and partitions merged records, writing both
// populations to the processed data dir. Shared by the transform and
// pipeline commands.
func runTransformStage(records []wqp.Record) ([]model.Observation, []model.Observation, error) {
	log := zap.L().With(zap.String("component", "transform"))

	obs, cleanStats := transform.Clean(records, cfg.WQP.Characteristic)
	log.Info("cleaned records",
		zap.Int("input", cleanStats.Input),
		zap.Int("kept", cleanStats.Kept),
		zap.Int("wrong_characteristic", cleanStats.WrongCharacteristic),
		zap.Int("bad_coordinates", cleanStats.BadCoordinates),
		zap.Int("missing_value", cleanStats.MissingValue),
		zap.Int("detection_condition", cleanStats.DetectionCondition),
		zap.Int("bad_value", cleanStats.BadValue),
		zap.Int("negative_value", cleanStats.NegativeValue),
		zap.Int("bad_date", cleanStats.BadDate),
	)

	vol, pro, partStats := transform.Partition(obs,
		cfg.Orgs.Volunteer, cfg.Orgs.Professional, cfg.Matching.MinConcentration)
	log.Info("partitioned observations",
		zap.Int("volunteer", partStats.Volunteer),
		zap.Int("professional", partStats.Professional),
		zap.Int("below_floor", partStats.BelowFloor),
		zap.Int("unknown_org", partStats.UnknownOrg),
	)

	if err := os.MkdirAll(cfg.Data.ProcessedDir, 0o755); err != nil {
		return nil, nil, eris.Wrap(err, "create processed dir")
	}
	volPath, proPath := observationPaths()
	if err := transform.SaveObservations(volPath, vol); err != nil {
		return nil, nil, err
	}
	if err := transform.SaveObservations(proPath, pro); err != nil {
		return nil, nil, err
	}

	return vol, pro, nil
}
