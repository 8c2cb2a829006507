package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/store"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/transform"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/triangulate"
)

var (
	analyzeMaxDistance float64
	analyzeMaxTime     float64
	analyzePolicy      string
	analyzeMinConc     float64
	analyzeWorkers     int
	analyzeNoStore     bool
	analyzePlot        bool
	analyzeXLSX        bool
	analyzeShapefile   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Match the two populations and fit volunteer against professional values",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		applyAnalyzeFlags(cmd)
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		volPath, proPath := observationPaths()
		vol, err := transform.LoadObservations(ctx, volPath)
		if err != nil {
			return err
		}
		pro, err := transform.LoadObservations(ctx, proPath)
		if err != nil {
			return err
		}

		run, err := runAnalyzeStage(ctx, vol, pro, analyzeOutputOptions())
		if err != nil {
			return err
		}
		printAnalyzeResult(run)
		return nil
	},
}

func init() {
	registerAnalyzeFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// registerAnalyzeFlags declares the matching and output flags shared by the
// analyze and pipeline commands.
func registerAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&analyzeMaxDistance, "max-distance", 0, "max pair distance in meters (overrides config)")
	cmd.Flags().Float64Var(&analyzeMaxTime, "max-time", 0, "max pair time difference in hours (overrides config)")
	cmd.Flags().StringVar(&analyzePolicy, "policy", "", "match policy: all or nearest (overrides config)")
	cmd.Flags().Float64Var(&analyzeMinConc, "min-concentration", 0, "professional concentration floor, exclusive (overrides config)")
	cmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "matching worker count, 0 = GOMAXPROCS (overrides config)")
	cmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "skip recording the run in the store")
	cmd.Flags().BoolVar(&analyzePlot, "plot", false, "render the validation scatter plot PNG")
	cmd.Flags().BoolVar(&analyzeXLSX, "xlsx", false, "write the matched-pairs workbook")
	cmd.Flags().BoolVar(&analyzeShapefile, "shapefile", false, "write the matched-pairs shapefile")
}

func applyAnalyzeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("max-distance") {
		cfg.Matching.MaxDistanceMeters = analyzeMaxDistance
	}
	if f.Changed("max-time") {
		cfg.Matching.MaxTimeHours = analyzeMaxTime
	}
	if f.Changed("policy") {
		cfg.Matching.Strategy = analyzePolicy
	}
	if f.Changed("min-concentration") {
		cfg.Matching.MinConcentration = analyzeMinConc
	}
	if f.Changed("workers") {
		cfg.Matching.Workers = analyzeWorkers
	}
	if analyzeNoStore {
		cfg.Store.Driver = "none"
	}
}

func analyzeOutputOptions() outputOptions {
	return outputOptions{Plot: analyzePlot, XLSX: analyzeXLSX, Shapefile: analyzeShapefile}
}

// runAnalyzeStage matches the two populations, fits the regression, persists
// the run, and writes the configured outputs. Shared by the analyze and
// pipeline commands. Zero or one matched pairs complete the run without a
// fit; only infrastructure failures fail it.
func runAnalyzeStage(ctx context.Context, vol, pro []model.Observation, opts outputOptions) (*model.Run, error) {
	log := zap.L().With(zap.String("component", "analyze"))

	policy, err := triangulate.ParsePolicy(cfg.Matching.Strategy)
	if err != nil {
		return nil, err
	}
	params := triangulate.Params{
		MaxDistanceM: cfg.Matching.MaxDistanceMeters,
		MaxTimeHours: cfg.Matching.MaxTimeHours,
		Policy:       policy,
		Workers:      cfg.Matching.Workers,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Re-applying the transform-time floor is a no-op, so the analyze-time
	// flag can tighten the floor without re-running transform.
	if cfg.Matching.MinConcentration > 0 {
		kept := make([]model.Observation, 0, len(pro))
		for _, o := range pro {
			if o.Value > cfg.Matching.MinConcentration {
				kept = append(kept, o)
			}
		}
		if dropped := len(pro) - len(kept); dropped > 0 {
			log.Info("dropped professional observations at or below concentration floor",
				zap.Int("count", dropped),
				zap.Float64("floor", cfg.Matching.MinConcentration),
			)
		}
		pro = kept
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	run := &model.Run{
		Status: model.RunStatusRunning,
		Config: model.RunConfig{
			Characteristic:   cfg.WQP.Characteristic,
			StateCode:        cfg.WQP.StateCode,
			StartDate:        cfg.WQP.StartDate,
			EndDate:          cfg.WQP.EndDate,
			MaxDistanceM:     params.MaxDistanceM,
			MaxTimeHours:     params.MaxTimeHours,
			Strategy:         string(params.Policy),
			MinConcentration: cfg.Matching.MinConcentration,
		},
		VolunteerCount:    len(vol),
		ProfessionalCount: len(pro),
	}
	if st != nil {
		if err := st.SaveRun(ctx, run); err != nil {
			return nil, err
		}
	}

	pairs, err := triangulate.Match(ctx, vol, pro, params)
	if err != nil {
		return nil, failRun(ctx, st, run, err)
	}
	run.PairCount = len(pairs)
	log.Info("matching complete",
		zap.Int("volunteer", len(vol)),
		zap.Int("professional", len(pro)),
		zap.Int("pairs", len(pairs)),
	)

	summary, err := triangulate.Summarize(pairs)
	switch {
	case err == nil:
		run.Summary = &summary
	case errors.Is(err, triangulate.ErrInsufficientData), errors.Is(err, triangulate.ErrZeroVariance):
		log.Warn("no regression fit", zap.Int("pairs", len(pairs)), zap.Error(err))
	default:
		return nil, failRun(ctx, st, run, err)
	}

	if st != nil {
		if err := st.SavePairs(ctx, run.ID, pairs); err != nil {
			return nil, failRun(ctx, st, run, err)
		}
	}

	if err := writeOutputs(cfg.Data.OutputDir, run, pairs, opts); err != nil {
		return nil, failRun(ctx, st, run, err)
	}

	run.Status = model.RunStatusComplete
	if st != nil {
		if err := st.SaveRun(ctx, run); err != nil {
			return nil, err
		}
	}
	return run, nil
}

// failRun records the failure on the stored run before returning err.
func failRun(ctx context.Context, st store.Store, run *model.Run, err error) error {
	if st != nil && run.ID != "" {
		if uerr := st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed, err.Error()); uerr != nil {
			zap.L().Error("record run failure", zap.Error(uerr))
		}
	}
	return err
}

func printAnalyzeResult(run *model.Run) {
	printer.Printf("Matched %d pairs from %d volunteer and %d professional observations\n",
		run.PairCount, run.VolunteerCount, run.ProfessionalCount)
	if s := run.Summary; s != nil {
		fmt.Printf("n=%d slope=%.6f intercept=%.6f r2=%.6f p=%.2e stderr=%.6f\n",
			s.N, s.Slope, s.Intercept, s.RSquared, s.PValue, s.StdErr)
	} else {
		fmt.Println("No regression fit computed.")
	}
	if run.ID != "" {
		fmt.Printf("Run recorded: %s\n", run.ID)
	}
	fmt.Printf("Outputs: %s\n", cfg.Data.OutputDir)
}
