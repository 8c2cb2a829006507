package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/report"
)

// outputOptions selects the optional export formats written alongside the
// matched-pairs CSV and summary text.
type outputOptions struct {
	Plot      bool
	XLSX      bool
	Shapefile bool
}

// writeOutputs renders the exports of a run into dir. The pairs CSV and the
// summary text are always written; workbook, shapefile, and plot are opt-in.
// The plot needs a regression fit and is skipped with a warning without one.
func writeOutputs(dir string, run *model.Run, pairs model.MatchResult, opts outputOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "create output dir")
	}
	log := zap.L().With(zap.String("component", "report"))

	csvPath := filepath.Join(dir, "matched_pairs.csv")
	if err := report.WritePairsCSV(csvPath, pairs); err != nil {
		return err
	}
	log.Info("wrote matched pairs", zap.String("file", csvPath), zap.Int("pairs", len(pairs)))

	statsPath := filepath.Join(dir, "summary_statistics.txt")
	if err := report.WriteSummary(statsPath, run); err != nil {
		return err
	}
	log.Info("wrote summary statistics", zap.String("file", statsPath))

	if opts.XLSX {
		xlsxPath := filepath.Join(dir, "matched_pairs.xlsx")
		if err := report.WriteXLSX(xlsxPath, pairs, run); err != nil {
			return err
		}
		log.Info("wrote workbook", zap.String("file", xlsxPath))
	}

	if opts.Shapefile {
		shpPath := filepath.Join(dir, "matched_pairs.shp")
		if err := report.WriteShapefile(shpPath, pairs); err != nil {
			return err
		}
		log.Info("wrote shapefile", zap.String("file", shpPath))
	}

	if opts.Plot {
		if run.Summary == nil || len(pairs) == 0 {
			log.Warn("skipping plot: no regression fit to draw")
		} else {
			plotPath := filepath.Join(dir, "validation_plot.png")
			if err := report.RenderPlot(plotPath, pairs, run.Summary, run.Config.Characteristic); err != nil {
				return err
			}
			log.Info("wrote plot", zap.String("file", plotPath))
		}
	}

	return nil
}
