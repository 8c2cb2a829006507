// Package report renders the outputs of an analysis run: the matched-pairs
// CSV, the plain-text summary statistics file, an XLSX workbook, a point
// shapefile for GIS review, and the validation scatter plot.
package report

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// pairsHeader is the published matched-pairs column contract. Downstream
// spreadsheets key on these names, so the header never changes shape.
var pairsHeader = []string{
	"Vol_SiteID", "Pro_SiteID",
	"Vol_Organization", "Pro_Organization",
	"Vol_Value", "Pro_Value",
	"Vol_Units", "Pro_Units",
	"Vol_DateTime", "Pro_DateTime",
	"Vol_Lat", "Vol_Lon",
	"Pro_Lat", "Pro_Lon",
	"Distance_m", "Time_Diff_hours",
}

// WritePairsCSV writes matched pairs in the published column order. Floats
// use the shortest round-trip form and timestamps RFC 3339 UTC, so the same
// pairs always serialize to the same bytes.
func WritePairsCSV(path string, pairs model.MatchResult) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "report: create pairs csv")
	}
	defer file.Close() //nolint:errcheck

	w := csv.NewWriter(file)
	if err := w.Write(pairsHeader); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	for _, p := range pairs {
		if err := w.Write(pairRecord(p)); err != nil {
			return eris.Wrap(err, "report: write pair")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "report: flush pairs csv")
	}

	return nil
}

func pairRecord(p model.MatchedPair) []string {
	return []string{
		p.Volunteer.SiteID,
		p.Professional.SiteID,
		p.Volunteer.OrganizationID,
		p.Professional.OrganizationID,
		formatFloat(p.Volunteer.Value),
		formatFloat(p.Professional.Value),
		p.Volunteer.Unit,
		p.Professional.Unit,
		p.Volunteer.Timestamp.UTC().Format(time.RFC3339),
		p.Professional.Timestamp.UTC().Format(time.RFC3339),
		formatFloat(p.Volunteer.Latitude),
		formatFloat(p.Volunteer.Longitude),
		formatFloat(p.Professional.Latitude),
		formatFloat(p.Professional.Longitude),
		formatFloat(p.DistanceM),
		formatFloat(p.TimeDiffHours),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
