package transform

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/fetcher"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// observationHeader is the column order of processed-stage CSVs.
var observationHeader = []string{
	"SiteID", "OrganizationID", "Latitude", "Longitude", "Timestamp", "Value", "Unit",
}

// SaveObservations writes observations as a processed-stage CSV. Floats
// use the shortest round-trip form and timestamps RFC 3339 UTC, so
// repeated runs over the same input produce byte-identical files.
func SaveObservations(path string, obs []model.Observation) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "transform: create observations csv")
	}
	defer file.Close() //nolint:errcheck

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write(observationHeader); err != nil {
		return eris.Wrap(err, "transform: write header")
	}
	for _, o := range obs {
		row := []string{
			o.SiteID,
			o.OrganizationID,
			formatFloat(o.Latitude),
			formatFloat(o.Longitude),
			o.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(o.Value),
			o.Unit,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "transform: write row")
		}
	}

	return nil
}

// LoadObservations reads a processed-stage CSV back into observations.
// Unlike portal input, these files are produced by this pipeline, so any
// malformed row is an error rather than a counted drop.
func LoadObservations(ctx context.Context, path string) ([]model.Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "transform: open observations csv")
	}
	defer file.Close() //nolint:errcheck

	rowCh, errCh := fetcher.StreamCSV(ctx, file, fetcher.CSVOptions{})

	obs := []model.Observation{}
	first := true
	line := 0
	for row := range rowCh {
		line++
		if first {
			first = false
			if len(row) != len(observationHeader) {
				return nil, eris.Errorf("transform: %s: unexpected header %v", path, row)
			}
			continue
		}

		if len(row) != len(observationHeader) {
			return nil, eris.Errorf("transform: %s: row %d has %d fields", path, line, len(row))
		}
		lat, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "transform: %s: row %d latitude", path, line)
		}
		lon, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "transform: %s: row %d longitude", path, line)
		}
		ts, err := time.Parse(time.RFC3339, row[4])
		if err != nil {
			return nil, eris.Wrapf(err, "transform: %s: row %d timestamp", path, line)
		}
		val, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "transform: %s: row %d value", path, line)
		}

		obs = append(obs, model.Observation{
			SiteID:         row[0],
			OrganizationID: row[1],
			Latitude:       lat,
			Longitude:      lon,
			Timestamp:      ts,
			Value:          val,
			Unit:           row[6],
		})
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "transform: stream observations csv")
	}

	return obs, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
