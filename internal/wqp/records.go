package wqp

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/fetcher"
)

// Portal export columns consumed by this package.
const (
	colOrganization   = "OrganizationIdentifier"
	colLocation       = "MonitoringLocationIdentifier"
	colCharacteristic = "CharacteristicName"
	colActivityDate   = "ActivityStartDate"
	colValue          = "ResultMeasureValue"
	colUnits          = "ResultMeasure/MeasureUnitCode"
	colDetection      = "ResultDetectionConditionText"
	colLatitude       = "LatitudeMeasure"
	colLongitude      = "LongitudeMeasure"
	colDatum          = "HorizontalCoordinateReferenceSystemDatumName"
)

// Result is the narrow projection of one portal result row. Fields stay
// raw strings; the transform stage parses and validates them so that every
// drop is counted there.
type Result struct {
	OrganizationID       string
	MonitoringLocationID string
	Characteristic       string
	ActivityStartDate    string
	Value                string
	Units                string
	DetectionCondition   string
}

// Station is the narrow projection of one portal station row.
type Station struct {
	MonitoringLocationID string
	Latitude             string
	Longitude            string
	Datum                string
}

// Record is a result joined to its station coordinates.
type Record struct {
	Result
	Latitude  string
	Longitude string
	Datum     string
}

// ReadResults stream-decodes a result export CSV.
func ReadResults(ctx context.Context, path string) ([]Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "wqp: open results csv")
	}
	defer file.Close() //nolint:errcheck
	return decodeResults(ctx, file)
}

func decodeResults(ctx context.Context, r io.Reader) ([]Result, error) {
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{})

	var out []Result
	var colIdx map[string]int
	first := true
	for row := range rowCh {
		if first {
			colIdx = mapColumns(row)
			first = false
			continue
		}
		out = append(out, Result{
			OrganizationID:       getCol(row, colIdx, colOrganization),
			MonitoringLocationID: getCol(row, colIdx, colLocation),
			Characteristic:       getCol(row, colIdx, colCharacteristic),
			ActivityStartDate:    getCol(row, colIdx, colActivityDate),
			Value:                getCol(row, colIdx, colValue),
			Units:                getCol(row, colIdx, colUnits),
			DetectionCondition:   getCol(row, colIdx, colDetection),
		})
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "wqp: stream results csv")
	}
	if first {
		return nil, eris.New("wqp: results csv has no header row")
	}
	return out, nil
}

// ReadStations stream-decodes a station export CSV.
func ReadStations(ctx context.Context, path string) ([]Station, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "wqp: open stations csv")
	}
	defer file.Close() //nolint:errcheck
	return decodeStations(ctx, file)
}

func decodeStations(ctx context.Context, r io.Reader) ([]Station, error) {
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{})

	var out []Station
	var colIdx map[string]int
	first := true
	for row := range rowCh {
		if first {
			colIdx = mapColumns(row)
			first = false
			continue
		}
		out = append(out, Station{
			MonitoringLocationID: getCol(row, colIdx, colLocation),
			Latitude:             getCol(row, colIdx, colLatitude),
			Longitude:            getCol(row, colIdx, colLongitude),
			Datum:                getCol(row, colIdx, colDatum),
		})
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "wqp: stream stations csv")
	}
	if first {
		return nil, eris.New("wqp: stations csv has no header row")
	}
	return out, nil
}

// mergedHeader is the column order of the merged audit CSV. It keeps the
// portal's own column names so the file stays comparable to the raw
// exports.
var mergedHeader = []string{
	colOrganization, colLocation, colCharacteristic, colActivityDate,
	colValue, colUnits, colDetection, colLatitude, colLongitude, colDatum,
}

// WriteMergedCSV writes joined records as the merged audit CSV.
func WriteMergedCSV(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "wqp: create merged csv")
	}
	defer file.Close() //nolint:errcheck

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write(mergedHeader); err != nil {
		return eris.Wrap(err, "wqp: write merged header")
	}
	for _, rec := range records {
		row := []string{
			rec.OrganizationID, rec.MonitoringLocationID, rec.Characteristic,
			rec.ActivityStartDate, rec.Value, rec.Units, rec.DetectionCondition,
			rec.Latitude, rec.Longitude, rec.Datum,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "wqp: write merged row")
		}
	}

	return nil
}

// ReadMergedCSV reads a merged audit CSV back into records, so transform
// can run as a separate pipeline stage.
func ReadMergedCSV(ctx context.Context, path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "wqp: open merged csv")
	}
	defer file.Close() //nolint:errcheck

	rowCh, errCh := fetcher.StreamCSV(ctx, file, fetcher.CSVOptions{})

	var out []Record
	var colIdx map[string]int
	first := true
	for row := range rowCh {
		if first {
			colIdx = mapColumns(row)
			first = false
			continue
		}
		out = append(out, Record{
			Result: Result{
				OrganizationID:       getCol(row, colIdx, colOrganization),
				MonitoringLocationID: getCol(row, colIdx, colLocation),
				Characteristic:       getCol(row, colIdx, colCharacteristic),
				ActivityStartDate:    getCol(row, colIdx, colActivityDate),
				Value:                getCol(row, colIdx, colValue),
				Units:                getCol(row, colIdx, colUnits),
				DetectionCondition:   getCol(row, colIdx, colDetection),
			},
			Latitude:  getCol(row, colIdx, colLatitude),
			Longitude: getCol(row, colIdx, colLongitude),
			Datum:     getCol(row, colIdx, colDatum),
		})
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "wqp: stream merged csv")
	}
	if first {
		return nil, eris.New("wqp: merged csv has no header row")
	}
	return out, nil
}

// mapColumns builds a lowercase column name -> index map from a CSV header row.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

// getCol gets a column value by name from a CSV record, returning empty string if not found.
func getCol(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[strings.ToLower(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
