// Package transform validates merged portal records into observations and
// splits them into volunteer and professional sets.
package transform

import (
	"strconv"
	"time"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/wqp"
)

// CleanStats counts input records dropped per rule.
type CleanStats struct {
	Input               int
	Kept                int
	WrongCharacteristic int
	BadCoordinates      int
	MissingValue        int
	DetectionCondition  int
	BadValue            int
	NegativeValue       int
	BadDate             int
}

// Dropped returns the total number of records removed.
func (s CleanStats) Dropped() int { return s.Input - s.Kept }

// Date layouts the portal emits for ActivityStartDate.
var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05"}

// Clean validates merged records and converts the survivors into
// observations, preserving input order. A record is dropped when its
// characteristic is not exactly the configured one, its coordinates do
// not parse, its value is missing, annotated with a detection condition
// (non-detects carry substituted values, not measurements), non-numeric
// or negative, or its activity date does not parse. Every drop reason is
// counted.
func Clean(records []wqp.Record, characteristic string) ([]model.Observation, CleanStats) {
	stats := CleanStats{Input: len(records)}
	out := make([]model.Observation, 0, len(records))

	for _, rec := range records {
		if rec.Characteristic != characteristic {
			stats.WrongCharacteristic++
			continue
		}

		lat, latErr := strconv.ParseFloat(rec.Latitude, 64)
		lon, lonErr := strconv.ParseFloat(rec.Longitude, 64)
		if rec.Latitude == "" || rec.Longitude == "" || latErr != nil || lonErr != nil {
			stats.BadCoordinates++
			continue
		}

		if rec.Value == "" {
			stats.MissingValue++
			continue
		}
		if rec.DetectionCondition != "" {
			stats.DetectionCondition++
			continue
		}
		val, err := strconv.ParseFloat(rec.Value, 64)
		if err != nil {
			stats.BadValue++
			continue
		}
		if val < 0 {
			stats.NegativeValue++
			continue
		}

		ts, ok := parseActivityDate(rec.ActivityStartDate)
		if !ok {
			stats.BadDate++
			continue
		}

		out = append(out, model.Observation{
			SiteID:         rec.MonitoringLocationID,
			OrganizationID: rec.OrganizationID,
			Latitude:       lat,
			Longitude:      lon,
			Timestamp:      ts,
			Value:          val,
			Unit:           rec.Units,
		})
	}

	stats.Kept = len(out)
	return out, stats
}

func parseActivityDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
