package wqp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResults(t *testing.T) {
	results, err := decodeResults(context.Background(), strings.NewReader(testResultsCSV))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "OKCONCOM_WQX", results[0].OrganizationID)
	assert.Equal(t, "OKCONCOM-001", results[0].MonitoringLocationID)
	assert.Equal(t, "Chloride", results[0].Characteristic)
	assert.Equal(t, "2023-06-01", results[0].ActivityStartDate)
	assert.Equal(t, "120", results[0].Value)
	assert.Equal(t, "mg/l", results[0].Units)
	assert.Empty(t, results[0].DetectionCondition)
}

func TestDecodeResults_CaseInsensitiveHeader(t *testing.T) {
	input := "organizationidentifier,RESULTMEASUREVALUE\nOKWRB,42\n"
	results, err := decodeResults(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "OKWRB", results[0].OrganizationID)
	assert.Equal(t, "42", results[0].Value)
}

func TestDecodeResults_MissingColumnsAreEmpty(t *testing.T) {
	input := "OrganizationIdentifier\nOKWRB\n"
	results, err := decodeResults(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Value)
	assert.Empty(t, results[0].MonitoringLocationID)
}

func TestDecodeResults_NoHeader(t *testing.T) {
	_, err := decodeResults(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestDecodeStations(t *testing.T) {
	stations, err := decodeStations(context.Background(), strings.NewReader(testStationsCSV))
	require.NoError(t, err)
	require.Len(t, stations, 2)

	assert.Equal(t, "OKCONCOM-001", stations[0].MonitoringLocationID)
	assert.Equal(t, "35.5", stations[0].Latitude)
	assert.Equal(t, "-97.4", stations[0].Longitude)
	assert.Equal(t, "NAD83", stations[0].Datum)
}

func TestMergedCSVRoundTrip(t *testing.T) {
	records := []Record{
		{
			Result: Result{
				OrganizationID:       "OKCONCOM_WQX",
				MonitoringLocationID: "OKCONCOM-001",
				Characteristic:       "Chloride",
				ActivityStartDate:    "2023-06-01",
				Value:                "120",
				Units:                "mg/l",
			},
			Latitude:  "35.5",
			Longitude: "-97.4",
			Datum:     "NAD83",
		},
		{
			Result: Result{
				OrganizationID:       "OKWRB-STREAMS_WQX",
				MonitoringLocationID: "OKWRB-42",
				Characteristic:       "Chloride",
				ActivityStartDate:    "2023-06-02",
				Value:                "115",
				Units:                "mg/l",
				DetectionCondition:   "Not Detected",
			},
			Latitude:  "35.6",
			Longitude: "-97.5",
			Datum:     "NAD83",
		},
	}

	path := filepath.Join(t.TempDir(), "merged.csv")
	require.NoError(t, WriteMergedCSV(path, records))

	got, err := ReadMergedCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}
