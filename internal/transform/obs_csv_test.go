package transform

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

func TestObservationCSVRoundTrip(t *testing.T) {
	obs := []model.Observation{
		{
			SiteID:         "OKCONCOM-001",
			OrganizationID: "OKCONCOM_WQX",
			Latitude:       36.1234,
			Longitude:      -97.5678,
			Timestamp:      time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
			Value:          42.5,
			Unit:           "mg/l",
		},
		{
			SiteID:         "OKWRB-42",
			OrganizationID: "OKWRB-STREAMS_WQX",
			Latitude:       36.2,
			Longitude:      -97.6,
			Timestamp:      time.Date(2023, 7, 15, 8, 30, 0, 0, time.UTC),
			Value:          39.0,
			Unit:           "mg/l",
		},
	}

	path := filepath.Join(t.TempDir(), "volunteer.csv")
	require.NoError(t, SaveObservations(path, obs))

	got, err := LoadObservations(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, obs, got)
}

// Byte-identical output for identical input is part of the pipeline
// contract, so the serialized form is pinned here.
func TestSaveObservations_Deterministic(t *testing.T) {
	obs := []model.Observation{{
		SiteID:         "SITE-A",
		OrganizationID: "ORG",
		Latitude:       36.5,
		Longitude:      -97.25,
		Timestamp:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Value:          10.125,
		Unit:           "mg/l",
	}}

	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	require.NoError(t, SaveObservations(first, obs))
	require.NoError(t, SaveObservations(second, obs))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	want := "SiteID,OrganizationID,Latitude,Longitude,Timestamp,Value,Unit\n" +
		"SITE-A,ORG,36.5,-97.25,2024-01-02T00:00:00Z,10.125,mg/l\n"
	assert.Equal(t, want, string(a))
}

func TestSaveObservations_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, SaveObservations(path, nil))

	got, err := LoadObservations(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadObservations_MissingFile(t *testing.T) {
	_, err := LoadObservations(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadObservations_BadRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	data := "SiteID,OrganizationID,Latitude,Longitude,Timestamp,Value,Unit\n" +
		"SITE-A,ORG,not-a-float,-97.25,2024-01-02T00:00:00Z,10.125,mg/l\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := LoadObservations(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}
