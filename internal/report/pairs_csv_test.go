package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

func testPairs() model.MatchResult {
	vol := model.Observation{
		SiteID:         "BLUETHUMB-12",
		OrganizationID: "OKCONCOM_WQX",
		Latitude:       36.1234,
		Longitude:      -97.5678,
		Timestamp:      time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
		Value:          42.5,
		Unit:           "mg/l",
	}
	proA := model.Observation{
		SiteID:         "OKWRB-42",
		OrganizationID: "OKWRB-STREAMS_WQX",
		Latitude:       36.125,
		Longitude:      -97.57,
		Timestamp:      time.Date(2023, 7, 15, 8, 30, 0, 0, time.UTC),
		Value:          39,
		Unit:           "mg/l",
	}
	proB := model.Observation{
		SiteID:         "OKWRB-57",
		OrganizationID: "OKWRB-STREAMS_WQX",
		Latitude:       36.13,
		Longitude:      -97.56,
		Timestamp:      time.Date(2023, 7, 14, 18, 0, 0, 0, time.UTC),
		Value:          44.25,
		Unit:           "mg/l",
	}
	return model.MatchResult{
		{Volunteer: vol, Professional: proA, DistanceM: 312.5, TimeDiffHours: 8.5},
		{Volunteer: vol, Professional: proB, DistanceM: 960.75, TimeDiffHours: 6},
	}
}

func testRun() *model.Run {
	return &model.Run{
		ID:     "1f0c3a56-9f2d-4a41-8a7e-2d2b7c0f5a19",
		Status: model.RunStatusComplete,
		Config: model.RunConfig{
			Characteristic:   "Chloride",
			StateCode:        "US:40",
			StartDate:        "01-01-2023",
			EndDate:          "12-31-2023",
			MaxDistanceM:     500,
			MaxTimeHours:     24,
			Strategy:         "nearest",
			MinConcentration: 0,
		},
		VolunteerCount:    10,
		ProfessionalCount: 25,
		PairCount:         2,
		Summary: &model.RegressionSummary{
			N:         2,
			Slope:     0.9,
			Intercept: 1.5,
			RSquared:  0.81,
			PValue:    0.023,
			StdErr:    0.12,
		},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWritePairsCSV_HeaderContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	require.NoError(t, WritePairsCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "Vol_SiteID,Pro_SiteID,Vol_Organization,Pro_Organization," +
		"Vol_Value,Pro_Value,Vol_Units,Pro_Units,Vol_DateTime,Pro_DateTime," +
		"Vol_Lat,Vol_Lon,Pro_Lat,Pro_Lon,Distance_m,Time_Diff_hours\n"
	assert.Equal(t, want, string(data))
}

func TestWritePairsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	require.NoError(t, WritePairsCSV(path, testPairs()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[1]
	assert.Equal(t, "BLUETHUMB-12", first[0])
	assert.Equal(t, "OKWRB-42", first[1])
	assert.Equal(t, "OKCONCOM_WQX", first[2])
	assert.Equal(t, "OKWRB-STREAMS_WQX", first[3])
	assert.Equal(t, "42.5", first[4])
	assert.Equal(t, "39", first[5])
	assert.Equal(t, "mg/l", first[6])
	assert.Equal(t, "2023-07-15T00:00:00Z", first[8])
	assert.Equal(t, "2023-07-15T08:30:00Z", first[9])
	assert.Equal(t, "36.1234", first[10])
	assert.Equal(t, "-97.5678", first[11])
	assert.Equal(t, "312.5", first[14])
	assert.Equal(t, "8.5", first[15])
}

func TestWritePairsCSV_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, WritePairsCSV(a, testPairs()))
	require.NoError(t, WritePairsCSV(b, testPairs()))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestWritePairsCSV_CreateError(t *testing.T) {
	err := WritePairsCSV(filepath.Join(t.TempDir(), "missing", "pairs.csv"), testPairs())
	assert.Error(t, err)
}
