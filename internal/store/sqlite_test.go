package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func makeRun() *model.Run {
	return &model.Run{
		Status: model.RunStatusComplete,
		Config: model.RunConfig{
			Characteristic: "Chloride",
			StateCode:      "US:40",
			StartDate:      "01-01-2023",
			EndDate:        "12-31-2023",
			MaxDistanceM:   500,
			MaxTimeHours:   24,
			Strategy:       "nearest",
		},
		VolunteerCount:    120,
		ProfessionalCount: 340,
		PairCount:         2,
		Summary: &model.RegressionSummary{
			N: 2, Slope: 1.5, Intercept: 0.9, RSquared: 0.81, PValue: 0.023, StdErr: 0.12,
		},
	}
}

func makePairs() model.MatchResult {
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
	proB := proA
	proB.SiteID = "OKWRB-57"
	proB.Value = 44.25

	return model.MatchResult{
		{Volunteer: vol, Professional: proA, DistanceM: 312.5, TimeDiffHours: 8.5},
		{Volunteer: vol, Professional: proB, DistanceM: 960.75, TimeDiffHours: 6},
	}
}

func TestSQLiteSaveRunAndGetRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := makeRun()
	require.NoError(t, st.SaveRun(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, 120, got.VolunteerCount)
	assert.Equal(t, 340, got.ProfessionalCount)
	assert.Equal(t, 2, got.PairCount)
	require.NotNil(t, got.Summary)
	assert.Equal(t, *run.Summary, *got.Summary)
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)
	assert.WithinDuration(t, run.UpdatedAt, got.UpdatedAt, time.Second)
}

func TestSQLiteGetRunMissing(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetRun(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteSaveRunUpsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := makeRun()
	run.Status = model.RunStatusRunning
	run.Summary = nil
	require.NoError(t, st.SaveRun(ctx, run))
	createdAt := run.CreatedAt

	run.Status = model.RunStatusFailed
	run.Error = "matching failed: no observations"
	run.PairCount = 0
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "matching failed: no observations", got.Error)
	assert.Equal(t, 0, got.PairCount)
	assert.Nil(t, got.Summary)
	assert.WithinDuration(t, createdAt, got.CreatedAt, time.Second)
}

func TestSQLiteUpdateRunStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := makeRun()
	run.Status = model.RunStatusRunning
	require.NoError(t, st.SaveRun(ctx, run))

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed, "fetch timed out"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "fetch timed out", got.Error)
}

func TestSQLiteUpdateRunStatusMissing(t *testing.T) {
	st := newTestStore(t)

	err := st.UpdateRunStatus(context.Background(), "no-such-run", model.RunStatusComplete, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLiteListRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := makeRun()
	require.NoError(t, st.SaveRun(ctx, first))
	time.Sleep(20 * time.Millisecond)
	second := makeRun()
	second.Status = model.RunStatusFailed
	require.NoError(t, st.SaveRun(ctx, second))

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Newest first.
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, second.ID, failed[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)

	offsetted, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, offsetted, 1)
	assert.Equal(t, first.ID, offsetted[0].ID)
}

func TestSQLiteListRunsCreatedAfter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := makeRun()
	require.NoError(t, st.SaveRun(ctx, first))
	time.Sleep(20 * time.Millisecond)
	cutoff := time.Now().UTC()
	time.Sleep(20 * time.Millisecond)
	second := makeRun()
	require.NoError(t, st.SaveRun(ctx, second))

	runs, err := st.ListRuns(ctx, RunFilter{CreatedAfter: cutoff})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.ID, runs[0].ID)
}

func TestSQLiteSavePairsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := makeRun()
	require.NoError(t, st.SaveRun(ctx, run))

	pairs := makePairs()
	require.NoError(t, st.SavePairs(ctx, run.ID, pairs))

	count, err := st.CountPairs(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := st.ListPairs(ctx, run.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "BLUETHUMB-12", got[0].Volunteer.SiteID)
	assert.Equal(t, "OKCONCOM_WQX", got[0].Volunteer.OrganizationID)
	assert.Equal(t, 42.5, got[0].Volunteer.Value)
	assert.Equal(t, "mg/l", got[0].Volunteer.Unit)
	assert.Equal(t, "OKWRB-42", got[0].Professional.SiteID)
	assert.Equal(t, 312.5, got[0].DistanceM)
	assert.Equal(t, 8.5, got[0].TimeDiffHours)
	assert.WithinDuration(t, pairs[0].Volunteer.Timestamp, got[0].Volunteer.Timestamp, time.Second)
	assert.WithinDuration(t, pairs[0].Professional.Timestamp, got[0].Professional.Timestamp, time.Second)

	assert.Equal(t, "OKWRB-57", got[1].Professional.SiteID)
	assert.Equal(t, 44.25, got[1].Professional.Value)
}

func TestSQLiteListPairsLimitOffset(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := makeRun()
	require.NoError(t, st.SaveRun(ctx, run))
	require.NoError(t, st.SavePairs(ctx, run.ID, makePairs()))

	page, err := st.ListPairs(ctx, run.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "OKWRB-42", page[0].Professional.SiteID)

	page, err = st.ListPairs(ctx, run.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "OKWRB-57", page[0].Professional.SiteID)
}

func TestSQLiteSavePairsEmpty(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := makeRun()
	require.NoError(t, st.SaveRun(ctx, run))
	require.NoError(t, st.SavePairs(ctx, run.ID, nil))

	count, err := st.CountPairs(ctx, run.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteSavePairsUnknownRun(t *testing.T) {
	st := newTestStore(t)

	// matched_pairs.run_id references runs(id), and foreign keys are on.
	err := st.SavePairs(context.Background(), "no-such-run", makePairs())
	require.Error(t, err)
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	run := makeRun()
	require.NoError(t, st.SaveRun(ctx, run))
	require.NoError(t, st.Close())

	st, err = NewSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.ID)
}
