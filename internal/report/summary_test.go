package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary_statistics.txt")
	require.NoError(t, WriteSummary(path, testRun()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	wantStats := "Blue Thumb Virtual Triangulation - Summary Statistics\n" +
		strings.Repeat("=", 55) + "\n" +
		"\n" +
		"Matched Pairs:       2\n" +
		"Volunteer Obs:       10\n" +
		"Professional Obs:    25\n" +
		"\n" +
		"Sample Size (N):     2\n" +
		"R-squared:           0.810000\n" +
		"Slope:               0.900000\n" +
		"Intercept:           1.500000\n" +
		"P-value:             2.30e-02\n" +
		"Standard Error:      0.120000\n"
	assert.True(t, strings.HasPrefix(text, wantStats), "unexpected stats block:\n%s", text)

	assert.Contains(t, text, "Run Configuration")
	assert.Contains(t, text, "characteristic: Chloride")
	assert.Contains(t, text, "strategy: nearest")
	assert.Contains(t, text, "max_distance_meters: 500")
	assert.Contains(t, text, "max_time_hours: 24")
}

func TestWriteSummary_NoFit(t *testing.T) {
	run := testRun()
	run.Summary = nil
	run.PairCount = 1

	path := filepath.Join(t.TempDir(), "summary_statistics.txt")
	require.NoError(t, WriteSummary(path, run))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Matched Pairs:       1")
	assert.Contains(t, text, "No regression computed (fewer than 2 matched pairs).")
	assert.NotContains(t, text, "R-squared:")
}

func TestWriteSummary_CreateError(t *testing.T) {
	err := WriteSummary(filepath.Join(t.TempDir(), "missing", "summary.txt"), testRun())
	assert.Error(t, err)
}
