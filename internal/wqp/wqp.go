// Package wqp extracts measurement results and station coordinates from
// the EPA Water Quality Portal and joins them into location-bearing
// records for the downstream transform.
package wqp

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/fetcher"
)

// DefaultBaseURL is the production Water Quality Portal endpoint.
const DefaultBaseURL = "https://www.waterqualitydata.us"

const (
	resultEndpoint  = "/data/Result/search"
	stationEndpoint = "/data/Station/search"
	codesEndpoint   = "/Codes/statecode"
)

// Query identifies one portal extraction window. Dates use the portal's
// MM-DD-YYYY convention.
type Query struct {
	StateCode      string
	Characteristic string
	SiteType       string
	SampleMedia    string
	StartDate      string
	EndDate        string
}

// Client downloads portal exports through the shared fetcher layer.
type Client struct {
	fetcher fetcher.Fetcher
	baseURL string
}

// NewClient creates a portal client. An empty baseURL selects the
// production portal.
func NewClient(f fetcher.Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) searchURL(endpoint string, q Query) string {
	v := url.Values{}
	v.Set("statecode", q.StateCode)
	v.Set("characteristicName", q.Characteristic)
	v.Set("siteType", q.SiteType)
	v.Set("sampleMedia", q.SampleMedia)
	v.Set("startDateLo", q.StartDate)
	v.Set("startDateHi", q.EndDate)
	v.Set("mimeType", "csv")
	v.Set("zip", "yes")
	return c.baseURL + endpoint + "?" + v.Encode()
}

// FetchResults downloads the zipped result export and returns the path of
// the extracted CSV.
func (c *Client) FetchResults(ctx context.Context, q Query, rawDir string) (string, error) {
	return c.fetchExport(ctx, resultEndpoint, q, rawDir, "results")
}

// FetchStations downloads the zipped station export and returns the path
// of the extracted CSV.
func (c *Client) FetchStations(ctx context.Context, q Query, rawDir string) (string, error) {
	return c.fetchExport(ctx, stationEndpoint, q, rawDir, "stations")
}

// fetchExport downloads one zipped export into rawDir and renames the CSV
// inside it to stem.csv. The raw CSV stays on disk for audit.
func (c *Client) fetchExport(ctx context.Context, endpoint string, q Query, rawDir, stem string) (string, error) {
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return "", eris.Wrap(err, "wqp: create raw dir")
	}

	zipPath := filepath.Join(rawDir, stem+".zip")
	if _, err := c.fetcher.DownloadToFile(ctx, c.searchURL(endpoint, q), zipPath); err != nil {
		return "", eris.Wrapf(err, "wqp: download %s export", stem)
	}

	files, err := fetcher.ExtractZIP(zipPath, rawDir)
	if err != nil {
		return "", eris.Wrapf(err, "wqp: extract %s export", stem)
	}

	// Find the first CSV in the archive contents
	var csvPath string
	for _, fp := range files {
		if strings.HasSuffix(strings.ToLower(fp), ".csv") {
			csvPath = fp
			break
		}
	}
	if csvPath == "" {
		return "", eris.Errorf("wqp: no CSV found in %s export", stem)
	}

	finalPath := filepath.Join(rawDir, stem+".csv")
	if csvPath != finalPath {
		if err := os.Rename(csvPath, finalPath); err != nil {
			return "", eris.Wrapf(err, "wqp: rename %s csv", stem)
		}
	}
	_ = os.Remove(zipPath)

	return finalPath, nil
}

// ExtractStats counts what one extraction produced.
type ExtractStats struct {
	ResultRows        int
	StationRows       int
	MergedRows        int
	MissingStation    int
	DuplicateStations int
	ResultsCSV        string
	StationsCSV       string
	MergedCSV         string
}

// Extract runs the full portal extraction: both exports download
// concurrently, the CSVs are stream-decoded into narrow projections,
// results are joined to station coordinates, and the merged records are
// written to merged.csv next to the raw exports.
func (c *Client) Extract(ctx context.Context, q Query, rawDir string) ([]Record, ExtractStats, error) {
	log := zap.L().With(zap.String("component", "wqp"))
	var stats ExtractStats

	log.Info("downloading portal exports",
		zap.String("state", q.StateCode),
		zap.String("characteristic", q.Characteristic),
		zap.String("start", q.StartDate),
		zap.String("end", q.EndDate),
	)

	var resultsPath, stationsPath string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.FetchResults(gctx, q, rawDir)
		resultsPath = p
		return err
	})
	g.Go(func() error {
		p, err := c.FetchStations(gctx, q, rawDir)
		stationsPath = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	results, err := ReadResults(ctx, resultsPath)
	if err != nil {
		return nil, stats, err
	}
	stations, err := ReadStations(ctx, stationsPath)
	if err != nil {
		return nil, stats, err
	}

	records, mergeStats := Merge(results, stations)
	if mergeStats.MissingStation > 0 {
		log.Warn("dropped results without a matching station",
			zap.Int("count", mergeStats.MissingStation),
		)
	}

	mergedPath := filepath.Join(rawDir, "merged.csv")
	if err := WriteMergedCSV(mergedPath, records); err != nil {
		return nil, stats, err
	}

	stats = ExtractStats{
		ResultRows:        len(results),
		StationRows:       len(stations),
		MergedRows:        len(records),
		MissingStation:    mergeStats.MissingStation,
		DuplicateStations: mergeStats.DuplicateStations,
		ResultsCSV:        resultsPath,
		StationsCSV:       stationsPath,
		MergedCSV:         mergedPath,
	}

	log.Info("extraction complete",
		zap.Int("results", stats.ResultRows),
		zap.Int("stations", stats.StationRows),
		zap.Int("merged", stats.MergedRows),
		zap.String("file", mergedPath),
	)

	return records, stats, nil
}
