package wqp

// MergeStats counts what the station join kept and dropped.
type MergeStats struct {
	Joined            int
	MissingStation    int
	DuplicateStations int
}

// Merge joins results to station coordinates on the monitoring location
// id. Stations are de-duplicated first-wins, matching the portal's export
// order. Results without a station carry no usable coordinates and are
// dropped, counted in MissingStation. Result order is preserved.
func Merge(results []Result, stations []Station) ([]Record, MergeStats) {
	var stats MergeStats

	byLocation := make(map[string]Station, len(stations))
	for _, s := range stations {
		if s.MonitoringLocationID == "" {
			continue
		}
		if _, ok := byLocation[s.MonitoringLocationID]; ok {
			stats.DuplicateStations++
			continue
		}
		byLocation[s.MonitoringLocationID] = s
	}

	records := make([]Record, 0, len(results))
	for _, r := range results {
		s, ok := byLocation[r.MonitoringLocationID]
		if !ok {
			stats.MissingStation++
			continue
		}
		records = append(records, Record{
			Result:    r,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Datum:     s.Datum,
		})
	}
	stats.Joined = len(records)

	return records, stats
}
