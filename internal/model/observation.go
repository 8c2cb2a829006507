package model

import "time"

// Observation is one measurement record from either population. By the time
// an Observation reaches the matching engine, latitude, longitude, timestamp,
// and value are all valid; the transform stage drops anything else.
type Observation struct {
	SiteID         string    `json:"site_id"`
	OrganizationID string    `json:"organization_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Timestamp      time.Time `json:"timestamp"`
	Value          float64   `json:"value"`
	Unit           string    `json:"unit,omitempty"` // carried as metadata, never converted
}

// MatchedPair joins one volunteer and one professional observation that fall
// within the configured distance and time tolerances. Pairs are immutable
// once produced by the matching engine.
type MatchedPair struct {
	Volunteer     Observation `json:"volunteer"`
	Professional  Observation `json:"professional"`
	DistanceM     float64     `json:"distance_m"`
	TimeDiffHours float64     `json:"time_diff_hours"`
}

// MatchResult is the ordered output of a matching run: one group of pairs
// per volunteer observation in volunteer-collection order, and within each
// group professional-collection order ("all" policy) or a single entry
// ("nearest" policy).
type MatchResult []MatchedPair

// RegressionSummary holds the ordinary least-squares fit of volunteer values
// (y) against professional values (x) across all matched pairs.
type RegressionSummary struct {
	N         int     `json:"n" yaml:"n"`
	Slope     float64 `json:"slope" yaml:"slope"`
	Intercept float64 `json:"intercept" yaml:"intercept"`
	RSquared  float64 `json:"r_squared" yaml:"r_squared"`
	PValue    float64 `json:"p_value" yaml:"p_value"`
	StdErr    float64 `json:"std_err" yaml:"std_err"`
}
