// Package triangulate pairs volunteer and professional observations by
// proximity in space and time, then summarizes agreement between the two
// populations with an ordinary least-squares fit.
package triangulate

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Policy selects how multiple qualifying professional candidates for one
// volunteer observation resolve into matched pairs.
//
// Under PolicyAll the same professional observation can appear in pairs for
// many different volunteer observations. Those pairs are not statistically
// independent samples, which inflates n for the downstream regression;
// accepted behavior, worth remembering when reading r-squared.
type Policy string

const (
	// PolicyAll emits one pair per qualifying professional observation, in
	// professional-collection order.
	PolicyAll Policy = "all"

	// PolicyNearest emits at most one pair per volunteer observation: the
	// qualifying candidate at minimal distance, ties broken by the lowest
	// professional-collection index.
	PolicyNearest Policy = "nearest"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyAll:
		return PolicyAll, nil
	case PolicyNearest:
		return PolicyNearest, nil
	default:
		return "", eris.Errorf("unknown match policy %q (want %q or %q)", s, PolicyAll, PolicyNearest)
	}
}

// Params bounds one matching run. Both tolerances are inclusive: a candidate
// at exactly MaxDistanceM and exactly MaxTimeHours is a valid match.
type Params struct {
	MaxDistanceM float64
	MaxTimeHours float64
	Policy       Policy

	// Workers caps the goroutines fanning out the volunteer scan. 0 means
	// GOMAXPROCS, 1 forces a sequential scan. Output is identical for any
	// value; pair groups are reassembled in volunteer-collection order.
	Workers int
}

// Validate reports configuration errors before any matching begins.
func (p Params) Validate() error {
	if p.MaxDistanceM <= 0 {
		return eris.Errorf("max distance must be positive, got %g", p.MaxDistanceM)
	}
	if p.MaxTimeHours <= 0 {
		return eris.Errorf("max time difference must be positive, got %g", p.MaxTimeHours)
	}
	if p.Policy != PolicyAll && p.Policy != PolicyNearest {
		return eris.Errorf("unknown match policy %q (want %q or %q)", p.Policy, PolicyAll, PolicyNearest)
	}
	if p.Workers < 0 {
		return eris.Errorf("workers must be non-negative, got %d", p.Workers)
	}
	return nil
}
