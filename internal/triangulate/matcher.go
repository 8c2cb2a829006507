package triangulate

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/geodist"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// indexThreshold is the professional-collection size at which Match starts
// building an R-tree prefilter instead of scanning every candidate. The
// prefilter is transparent: output order and tie-breaks are identical.
const indexThreshold = 512

// Match pairs every volunteer observation with the professional observations
// inside p's distance and time tolerances. The result holds one group of
// pairs per volunteer observation, in volunteer-collection order; group
// contents follow p.Policy. Empty input collections yield an empty result,
// not an error. Observations are assumed valid (coordinates, timestamp,
// value); Match performs no field validation.
func Match(ctx context.Context, volunteer, professional []model.Observation, p Params) (model.MatchResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("component", "triangulate"))

	if len(volunteer) == 0 || len(professional) == 0 {
		log.Debug("empty input collection, nothing to match",
			zap.Int("volunteer", len(volunteer)),
			zap.Int("professional", len(professional)),
		)
		return model.MatchResult{}, nil
	}

	m := newMatcher(professional, p)

	workers := p.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(volunteer) {
		workers = len(volunteer)
	}

	// One pair group per volunteer observation, written by exactly one
	// worker, concatenated in volunteer order afterwards so output is
	// byte-identical regardless of worker count.
	groups := make([][]model.MatchedPair, len(volunteer))

	if workers <= 1 {
		scratch := newScanScratch(len(professional))
		for i := range volunteer {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "triangulate: match cancelled")
			}
			groups[i] = m.pairsFor(volunteer[i], scratch)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		chunk := (len(volunteer) + workers - 1) / workers
		for w := 0; w < workers; w++ {
			start := w * chunk
			end := min(start+chunk, len(volunteer))
			if start >= end {
				break
			}
			g.Go(func() error {
				scratch := newScanScratch(len(professional))
				for i := start; i < end; i++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					groups[i] = m.pairsFor(volunteer[i], scratch)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "triangulate: match cancelled")
		}
	}

	total := 0
	for _, grp := range groups {
		total += len(grp)
	}
	out := make(model.MatchResult, 0, total)
	for _, grp := range groups {
		out = append(out, grp...)
	}

	log.Debug("matching complete",
		zap.Int("volunteer", len(volunteer)),
		zap.Int("professional", len(professional)),
		zap.Int("pairs", total),
		zap.String("policy", string(p.Policy)),
		zap.Bool("indexed", m.idx != nil),
	)
	return out, nil
}

// matcher holds the per-run view of the professional collection: coordinate
// arrays for vectorized distance evaluation and the optional R-tree.
type matcher struct {
	pro     []model.Observation
	proLats []float64
	proLons []float64
	p       Params
	idx     *proIndex
}

func newMatcher(professional []model.Observation, p Params) *matcher {
	m := &matcher{
		pro:     professional,
		proLats: make([]float64, len(professional)),
		proLons: make([]float64, len(professional)),
		p:       p,
	}
	for i := range professional {
		m.proLats[i] = professional[i].Latitude
		m.proLons[i] = professional[i].Longitude
	}
	if len(professional) >= indexThreshold {
		m.idx = newProIndex(professional)
	}
	return m
}

// scanScratch is per-worker reusable buffer space for one volunteer scan.
type scanScratch struct {
	dists []float64
	cand  []int
	lats  []float64
	lons  []float64
}

func newScanScratch(pro int) *scanScratch {
	return &scanScratch{
		dists: make([]float64, 0, pro),
		cand:  make([]int, 0, 64),
		lats:  make([]float64, 0, 64),
		lons:  make([]float64, 0, 64),
	}
}

// pairsFor resolves one volunteer observation into its pair group. The
// returned slice never aliases scratch memory.
func (m *matcher) pairsFor(v model.Observation, scratch *scanScratch) []model.MatchedPair {
	if m.idx == nil {
		scratch.dists = geodist.MetersVec(v.Latitude, v.Longitude, m.proLats, m.proLons, scratch.dists)
		return m.resolve(v, nil, scratch.dists)
	}

	scratch.cand = m.idx.candidates(v.Latitude, v.Longitude, m.p.MaxDistanceM, scratch.cand[:0])
	if len(scratch.cand) == 0 {
		return nil
	}

	// Gather candidate coordinates so the exact distance pass stays
	// vectorized even when pruned.
	scratch.lats = scratch.lats[:0]
	scratch.lons = scratch.lons[:0]
	for _, j := range scratch.cand {
		scratch.lats = append(scratch.lats, m.proLats[j])
		scratch.lons = append(scratch.lons, m.proLons[j])
	}
	scratch.dists = geodist.MetersVec(v.Latitude, v.Longitude, scratch.lats, scratch.lons, scratch.dists)
	return m.resolve(v, scratch.cand, scratch.dists)
}

// resolve applies the tolerance filter and selection policy to a candidate
// set. cand maps positions in dists back to professional-collection indices;
// a nil cand means dists covers the whole collection. cand must be in
// ascending professional-collection order so that emit order and the
// nearest-policy tie-break match a full scan exactly.
func (m *matcher) resolve(v model.Observation, cand []int, dists []float64) []model.MatchedPair {
	n := len(dists)

	switch m.p.Policy {
	case PolicyAll:
		var out []model.MatchedPair
		for k := range n {
			j := k
			if cand != nil {
				j = cand[k]
			}
			if dists[k] > m.p.MaxDistanceM {
				continue
			}
			dt := absHours(v.Timestamp, m.pro[j].Timestamp)
			if dt > m.p.MaxTimeHours {
				continue
			}
			out = append(out, model.MatchedPair{
				Volunteer:     v,
				Professional:  m.pro[j],
				DistanceM:     dists[k],
				TimeDiffHours: dt,
			})
		}
		return out

	case PolicyNearest:
		best := -1
		bestDist := math.Inf(1)
		for k := range n {
			j := k
			if cand != nil {
				j = cand[k]
			}
			if dists[k] > m.p.MaxDistanceM {
				continue
			}
			if absHours(v.Timestamp, m.pro[j].Timestamp) > m.p.MaxTimeHours {
				continue
			}
			// Strict < keeps the first qualifying candidate on exact ties,
			// i.e. the lowest professional-collection index.
			if dists[k] < bestDist {
				best = j
				bestDist = dists[k]
			}
		}
		if best < 0 {
			return nil
		}
		return []model.MatchedPair{{
			Volunteer:     v,
			Professional:  m.pro[best],
			DistanceM:     bestDist,
			TimeDiffHours: absHours(v.Timestamp, m.pro[best].Timestamp),
		}}
	}

	return nil
}

func absHours(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours())
}
