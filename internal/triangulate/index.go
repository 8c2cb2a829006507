package triangulate

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/geodist"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	rtreeDimensions  = 2

	// pointExtent pads each indexed coordinate into a valid (non-degenerate)
	// rectangle. Far below coordinate precision, so it never admits extra
	// candidates beyond the bounding-box superset.
	pointExtent = 1e-9
)

// proIndex is an R-tree over professional coordinates used to prune the
// candidate set for one volunteer observation. It only ever removes
// candidates that cannot be within range; exact filtering, ordering, and
// tie-breaking stay with the caller.
type proIndex struct {
	tree *rtreego.Rtree
	n    int
}

type proEntry struct {
	idx  int
	rect rtreego.Rect
}

func (e *proEntry) Bounds() *rtreego.Rect { return &e.rect }

func newProIndex(obs []model.Observation) *proIndex {
	tree := rtreego.NewTree(rtreeDimensions, rtreeMinChildren, rtreeMaxChildren)
	for i := range obs {
		pt := rtreego.Point{obs[i].Latitude, obs[i].Longitude}
		rect := pt.ToRect(pointExtent)
		tree.Insert(&proEntry{idx: i, rect: *rect})
	}
	return &proIndex{tree: tree, n: len(obs)}
}

// candidates appends the professional-collection indices whose coordinates
// may lie within radiusM of (lat, lon), in ascending index order. The box is
// widened so it is always a superset of the search disc; when the box would
// cross the antimeridian or a pole the prefilter degrades to the full
// collection rather than risk dropping a candidate.
func (x *proIndex) candidates(lat, lon, radiusM float64, dst []int) []int {
	latDeg := (radiusM / geodist.EarthRadiusM) * (180 / math.Pi)

	// Longitude degrees shrink with latitude; divide by cos(lat) so the box
	// stays a superset of the disc away from the equator.
	cosLat := math.Cos(lat * math.Pi / 180)
	lonDeg := 180.0
	if cosLat > 1e-9 {
		lonDeg = latDeg / cosLat
	}

	if lat-latDeg < -90 || lat+latDeg > 90 || lon-lonDeg < -180 || lon+lonDeg > 180 {
		for i := range x.n {
			dst = append(dst, i)
		}
		return dst
	}

	bounds, err := rtreego.NewRect(
		rtreego.Point{lat - latDeg, lon - lonDeg},
		[]float64{2 * latDeg, 2 * lonDeg},
	)
	if err != nil {
		for i := range x.n {
			dst = append(dst, i)
		}
		return dst
	}

	for _, r := range x.tree.SearchIntersect(bounds) {
		dst = append(dst, r.(*proEntry).idx)
	}
	sort.Ints(dst)
	return dst
}
