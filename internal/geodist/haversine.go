// Package geodist provides great-circle distance on a spherical Earth.
package geodist

import "math"

// EarthRadiusM is the mean Earth radius in meters used by all distance
// calculations in this module.
const EarthRadiusM = 6371000.0

const degToRad = math.Pi / 180.0

// Meters returns the haversine distance in meters between two WGS84
// coordinates given in decimal degrees. Latitudes outside [-90, 90] are not
// validated and produce undefined results.
func Meters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * degToRad
	lat2Rad := lat2 * degToRad

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	a := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// MetersVec computes the haversine distance in meters from one fixed
// coordinate to every coordinate in lats/lons, hoisting the fixed point's
// trigonometry out of the loop. The result is written into dst when its
// capacity suffices, otherwise a new slice is allocated. lats and lons must
// have equal length.
func MetersVec(lat, lon float64, lats, lons []float64, dst []float64) []float64 {
	if len(lats) != len(lons) {
		panic("geodist: lats and lons length mismatch")
	}

	if cap(dst) >= len(lats) {
		dst = dst[:len(lats)]
	} else {
		dst = make([]float64, len(lats))
	}

	latRad := lat * degToRad
	cosLat := math.Cos(latRad)

	for i := range lats {
		dLat := (lats[i] - lat) * degToRad
		dLon := (lons[i] - lon) * degToRad

		sinLat := math.Sin(dLat / 2)
		sinLon := math.Sin(dLon / 2)

		a := sinLat*sinLat + cosLat*math.Cos(lats[i]*degToRad)*sinLon*sinLon
		c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
		dst[i] = EarthRadiusM * c
	}

	return dst
}
