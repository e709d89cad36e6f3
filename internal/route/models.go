package route

import (
	"backend-trailforge/internal/gpx"
	"backend-trailforge/internal/surface"
)

// ProcessingState is the lifecycle of one upload. Completed and failed
// are terminal.
type ProcessingState string

const (
	StatePending    ProcessingState = "pending"
	StateProcessing ProcessingState = "processing"
	StateCompleted  ProcessingState = "completed"
	StateFailed     ProcessingState = "failed"
)

type ProcessingStatus struct {
	State    ProcessingState `json:"processingState"`
	Progress int             `json:"progress"`
}

// Statistics summarizes the route. Gain and loss are sums of positive
// and negative deltas over the resolved elevation samples, never
// derived from the profile's grade field.
type Statistics struct {
	TotalDistance float64 `json:"totalDistance"`
	ElevationGain float64 `json:"elevationGain"`
	ElevationLoss float64 `json:"elevationLoss"`
	MaxElevation  float64 `json:"maxElevation"`
	MinElevation  float64 `json:"minElevation"`
	AverageSpeed  float64 `json:"averageSpeed"`
	MovingTime    int64   `json:"movingTime"`
	TotalTime     int64   `json:"totalTime"`
}

// MatchInfo records the outcome of the optional map-matching stage.
type MatchInfo struct {
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
}

// Minimal GeoJSON types for the route geometry.

type Geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// LineString wraps a coordinate sequence as a single-feature GeoJSON
// collection.
func LineString(coords [][]float64) FeatureCollection {
	return FeatureCollection{
		Type: "FeatureCollection",
		Features: []Feature{{
			Type:       "Feature",
			Properties: map[string]any{},
			Geometry: Geometry{
				Type:        "LineString",
				Coordinates: coords,
			},
		}},
	}
}

// Coords flattens track points into GeoJSON position order (lon, lat).
func Coords(points []gpx.TrackPoint) [][]float64 {
	coords := make([][]float64, len(points))
	for i, pt := range points {
		coords[i] = []float64{pt.Lon, pt.Lat}
	}
	return coords
}

// ProcessedRoute is the pipeline's output, handed to the persistence
// collaborator once processing completes. The pipeline never mutates
// it after construction.
type ProcessedRoute struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Color      string            `json:"color"`
	IsVisible  bool              `json:"isVisible"`
	GeoJSON    FeatureCollection `json:"geojson"`
	Surface    surface.Analysis  `json:"surface"`
	Statistics Statistics        `json:"statistics"`
	Status     ProcessingStatus  `json:"status"`
	Matching   *MatchInfo        `json:"matching,omitempty"`
}
