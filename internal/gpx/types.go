package gpx

import "backend-trailforge/internal/geo"

// TrackPoint is a single (longitude, latitude) sample from a GPS track.
// Coordinates are rounded to 5 decimal places when the point is created
// and never mutated afterwards.
type TrackPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func NewTrackPoint(lon, lat float64) TrackPoint {
	return TrackPoint{
		Lon: geo.RoundCoordinate(lon),
		Lat: geo.RoundCoordinate(lat),
	}
}

// Track is the parsed content of one GPX upload: the ordered point
// sequence and the track name, if the file carried one.
type Track struct {
	Name   string
	Points []TrackPoint
}

// TotalDistance sums pairwise haversine distances over consecutive
// points. Zero or one point yields zero.
func TotalDistance(points []TrackPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += geo.Haversine(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return total
}
