package surface

import (
	"math"
	"testing"

	"backend-trailforge/internal/gpx"
)

func TestAnalyzeDegenerateInput(t *testing.T) {
	for _, points := range [][]gpx.TrackPoint{nil, {}, {{Lon: 106.8, Lat: -6.2}}} {
		a := Analyze(points)
		if len(a.SurfaceTypes) != 1 || a.SurfaceTypes[0].Type != TypeUnknown {
			t.Fatalf("expected single unknown segment, got %+v", a.SurfaceTypes)
		}
		if a.SurfaceTypes[0].Percentage != 100 || a.SurfaceTypes[0].DistanceM != 0 {
			t.Fatalf("unexpected fallback segment: %+v", a.SurfaceTypes[0])
		}
		if len(a.ElevationProfile) != 0 {
			t.Fatalf("expected empty profile")
		}
		if a.TotalDistanceM != 0 || a.Roughness != 0 || a.DifficultyRating != 0 || a.SurfaceQuality != 0 {
			t.Fatalf("expected neutral scores: %+v", a)
		}
	}
}

func TestAnalyzeTrack(t *testing.T) {
	points := []gpx.TrackPoint{
		{Lon: 106.8, Lat: -6.2},
		{Lon: 106.81, Lat: -6.21},
		{Lon: 106.82, Lat: -6.22},
	}
	a := Analyze(points)

	if a.TotalDistanceM <= 0 {
		t.Fatalf("expected positive total distance")
	}
	if len(a.ElevationProfile) != len(points) {
		t.Fatalf("expected one profile point per coordinate")
	}
	if a.ElevationProfile[0].DistanceM != 0 {
		t.Fatalf("expected profile to start at zero")
	}
	last := a.ElevationProfile[len(a.ElevationProfile)-1]
	if math.Abs(last.DistanceM-a.TotalDistanceM) > 1e-9 {
		t.Fatalf("expected profile to end at total distance")
	}
	for i := 1; i < len(a.ElevationProfile); i++ {
		if a.ElevationProfile[i].DistanceM < a.ElevationProfile[i-1].DistanceM {
			t.Fatalf("cumulative distance must be non-decreasing")
		}
	}
	for _, p := range a.ElevationProfile {
		if p.ElevationM != 0 || p.Grade != 0 {
			t.Fatalf("expected elevations pending enrichment, got %+v", p)
		}
	}
}

func TestAnalyzePercentageClosure(t *testing.T) {
	points := []gpx.TrackPoint{
		{Lon: 147.32, Lat: -42.88},
		{Lon: 147.33, Lat: -42.89},
		{Lon: 147.35, Lat: -42.9},
		{Lon: 147.36, Lat: -42.92},
	}
	a := Analyze(points)

	var sum float64
	for _, seg := range a.SurfaceTypes {
		if seg.Percentage < 0 || seg.Percentage > 100 {
			t.Fatalf("percentage out of range: %v", seg.Percentage)
		}
		if seg.DistanceM < 0 {
			t.Fatalf("negative segment distance")
		}
		sum += seg.Percentage
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages must sum to 100, got %v", sum)
	}
}
