package geo

import (
	"math"
	"testing"
)

func TestHaversineOneDegreeLatitude(t *testing.T) {
	// (0,0) to (1,0): one degree of latitude is ~111.195 km.
	d := Haversine(0, 0, 1, 0)
	if math.Abs(d-111195) > 111195*0.005 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineProperties(t *testing.T) {
	if d := Haversine(-6.2, 106.816, -6.2, 106.816); d != 0 {
		t.Fatalf("expected zero distance for identical points, got %v", d)
	}
	if d := Haversine(-6.2, 106.816, -6.9175, 107.6191); d < 0 {
		t.Fatalf("expected non-negative distance, got %v", d)
	}
	// Jakarta to Bandung is roughly 115-120 km.
	d := Haversine(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100000 || d > 140000 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestRoundCoordinate(t *testing.T) {
	if got := RoundCoordinate(106.8165432199); got != 106.81654 {
		t.Fatalf("unexpected rounding: %v", got)
	}
	if got := RoundCoordinate(-6.000006); got != -6.00001 {
		t.Fatalf("expected rounding toward nearest, got %v", got)
	}
}

func TestRoundElevation(t *testing.T) {
	if got := RoundElevation(123.45); got != 123.5 {
		t.Fatalf("unexpected rounding: %v", got)
	}
	if got := RoundElevation(-0.05); got != -0.1 {
		t.Fatalf("expected round half away from zero, got %v", got)
	}
}

func TestRoundingIdempotent(t *testing.T) {
	for _, v := range []float64{0, 1.234567, -42.000049, 147.32199} {
		once := RoundCoordinate(v)
		if RoundCoordinate(once) != once {
			t.Fatalf("coordinate rounding not idempotent for %v", v)
		}
		onceE := RoundElevation(v)
		if RoundElevation(onceE) != onceE {
			t.Fatalf("elevation rounding not idempotent for %v", v)
		}
	}
}
