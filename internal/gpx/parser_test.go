package gpx

import (
	"errors"
	"math"
	"testing"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <metadata><name>file metadata</name></metadata>
  <trk>
    <name>Morning Ride</name>
    <trkseg>
      <trkpt lat="-6.200001" lon="106.816666"><ele>12.3</ele></trkpt>
      <trkpt lat="-6.201500" lon="106.817500"></trkpt>
      <trkpt lat="-6.202900" lon="106.818400"></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestParseTrack(t *testing.T) {
	track, err := Parse([]byte(sampleGPX))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if track.Name != "Morning Ride" {
		t.Fatalf("unexpected name: %q", track.Name)
	}
	if len(track.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(track.Points))
	}
	if track.Points[0].Lat != -6.2 || track.Points[0].Lon != 106.81667 {
		t.Fatalf("expected rounded coordinates, got %+v", track.Points[0])
	}
}

func TestParseSkipsMalformedPoints(t *testing.T) {
	input := `<gpx><trk><trkseg>
		<trkpt lat="-6.2" lon="106.8"/>
		<trkpt lon="106.9"/>
		<trkpt lat="abc" lon="106.9"/>
		<trkpt lat="-6.3" lon="106.95"/>
	</trkseg></trk></gpx>`

	track, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(track.Points) != 2 {
		t.Fatalf("expected malformed points dropped, got %d", len(track.Points))
	}
}

func TestParseEmptyTrack(t *testing.T) {
	track, err := Parse([]byte(`<gpx><trk><trkseg></trkseg></trk></gpx>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(track.Points) != 0 {
		t.Fatalf("expected no points")
	}
	if track.Name != "" {
		t.Fatalf("expected empty name")
	}
}

func TestParseNameFallsBackToMetadata(t *testing.T) {
	track, err := Parse([]byte(`<gpx><metadata><name>meta only</name></metadata><trk></trk></gpx>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if track.Name != "meta only" {
		t.Fatalf("expected metadata name fallback, got %q", track.Name)
	}
}

func TestParseTrackNameWinsOverMetadata(t *testing.T) {
	track, err := Parse([]byte(sampleGPX))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if track.Name != "Morning Ride" {
		t.Fatalf("expected track name to win, got %q", track.Name)
	}
}

func TestParseMalformedXML(t *testing.T) {
	for _, input := range []string{"", "not xml at all <", "<gpx><trk></gpx>"} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", input, err)
		}
	}
}

func TestTotalDistance(t *testing.T) {
	if d := TotalDistance(nil); d != 0 {
		t.Fatalf("expected zero for empty track, got %v", d)
	}
	if d := TotalDistance([]TrackPoint{{Lon: 1, Lat: 1}}); d != 0 {
		t.Fatalf("expected zero for single point, got %v", d)
	}

	points := []TrackPoint{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}}
	d := TotalDistance(points)
	if math.Abs(d-111195) > 111195*0.005 {
		t.Fatalf("unexpected one-degree distance: %v", d)
	}
}
