package gpx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed reports input that cannot be read as an XML document at
// all. Individual bad track points never produce this; they are
// dropped so a partial track still parses.
var ErrMalformed = errors.New("gpx: malformed xml")

// Parse extracts the ordered track-point sequence and the track name
// from raw GPX content.
//
// Track points with a missing, non-numeric or zero lat/lon attribute
// are silently skipped. The name is taken from the first <name>
// element inside a <trk>, falling back to the first <name> anywhere
// (typically the metadata name); a file without one yields an empty
// name.
func Parse(raw []byte) (Track, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var track Track
	var fallbackName string
	trkDepth := 0
	sawElement := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Track{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			sawElement = true
			switch el.Name.Local {
			case "trk":
				trkDepth++
			case "trkpt":
				if pt, ok := pointFromAttrs(el.Attr); ok {
					track.Points = append(track.Points, pt)
				}
			case "name":
				if trkDepth > 0 && track.Name != "" {
					break
				}
				var name string
				if err := dec.DecodeElement(&name, &el); err != nil {
					return Track{}, fmt.Errorf("%w: %v", ErrMalformed, err)
				}
				name = strings.TrimSpace(name)
				if trkDepth > 0 && track.Name == "" {
					track.Name = name
				} else if fallbackName == "" {
					fallbackName = name
				}
			}
		case xml.EndElement:
			if el.Name.Local == "trk" {
				trkDepth--
			}
		}
	}

	if !sawElement {
		return Track{}, fmt.Errorf("%w: no xml content", ErrMalformed)
	}
	if track.Name == "" {
		track.Name = fallbackName
	}
	return track, nil
}

func pointFromAttrs(attrs []xml.Attr) (TrackPoint, bool) {
	var lat, lon float64
	for _, a := range attrs {
		switch a.Name.Local {
		case "lat":
			lat, _ = strconv.ParseFloat(a.Value, 64)
		case "lon":
			lon, _ = strconv.ParseFloat(a.Value, 64)
		}
	}
	// Zero means the attribute was absent or unparseable; a point at
	// the exact equator/meridian is dropped with it.
	if lat == 0 || lon == 0 {
		return TrackPoint{}, false
	}
	return NewTrackPoint(lon, lat), true
}
