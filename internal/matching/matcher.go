package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"backend-trailforge/internal/gpx"
)

const (
	defaultBaseURL = "https://api.mapbox.com/matching/v5/mapbox"
	profile        = "cycling"
	searchRadiusM  = 25
)

// ErrMatching reports an unusable response from the map-matching
// service. Matching is optional enrichment, so callers treat this as
// a skippable stage.
var ErrMatching = errors.New("matching: map matching failed")

// Status classifies how well the trace snapped to the road network.
type Status string

const (
	StatusMatched Status = "matched"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Result is the snapped geometry with its confidence classification.
type Result struct {
	Coordinates [][]float64
	DistanceM   float64
	DurationS   float64
	Confidence  float64
	Status      Status
}

type Config struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

// Client submits point sequences to the map-matching service.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	c := &Client{
		token:   cfg.Token,
		baseURL: cfg.BaseURL,
		http:    cfg.Client,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

type matchResponse struct {
	Code      string `json:"code"`
	Matchings []struct {
		Confidence float64 `json:"confidence"`
		Distance   float64 `json:"distance"`
		Duration   float64 `json:"duration"`
		Geometry   struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"matchings"`
}

// Match snaps the ordered point sequence onto the road network with a
// fixed search radius per point.
func (c *Client) Match(ctx context.Context, points []gpx.TrackPoint) (Result, error) {
	if len(points) < 2 {
		return Result{}, fmt.Errorf("%w: need at least 2 points", ErrMatching)
	}

	coords := make([]string, len(points))
	radiuses := make([]string, len(points))
	for i, pt := range points {
		coords[i] = fmt.Sprintf("%v,%v", pt.Lon, pt.Lat)
		radiuses[i] = fmt.Sprintf("%d", searchRadiusM)
	}

	url := fmt.Sprintf("%s/%s/%s?access_token=%s&geometries=geojson&overview=full&radiuses=%s",
		c.baseURL, profile, strings.Join(coords, ";"), c.token, strings.Join(radiuses, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMatching, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMatching, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: service returned %s", ErrMatching, resp.Status)
	}

	var body matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMatching, err)
	}
	if body.Code != "Ok" || len(body.Matchings) == 0 {
		return Result{}, fmt.Errorf("%w: no matchings (code %q)", ErrMatching, body.Code)
	}

	m := body.Matchings[0]
	return Result{
		Coordinates: m.Geometry.Coordinates,
		DistanceM:   m.Distance,
		DurationS:   m.Duration,
		Confidence:  m.Confidence,
		Status:      classify(m.Confidence),
	}, nil
}

func classify(confidence float64) Status {
	switch {
	case confidence >= 0.8:
		return StatusMatched
	case confidence > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}
