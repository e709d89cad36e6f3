package elevation

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"backend-trailforge/internal/geo"
	"backend-trailforge/internal/gpx"
)

const (
	defaultBaseURL = "https://api.mapbox.com/v4/mapbox.terrain-rgb"
	tileSize       = 256
)

// Config configures a Resolver. Token is required; the zero value of
// everything else falls back to sensible defaults.
type Config struct {
	Token       string
	Zoom        int
	Concurrency int
	BaseURL     string
	Client      *http.Client
}

// Resolver looks up per-point elevation from terrain-RGB raster tiles.
// Elevation is best-effort enrichment: any failure degrades to 0.0 and
// never fails a batch.
type Resolver struct {
	token   string
	zoom    int
	limit   int
	baseURL string
	client  *http.Client
}

func NewResolver(cfg Config) *Resolver {
	r := &Resolver{
		token:   cfg.Token,
		zoom:    cfg.Zoom,
		limit:   cfg.Concurrency,
		baseURL: cfg.BaseURL,
		client:  cfg.Client,
	}
	if r.zoom <= 0 {
		r.zoom = 14
	}
	if r.limit <= 0 {
		r.limit = 8
	}
	if r.baseURL == "" {
		r.baseURL = defaultBaseURL
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: 10 * time.Second}
	}
	return r
}

// Resolve returns one elevation sample per track point, in the same
// order. Lookups run concurrently with bounded fan-out to spare the
// upstream tile service. A failed lookup yields 0.0 for that point.
func (r *Resolver) Resolve(ctx context.Context, points []gpx.TrackPoint) []float64 {
	samples := make([]float64, len(points))
	if len(points) == 0 {
		return samples
	}

	sem := make(chan struct{}, r.limit)
	var wg sync.WaitGroup
	for i, pt := range points {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, pt gpx.TrackPoint) {
			defer wg.Done()
			defer func() { <-sem }()

			elev, err := r.lookup(ctx, pt)
			if err != nil {
				log.Printf("elevation lookup failed for [%v, %v]: %v", pt.Lon, pt.Lat, err)
				return
			}
			samples[i] = elev
		}(i, pt)
	}
	wg.Wait()

	return samples
}

func (r *Resolver) lookup(ctx context.Context, pt gpx.TrackPoint) (float64, error) {
	tileX, tileY, px, py := project(pt.Lon, pt.Lat, r.zoom)

	url := fmt.Sprintf("%s/%d/%d/%d.pngraw?access_token=%s", r.baseURL, r.zoom, tileX, tileY, r.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("tile request returned %s", resp.Status)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("tile decode: %w", err)
	}

	return geo.RoundElevation(decodePixel(img, px, py)), nil
}

// project maps a coordinate to its Web-Mercator tile at the given zoom
// and the pixel position inside that tile.
func project(lon, lat float64, zoom int) (tileX, tileY, px, py int) {
	n := math.Exp2(float64(zoom))

	x := (lon + 180) / 360 * n
	latRad := lat * math.Pi / 180
	y := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n

	tileX = int(math.Floor(x))
	tileY = int(math.Floor(y))
	px = clamp(int((x-math.Floor(x))*tileSize), 0, tileSize-1)
	py = clamp(int((y-math.Floor(y))*tileSize), 0, tileSize-1)
	return tileX, tileY, px, py
}

// decodePixel converts a terrain-RGB pixel into meters:
// elevation = -10000 + (R*65536 + G*256 + B) * 0.1
func decodePixel(img image.Image, px, py int) float64 {
	b := img.Bounds()
	r16, g16, b16, _ := img.At(b.Min.X+px, b.Min.Y+py).RGBA()
	r8 := float64(r16 >> 8)
	g8 := float64(g16 >> 8)
	b8 := float64(b16 >> 8)
	return -10000 + (r8*65536+g8*256+b8)*0.1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
