package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"backend-trailforge/internal/config"
	"backend-trailforge/internal/elevation"
	"backend-trailforge/internal/gpx"
	"backend-trailforge/internal/matching"
	"backend-trailforge/internal/progress"
	"backend-trailforge/internal/route"
	"backend-trailforge/internal/surface"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMissingToken is the fatal startup condition: the pipeline cannot
// run without a credential for the terrain and matching services.
var ErrMissingToken = errors.New("upload: MAPBOX_TOKEN is required")

// statusKey prefixes the redis mirror of job snapshots.
const statusKeyPrefix = "job:"

type Matcher interface {
	Match(ctx context.Context, points []gpx.TrackPoint) (matching.Result, error)
}

type Resolver interface {
	Resolve(ctx context.Context, points []gpx.TrackPoint) []float64
}

// RouteSaver is the persistence collaborator: it takes a finished
// route plus the owning user and returns a durable record id.
type RouteSaver interface {
	Save(ctx context.Context, r route.ProcessedRoute, userID string) (string, error)
}

// Broadcaster pushes progress payloads to attached transports.
type Broadcaster interface {
	Broadcast(uploadID string, payload []byte)
}

// Deps are the orchestrator's collaborators. Nil Matcher and Resolver
// fall back to real clients built from the config; the rest stay
// optional.
type Deps struct {
	Store    Store
	Matcher  Matcher
	Resolver Resolver
	Saver    RouteSaver
	Redis    *redis.Client
	Hub      Broadcaster
}

// Service orchestrates the GPX pipeline: it creates upload jobs,
// runs the stages in the background and reports progress through each
// job's tracker.
type Service struct {
	store    Store
	matcher  Matcher
	resolver Resolver
	saver    RouteSaver
	redis    *redis.Client
	hub      Broadcaster
	ttl      time.Duration
}

func NewService(cfg config.Config, deps Deps) (*Service, error) {
	if cfg.MapboxToken == "" {
		return nil, ErrMissingToken
	}

	s := &Service{
		store:    deps.Store,
		matcher:  deps.Matcher,
		resolver: deps.Resolver,
		saver:    deps.Saver,
		redis:    deps.Redis,
		hub:      deps.Hub,
		ttl:      cfg.UploadTTL,
	}
	if s.store == nil {
		s.store = NewMemoryStore(cfg.UploadTTL)
	}
	if s.matcher == nil {
		s.matcher = matching.NewClient(matching.Config{Token: cfg.MapboxToken})
	}
	if s.resolver == nil {
		s.resolver = elevation.NewResolver(elevation.Config{
			Token:       cfg.MapboxToken,
			Zoom:        cfg.TerrainZoom,
			Concurrency: cfg.ElevationConcurrency,
		})
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	return s, nil
}

// ProcessUpload registers a job for the raw file and returns its
// upload id immediately; the pipeline runs in the background. The
// tracker is registered before this returns, so progress queries with
// the returned id are always valid.
func (s *Service) ProcessUpload(data []byte, filename, userID string) string {
	job := &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		UserID:    userID,
		Tracker:   progress.NewTracker(),
		CreatedAt: time.Now(),
	}
	s.store.Put(job)
	s.publish(job.ID, job.Tracker.Snapshot())

	go s.process(job, data)

	return job.ID
}

// Job exposes a registered job to the transport layer.
func (s *Service) Job(id string) (*Job, bool) {
	return s.store.Get(id)
}

// StatusResponse is the compact status view derived from a job's last
// snapshot.
type StatusResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// Status derives the job status from the tracker snapshot, falling
// back to the redis mirror for jobs owned by another instance. An
// unknown id yields a synthesized not-found error status rather than
// an error.
func (s *Service) Status(ctx context.Context, id string) StatusResponse {
	if job, ok := s.store.Get(id); ok {
		return statusFromSnapshot(job.Tracker.Snapshot())
	}

	if s.redis != nil {
		raw, err := s.redis.Get(ctx, statusKeyPrefix+id).Bytes()
		if err == nil {
			var snap progress.Update
			if err := json.Unmarshal(raw, &snap); err == nil {
				return statusFromSnapshot(snap)
			}
		}
	}

	return StatusResponse{
		Status:   string(progress.StatusError),
		Progress: 0,
		Message:  "Upload not found",
	}
}

func statusFromSnapshot(snap progress.Update) StatusResponse {
	msg := snap.CurrentTask
	if snap.Status == progress.StatusError && len(snap.Errors) > 0 {
		msg = strings.Join(snap.Errors, "; ")
	}
	return StatusResponse{
		Status:   string(snap.Status),
		Progress: snap.Progress,
		Message:  msg,
	}
}

// Outcome tags how a degradable stage ended, so the continue/abort
// decision is explicit rather than hidden in error suppression.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Reason   string
}

func (s *Service) process(job *Job, data []byte) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			s.fail(job, fmt.Sprintf("internal error: %v", r))
		}
	}()

	track, err := gpx.Parse(data)
	if err != nil {
		s.fail(job, "GPX parsing failed: "+err.Error())
		return
	}
	s.advance(job, 20, "Parsing GPX file")

	coords := route.Coords(track.Points)

	match := s.matchStage(ctx, track.Points)
	info := &route.MatchInfo{Status: string(matching.StatusFailed)}
	if match.Degraded {
		log.Printf("map matching skipped for %s: %s", job.ID, match.Reason)
	} else {
		coords = match.Value.Coordinates
		info = &route.MatchInfo{
			Status:     string(match.Value.Status),
			Confidence: match.Value.Confidence,
		}
	}
	s.advance(job, 40, "Matching route to road network")

	analysis := surface.Analyze(track.Points)
	s.advance(job, 60, "Determining surface types")

	samples := s.resolver.Resolve(ctx, track.Points)
	mergeElevations(&analysis, samples)
	s.advance(job, 80, "Calculating elevation profile")

	result := &route.ProcessedRoute{
		ID:         fmt.Sprintf("temp-id-%d-%d", time.Now().UnixMilli(), rand.Intn(1000)),
		Name:       trackName(track),
		Color:      "#FF0000",
		IsVisible:  true,
		GeoJSON:    route.LineString(coords),
		Surface:    analysis,
		Statistics: buildStatistics(gpx.TotalDistance(track.Points), samples),
		Status: route.ProcessingStatus{
			State:    route.StateCompleted,
			Progress: 100,
		},
		Matching: info,
	}

	job.Tracker.Update(progress.Partial{
		Status:      progress.StatusOf(progress.StatusComplete),
		Progress:    progress.ProgressOf(100),
		CurrentTask: progress.TaskOf("GPX processing completed"),
		Result:      result,
	})
	s.publish(job.ID, job.Tracker.Snapshot())

	if s.saver != nil {
		if _, err := s.saver.Save(ctx, *result, job.UserID); err != nil {
			log.Printf("route save failed for %s: %v", job.ID, err)
		}
	}
}

// matchStage is optional enrichment: every failure degrades and the
// pipeline proceeds with the raw, unmatched geometry.
func (s *Service) matchStage(ctx context.Context, points []gpx.TrackPoint) Outcome[matching.Result] {
	if len(points) < 2 {
		return Outcome[matching.Result]{Degraded: true, Reason: "too few points to match"}
	}

	res, err := s.matcher.Match(ctx, points)
	if err != nil {
		return Outcome[matching.Result]{Degraded: true, Reason: err.Error()}
	}
	return Outcome[matching.Result]{Value: res}
}

func (s *Service) advance(job *Job, pct int, task string) {
	job.Tracker.Update(progress.Partial{
		Progress:    progress.ProgressOf(pct),
		CurrentTask: progress.TaskOf(task),
	})
	s.publish(job.ID, job.Tracker.Snapshot())
}

func (s *Service) fail(job *Job, msg string) {
	job.Tracker.Update(progress.Partial{
		Status:      progress.StatusOf(progress.StatusError),
		CurrentTask: progress.TaskOf("GPX processing failed"),
		Errors:      []string{msg},
	})
	s.publish(job.ID, job.Tracker.Snapshot())
}

// publish mirrors a snapshot to the attached transports and the redis
// status key. Both are best-effort; the pipeline never depends on
// them.
func (s *Service) publish(id string, snap progress.Update) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("snapshot marshal failed for %s: %v", id, err)
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(id, payload)
	}
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.redis.Set(ctx, statusKeyPrefix+id, payload, s.ttl).Err(); err != nil {
			log.Printf("status mirror write failed for %s: %v", id, err)
		}
	}
}

func trackName(t gpx.Track) string {
	if t.Name != "" {
		return t.Name
	}
	return "Unnamed Track"
}

// mergeElevations writes resolved samples into the profile and
// recomputes grades from sample deltas over the profile spacing. The
// profile is left untouched when cardinalities differ (degenerate
// analysis).
func mergeElevations(analysis *surface.Analysis, samples []float64) {
	profile := analysis.ElevationProfile
	if len(profile) == 0 || len(profile) != len(samples) {
		return
	}

	for i := range profile {
		profile[i].ElevationM = samples[i]
	}
	for i := 1; i < len(profile); i++ {
		run := profile[i].DistanceM - profile[i-1].DistanceM
		if run > 0 {
			profile[i].Grade = (profile[i].ElevationM - profile[i-1].ElevationM) / run * 100
		}
	}
}

// buildStatistics derives gain/loss from consecutive sample deltas and
// min/max over the samples; speed and times stay zero because the
// pipeline does not read GPX timestamps.
func buildStatistics(totalDistance float64, samples []float64) route.Statistics {
	stats := route.Statistics{TotalDistance: totalDistance}
	if len(samples) == 0 {
		return stats
	}

	maxE, minE := samples[0], samples[0]
	var gain, loss float64
	for i := 1; i < len(samples); i++ {
		delta := samples[i] - samples[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss += -delta
		}
		if samples[i] > maxE {
			maxE = samples[i]
		}
		if samples[i] < minE {
			minE = samples[i]
		}
	}

	stats.ElevationGain = gain
	stats.ElevationLoss = loss
	stats.MaxElevation = maxE
	stats.MinElevation = minE
	return stats
}
