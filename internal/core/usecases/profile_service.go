package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/geospatial"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
	"github.com/samirrijal/elevprofile/internal/pkg/telemetry"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

// ErrQueueUnavailable is returned by Submit when no event publisher is wired.
var ErrQueueUnavailable = errors.New("profile job queue unavailable")

const profileCacheTTL = 3600

// Settings are the defaults applied to requests that leave Step or Zoom unset.
type Settings struct {
	Step float64
	Zoom int
}

// ProfileService builds, stores and serves elevation profiles.
type ProfileService struct {
	transformer *geospatial.Transformer
	sampler     *Sampler
	profiles    ports.ProfileRepository
	cache       ports.CacheService
	events      ports.EventPublisher
	defaults    Settings
	now         func() time.Time
}

// NewProfileService creates a new ProfileService. profiles, cache and events
// may be nil; the service then skips persistence, caching or publishing.
func NewProfileService(
	transformer *geospatial.Transformer,
	sampler *Sampler,
	profiles ports.ProfileRepository,
	cache ports.CacheService,
	events ports.EventPublisher,
	defaults Settings,
) *ProfileService {
	return &ProfileService{
		transformer: transformer,
		sampler:     sampler,
		profiles:    profiles,
		cache:       cache,
		events:      events,
		defaults:    defaults,
		now:         time.Now,
	}
}

// Sampler returns the sampler used by Build.
func (s *ProfileService) Sampler() *Sampler { return s.sampler }

// Build runs the full pipeline for req and stores the result.
// Tile failures become gaps unless the sampler is fail-fast.
func (s *ProfileService) Build(ctx context.Context, req domain.ProfileRequest) (*domain.Profile, error) {
	start := time.Now()
	defer func() { metrics.ProfileBuildDuration.Observe(time.Since(start).Seconds()) }()

	plan, err := s.Plan(ctx, req)
	if err != nil {
		metrics.ProfilesBuilt.WithLabelValues(buildOutcome(err, nil)).Inc()
		return nil, err
	}

	results, err := s.sampler.SampleAll(ctx, plan.Runs)
	if err != nil {
		metrics.ProfilesBuilt.WithLabelValues(buildOutcome(err, nil)).Inc()
		return nil, err
	}

	return s.Finish(ctx, "", req, plan, results)
}

// Plan validates req and derives everything that needs no tile access:
// the densified line, calibrated distances, tile runs and referenced markers.
func (s *ProfileService) Plan(ctx context.Context, req domain.ProfileRequest) (*domain.Plan, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanPlan)
	defer span.End()

	step, zoom, err := s.settings(req)
	if err != nil {
		return nil, err
	}
	if err := req.Path.Validate(); err != nil {
		return nil, err
	}

	planar, err := s.transformer.ToPlanarAll(req.Path)
	if err != nil {
		return nil, err
	}
	length := geospatial.NewPolyline(planar).Length()
	line, err := geospatial.Densify(planar, step)
	if err != nil {
		return nil, err
	}
	points := s.transformer.ToGeographicAll(line.Points())

	distances, err := geospatial.Calibrate(len(points), step, length)
	if err != nil {
		return nil, err
	}

	pois, err := s.reference(line, distances, req.POIs, "reference poi")
	if err != nil {
		return nil, err
	}
	segments, err := s.reference(line, distances, req.Segments, "reference segment")
	if err != nil {
		return nil, err
	}

	runs := tiles.GroupRuns(points, zoom)
	span.SetAttributes(
		attribute.Int("points", len(points)),
		attribute.Int("runs", len(runs)),
		attribute.Float64("length", length),
	)

	return &domain.Plan{
		Step:      step,
		Zoom:      zoom,
		Length:    length,
		Line:      line.Points(),
		Points:    points,
		Distances: distances,
		Runs:      runs,
		POIs:      pois,
		Segments:  segments,
		Bounds:    geospatial.Bounds(points),
	}, nil
}

// Finish assembles the profile from per-run results, then stores, caches
// and announces it. An empty id is replaced by a new UUID.
func (s *ProfileService) Finish(ctx context.Context, id string, req domain.ProfileRequest, plan *domain.Plan, results []domain.RunResult) (*domain.Profile, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanAssemble)
	defer span.End()

	profile, err := Assemble(req, plan, results)
	if err != nil {
		metrics.ProfilesBuilt.WithLabelValues("error").Inc()
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	profile.ID = id
	profile.CreatedAt = s.now().UTC()

	for _, g := range profile.Gaps {
		slog.Warn("elevation gap", "profile", profile.ID, "tile", g.Tile,
			"m_from", g.MFrom, "m_to", g.MTo, "count", g.Count, "reason", g.Reason)
	}

	if s.profiles != nil {
		if err := s.profiles.Save(ctx, profile); err != nil {
			metrics.ProfilesBuilt.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("save profile: %w", err)
		}
	}
	if s.cache != nil {
		if data, err := json.Marshal(profile); err == nil {
			_ = s.cache.Set(ctx, "profiles:id:"+profile.ID, data, profileCacheTTL)
		}
	}
	if s.events != nil {
		if err := s.events.PublishProfileComputed(ctx, profile.Summary()); err != nil {
			slog.Warn("publish profile computed", "profile", profile.ID, "error", err)
		}
	}

	metrics.ProfilesBuilt.WithLabelValues(buildOutcome(nil, profile)).Inc()
	metrics.ProfilePoints.Observe(float64(len(profile.MPoints)))
	span.SetAttributes(attribute.String("profile.id", profile.ID), attribute.Int("gaps", len(profile.Gaps)))
	return profile, nil
}

// Assemble merges per-run results back into point order and builds the
// profile. Failed runs yield absent elevations and one gap each.
func Assemble(req domain.ProfileRequest, plan *domain.Plan, results []domain.RunResult) (*domain.Profile, error) {
	if len(results) != len(plan.Runs) {
		return nil, fmt.Errorf("assemble: %d results for %d runs", len(results), len(plan.Runs))
	}
	total := 0
	for _, r := range plan.Runs {
		total += r.Len()
	}
	if total != len(plan.Points) || len(plan.Distances) != len(plan.Points) {
		return nil, fmt.Errorf("assemble: runs cover %d points, line has %d points and %d distances",
			total, len(plan.Points), len(plan.Distances))
	}

	mpoints := make([]domain.MPoint, len(plan.Points))
	for i, p := range plan.Points {
		mpoints[i] = domain.MPoint{M: plan.Distances[i], Coords: p.Pair()}
	}

	elevations := make([]domain.ElevationSample, 0, len(plan.Points))
	var gaps []domain.Gap
	for i, run := range plan.Runs {
		res := results[i]
		if !res.Failed() && len(res.Elevations) != run.Len() {
			return nil, fmt.Errorf("assemble: run %d (tile %s) has %d elevations for %d points",
				i, run.Address, len(res.Elevations), run.Len())
		}
		for j := 0; j < run.Len(); j++ {
			sample := domain.ElevationSample{M: plan.Distances[run.Start+j]}
			if !res.Failed() {
				z := res.Elevations[j]
				sample.Z = &z
			}
			elevations = append(elevations, sample)
		}
		if res.Failed() {
			gaps = append(gaps, domain.Gap{
				Tile:   run.Address.String(),
				MFrom:  plan.Distances[run.Start],
				MTo:    plan.Distances[run.Start+run.Len()-1],
				Count:  run.Len(),
				Reason: res.Reason,
			})
		}
	}

	return &domain.Profile{
		Step:            plan.Step,
		Zoom:            plan.Zoom,
		Length:          plan.Length,
		GroundLength:    geospatial.GroundLength(plan.Points),
		Bounds:          plan.Bounds,
		LineFeature:     req.LineFeature,
		POIFeatures:     features(req.POIs),
		SegmentFeatures: features(req.Segments),
		MPoints:         mpoints,
		MElevations:     elevations,
		MPOIs:           nonNil(plan.POIs),
		MSegments:       nonNil(plan.Segments),
		Gaps:            gaps,
	}, nil
}

// Submit validates req and queues it for asynchronous processing.
func (s *ProfileService) Submit(ctx context.Context, req domain.ProfileRequest) (domain.ProfileJob, error) {
	if s.events == nil {
		return domain.ProfileJob{}, ErrQueueUnavailable
	}
	if _, _, err := s.settings(req); err != nil {
		return domain.ProfileJob{}, err
	}
	if err := req.Path.Validate(); err != nil {
		return domain.ProfileJob{}, err
	}
	job := domain.ProfileJob{ID: uuid.NewString(), Request: req}
	if err := s.events.PublishProfileRequested(ctx, job); err != nil {
		return domain.ProfileJob{}, fmt.Errorf("queue profile job: %w", err)
	}
	return job, nil
}

// Get returns a stored profile. Ids that are not UUIDs are never found.
func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	cacheKey := "profiles:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var p domain.Profile
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.CacheHits.WithLabelValues("profile").Inc()
				return &p, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("profile").Inc()
	}

	if s.profiles == nil {
		return nil, domain.ErrNotFound
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, profileCacheTTL)
		}
	}
	return p, nil
}

// List returns one page of stored profile summaries, newest first.
func (s *ProfileService) List(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if s.profiles == nil {
		return nil, 0, nil
	}
	return s.profiles.List(ctx, offset, limit)
}

func (s *ProfileService) settings(req domain.ProfileRequest) (float64, int, error) {
	step, zoom := req.Step, s.defaults.Zoom
	if step == 0 {
		step = s.defaults.Step
	}
	if req.Zoom != nil {
		zoom = *req.Zoom
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return 0, 0, fmt.Errorf("%w: step must be a positive number, got %v", domain.ErrInvalidSettings, step)
	}
	if zoom < 0 || zoom > tiles.MaxZoom {
		return 0, 0, fmt.Errorf("%w: zoom must be 0-%d, got %d", domain.ErrInvalidSettings, tiles.MaxZoom, zoom)
	}
	return step, zoom, nil
}

// reference projects markers onto the densified line and reads their m from
// the calibrated distances of the segment they land on.
func (s *ProfileService) reference(line geospatial.Polyline, distances []float64, markers []domain.Marker, stage string) ([]domain.ReferencedPoint, error) {
	out := make([]domain.ReferencedPoint, 0, len(markers))
	for i, mk := range markers {
		p, err := s.transformer.ToPlanar(mk.Location)
		if err != nil {
			return nil, &domain.CoordinateError{Stage: stage, Index: i, Point: mk.Location}
		}
		seg, t := line.Project(p)
		out = append(out, domain.ReferencedPoint{
			M:        geospatial.Measure(distances, seg, t),
			Category: mk.Category,
			Label:    mk.Label,
		})
	}
	return out, nil
}

func features(markers []domain.Marker) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(markers))
	for _, mk := range markers {
		if len(mk.Feature) > 0 {
			out = append(out, mk.Feature)
		}
	}
	return out
}

func nonNil(pts []domain.ReferencedPoint) []domain.ReferencedPoint {
	if pts == nil {
		return []domain.ReferencedPoint{}
	}
	return pts
}

func buildOutcome(err error, p *domain.Profile) string {
	switch {
	case err != nil && domain.IsInputError(err):
		return "invalid"
	case err != nil:
		return "error"
	case len(p.Gaps) > 0:
		return "partial"
	}
	return "ok"
}
