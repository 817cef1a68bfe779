package workflows_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
	"github.com/samirrijal/elevprofile/internal/pkg/geospatial"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
	"github.com/samirrijal/elevprofile/internal/workflows"
)

type stubOpener struct {
	unavailable bool
	elevation   float64
	// outOfBounds makes every sample of the matching tiles miss the raster
	outOfBounds func(addr domain.TileAddress) bool
}

func (o *stubOpener) Open(ctx context.Context, addr domain.TileAddress) (ports.Raster, error) {
	if o.unavailable {
		return nil, &domain.TileError{Address: addr, Err: errors.New("404")}
	}
	r := &stubRaster{addr: addr, gt: tiles.TileTransform(addr, tiles.Size, tiles.Size), elevation: o.elevation}
	if o.outOfBounds != nil {
		r.outOfBounds = o.outOfBounds(addr)
	}
	return r, nil
}

type stubRaster struct {
	addr        domain.TileAddress
	gt          tiles.GeoTransform
	elevation   float64
	outOfBounds bool
}

func (r *stubRaster) RowCol(p domain.PlanarPoint) (int, int) { return r.gt.Index(p) }

func (r *stubRaster) ElevationAt(row, col int) (float64, error) {
	if r.outOfBounds || row < 0 || row >= tiles.Size || col < 0 || col >= tiles.Size {
		return 0, &domain.SampleError{Address: r.addr, Row: row, Col: col}
	}
	return r.elevation, nil
}

func (r *stubRaster) Close() error { return nil }

func newEnv(t *testing.T, opener ports.TileOpener) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	tr, err := geospatial.NewTransformer("EPSG:4326", "EPSG:3786")
	require.NoError(t, err)

	svc := usecases.NewProfileService(tr, usecases.NewSampler(opener, 2, false), nil, nil, nil,
		usecases.Settings{Step: 100, Zoom: 13})

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.ProfileWorkflow)
	env.RegisterActivity(&workflows.ProfileActivities{Profiles: svc})
	return env
}

func request() domain.ProfileRequest {
	return domain.ProfileRequest{
		Path: domain.Path{{Lon: -105.1, Lat: 40.1}, {Lon: -105.2, Lat: 40.2}},
		POIs: []domain.Marker{{Category: "summit", Label: "mid", Location: domain.GeoPoint{Lon: -105.15, Lat: 40.15}}},
	}
}

func TestProfileWorkflow_Completes(t *testing.T) {
	env := newEnv(t, &stubOpener{elevation: 2400.9})

	jobID := "6a1f0c4e-3b9d-4d7a-8e52-0c1b2a3d4e5f"
	env.ExecuteWorkflow(workflows.ProfileWorkflow, workflows.ProfileInput{JobID: jobID, Request: request()})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res workflows.ProfileResult
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.Equal(t, jobID, res.ID)
	assert.Greater(t, res.Points, 100)
	assert.Zero(t, res.Missing)
}

func TestProfileWorkflow_RecordsGaps(t *testing.T) {
	env := newEnv(t, &stubOpener{unavailable: true})

	env.ExecuteWorkflow(workflows.ProfileWorkflow, workflows.ProfileInput{JobID: "job-gaps", Request: request()})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res workflows.ProfileResult
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.Equal(t, res.Points, res.Missing, "every sample should be missing")
}

func TestProfileWorkflow_FailFast(t *testing.T) {
	env := newEnv(t, &stubOpener{unavailable: true})

	env.ExecuteWorkflow(workflows.ProfileWorkflow, workflows.ProfileInput{JobID: "job-ff", Request: request(), FailFast: true})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, workflows.ErrTypeTileUnavailable, appErr.Type())
}

func TestProfileWorkflow_OutOfBoundsRunBecomesGap(t *testing.T) {
	first := tiles.Locate(request().Path[0], 13)
	env := newEnv(t, &stubOpener{
		elevation:   2400,
		outOfBounds: func(addr domain.TileAddress) bool { return addr == first },
	})

	env.ExecuteWorkflow(workflows.ProfileWorkflow, workflows.ProfileInput{JobID: "job-oob", Request: request()})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res workflows.ProfileResult
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.Positive(t, res.Missing)
	assert.Less(t, res.Missing, res.Points, "only the first tile should be missing")
}

func TestProfileWorkflow_OutOfBoundsFailFast(t *testing.T) {
	env := newEnv(t, &stubOpener{
		elevation:   2400,
		outOfBounds: func(domain.TileAddress) bool { return true },
	})

	env.ExecuteWorkflow(workflows.ProfileWorkflow, workflows.ProfileInput{JobID: "job-oob-ff", Request: request(), FailFast: true})

	require.True(t, env.IsWorkflowCompleted())
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(env.GetWorkflowError(), &appErr))
	assert.Equal(t, workflows.ErrTypeSampleOutOfBounds, appErr.Type())
}

func TestPlanProfile_OutlineCarriesNoCoordinates(t *testing.T) {
	tr, err := geospatial.NewTransformer("EPSG:4326", "EPSG:3786")
	require.NoError(t, err)
	acts := &workflows.ProfileActivities{Profiles: usecases.NewProfileService(tr,
		usecases.NewSampler(&stubOpener{elevation: 1}, 2, false), nil, nil, nil,
		usecases.Settings{Step: 50, Zoom: 9})}

	// ~870 km zigzag, about 17k densified points
	var path domain.Path
	for i := 0; i < 155; i++ {
		lat := 39.0
		if i%2 == 1 {
			lat = 39.05
		}
		path = append(path, domain.GeoPoint{Lon: -106 + 0.01*float64(i), Lat: lat})
	}

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts)

	val, err := env.ExecuteActivity(acts.PlanProfile, domain.ProfileRequest{Path: path})
	require.NoError(t, err)
	var outline workflows.PlanOutline
	require.NoError(t, val.Get(&outline))

	assert.Greater(t, outline.Points, 15000)
	total := 0
	for i, span := range outline.Runs {
		assert.Equal(t, i, span.Index)
		assert.Equal(t, total, span.Start)
		total += span.Len
	}
	assert.Equal(t, outline.Points, total)

	data, err := json.Marshal(outline)
	require.NoError(t, err)
	assert.Less(t, len(data), 16<<10)

	// a run is sampled from the line alone
	val, err = env.ExecuteActivity(acts.SampleTileRun, domain.ProfileRequest{Path: path}, outline.Runs[0])
	require.NoError(t, err)
	var vals []int
	require.NoError(t, val.Get(&vals))
	assert.Len(t, vals, outline.Runs[0].Len)

	stale := outline.Runs[0]
	stale.Len++
	_, err = env.ExecuteActivity(acts.SampleTileRun, domain.ProfileRequest{Path: path}, stale)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, workflows.ErrTypePlanMismatch, appErr.Type())
}

func TestProfileWorkflow_InvalidInput(t *testing.T) {
	env := newEnv(t, &stubOpener{elevation: 1})

	req := request()
	req.Path = domain.Path{{Lon: -105.1, Lat: 40.1}, {Lon: -105.1, Lat: 40.1}}
	env.ExecuteWorkflow(workflows.ProfileWorkflow, workflows.ProfileInput{JobID: "job-bad", Request: req})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, workflows.ErrTypeInvalidInput, appErr.Type())
}

func TestWorkflowID(t *testing.T) {
	assert.Equal(t, "profile-abc", workflows.WorkflowID("abc"))
}
