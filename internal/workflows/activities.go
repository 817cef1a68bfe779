package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
)

// Application error types raised by profile activities.
const (
	ErrTypeInvalidInput      = "InvalidInput"
	ErrTypeTileUnavailable   = "TileUnavailable"
	ErrTypeSampleOutOfBounds = "SampleOutOfBounds"
	ErrTypePlanMismatch      = "PlanMismatch"
)

// ProfileActivities holds the activity implementations for ProfileWorkflow.
type ProfileActivities struct {
	Profiles *usecases.ProfileService
}

// PlanProfile validates the request and returns the tile runs to sample.
func (a *ProfileActivities) PlanProfile(ctx context.Context, req domain.ProfileRequest) (PlanOutline, error) {
	plan, err := a.Profiles.Plan(ctx, req)
	if err != nil {
		return PlanOutline{}, classify(err)
	}
	outline := PlanOutline{Points: len(plan.Points), Runs: make([]RunSpan, len(plan.Runs))}
	for i, r := range plan.Runs {
		outline.Runs[i] = RunSpan{Index: i, Address: r.Address, Start: r.Start, Len: r.Len()}
	}
	return outline, nil
}

// SampleTileRun reads the elevations of one tile run of the request's line.
func (a *ProfileActivities) SampleTileRun(ctx context.Context, req domain.ProfileRequest, span RunSpan) ([]int, error) {
	plan, err := a.Profiles.Plan(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	run, err := runAt(plan, span)
	if err != nil {
		return nil, err
	}

	vals, err := a.Profiles.Sampler().SampleRun(ctx, run)
	if err != nil {
		activity.GetLogger(ctx).Warn("tile run failed", "tile", run.Address.String(), "error", err)
		return nil, classify(err)
	}
	return vals, nil
}

// FinishProfile assembles, stores and announces the profile under jobID.
func (a *ProfileActivities) FinishProfile(ctx context.Context, jobID string, req domain.ProfileRequest, results []domain.RunResult) (domain.ProfileSummary, error) {
	plan, err := a.Profiles.Plan(ctx, req)
	if err != nil {
		return domain.ProfileSummary{}, classify(err)
	}
	p, err := a.Profiles.Finish(ctx, jobID, req, plan, results)
	if err != nil {
		return domain.ProfileSummary{}, err
	}
	slog.Info("profile computed", "profile", p.ID, "points", len(p.MPoints), "gaps", len(p.Gaps))
	return p.Summary(), nil
}

// runAt returns the run span refers to. Plans are derived from the request
// alone, so a mismatch means the workers disagree on profile settings.
func runAt(plan *domain.Plan, span RunSpan) (domain.TileRun, error) {
	if span.Index < 0 || span.Index >= len(plan.Runs) {
		return domain.TileRun{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("run %d not in plan of %d runs", span.Index, len(plan.Runs)), ErrTypePlanMismatch, nil)
	}
	run := plan.Runs[span.Index]
	if run.Address != span.Address || run.Start != span.Start || run.Len() != span.Len {
		return domain.TileRun{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("run %d is %s [%d,+%d), expected %s [%d,+%d)", span.Index,
				run.Address, run.Start, run.Len(), span.Address, span.Start, span.Len), ErrTypePlanMismatch, nil)
	}
	return run, nil
}

// classify turns pipeline errors into non-retryable application errors so the
// workflow can tell them apart. Other errors are left to the retry policy.
func classify(err error) error {
	switch {
	case domain.IsInputError(err):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	case errors.Is(err, domain.ErrSampleOutOfBounds):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeSampleOutOfBounds, err)
	case errors.Is(err, domain.ErrTileUnavailable):
		// the opener already retried with backoff
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeTileUnavailable, err)
	}
	return err
}
