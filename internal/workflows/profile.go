package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// ProfileInput is the input for the profile workflow.
type ProfileInput struct {
	JobID   string
	Request domain.ProfileRequest
	// FailFast fails the workflow on the first failed tile run instead of
	// recording a gap.
	FailFast bool
}

// ProfileResult is returned once the profile is stored.
type ProfileResult struct {
	ID      string
	Points  int
	Missing int
}

// RunSpan locates one tile run inside the densified line.
type RunSpan struct {
	Index   int
	Address domain.TileAddress
	Start   int
	Len     int
}

// PlanOutline is what the workflow needs to schedule sampling. Coordinates
// stay out of it; activities derive them again from the request.
type PlanOutline struct {
	Points int
	Runs   []RunSpan
}

// WorkflowID returns the workflow ID used for a queued job. Reusing the job
// ID makes redelivered requests collapse onto one execution.
func WorkflowID(jobID string) string {
	return "profile-" + jobID
}

// ProfileWorkflow plans a profile, samples every tile run as its own activity
// and assembles the result. Runs whose tile is unavailable or whose points
// fall outside the tile become gaps unless FailFast is set.
func ProfileWorkflow(ctx workflow.Context, input ProfileInput) (ProfileResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting profile workflow", "job", input.JobID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})

	var outline PlanOutline
	if err := workflow.ExecuteActivity(ctx, "PlanProfile", input.Request).Get(ctx, &outline); err != nil {
		return ProfileResult{}, err
	}

	// markers and source features play no part in sampling
	line := domain.ProfileRequest{Path: input.Request.Path, Step: input.Request.Step, Zoom: input.Request.Zoom}
	futures := make([]workflow.Future, len(outline.Runs))
	for i, span := range outline.Runs {
		futures[i] = workflow.ExecuteActivity(ctx, "SampleTileRun", line, span)
	}

	results := make([]domain.RunResult, len(outline.Runs))
	for i, f := range futures {
		var vals []int
		err := f.Get(ctx, &vals)
		if err == nil {
			results[i] = domain.RunResult{Run: i, Elevations: vals}
			continue
		}
		reason, ok := gapReason(err)
		if !ok || input.FailFast {
			return ProfileResult{}, err
		}
		logger.Warn("tile run failed, recording gap", "tile", outline.Runs[i].Address.String(), "error", err)
		results[i] = domain.RunResult{Run: i, Reason: reason}
	}

	var summary domain.ProfileSummary
	err := workflow.ExecuteActivity(ctx, "FinishProfile", input.JobID, input.Request, results).Get(ctx, &summary)
	if err != nil {
		return ProfileResult{}, err
	}

	logger.Info("Profile workflow completed", "profile", summary.ID, "missing", summary.Missing)
	return ProfileResult{ID: summary.ID, Points: summary.Points, Missing: summary.Missing}, nil
}

// gapReason reports whether a failed run should be recorded as a gap, and why.
func gapReason(err error) (string, bool) {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return "", false
	}
	switch appErr.Type() {
	case ErrTypeTileUnavailable, ErrTypeSampleOutOfBounds:
		return appErr.Error(), true
	}
	return "", false
}
