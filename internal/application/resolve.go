package application

import (
	"context"
	"time"

	"github.com/davarch/deploy-report/internal/domain"
)

type ActionStatus struct {
	Status     string
	ActionName string
	UpdatedAt  time.Time
}

// LatestExecution trusts the backend's most-recent-first ordering.
func LatestExecution(ctx context.Context, b domain.PipelineBackend, pipeline string) (*domain.ExecutionSummary, error) {
	return b.LatestExecution(ctx, pipeline)
}

// DeployActionStatus returns the most recently updated action of stage in the
// given execution. Equal timestamps keep the earliest entry in backend order;
// a missing timestamp ranks oldest.
func DeployActionStatus(ctx context.Context, b domain.PipelineBackend, pipeline, executionID, stage string) (ActionStatus, bool, error) {
	details, err := b.ActionExecutions(ctx, pipeline, executionID)
	if err != nil {
		return ActionStatus{}, false, err
	}

	var (
		best  domain.ActionExecutionDetail
		found bool
	)
	for _, d := range details {
		if d.StageName != stage {
			continue
		}
		if !found || d.LastUpdateTime.After(best.LastUpdateTime) {
			best, found = d, true
		}
	}
	if !found {
		return ActionStatus{}, false, nil
	}

	return ActionStatus{Status: best.Status, ActionName: best.ActionName, UpdatedAt: best.LastUpdateTime}, true, nil
}

// RevisionInfo returns the first artifact revision of the execution, or nil.
func RevisionInfo(ctx context.Context, b domain.PipelineBackend, pipeline, executionID string) (*domain.ArtifactRevision, error) {
	revs, err := b.ArtifactRevisions(ctx, pipeline, executionID)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, nil
	}
	r := revs[0]
	return &r, nil
}
