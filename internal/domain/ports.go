package domain

import "context"

// PipelineBackend is the read-only view of one regional pipeline service.
type PipelineBackend interface {
	// LatestExecution returns nil without error when the pipeline never ran.
	LatestExecution(ctx context.Context, pipeline string) (*ExecutionSummary, error)
	PipelineDefinition(ctx context.Context, pipeline string) (PipelineDefinition, error)
	ActionExecutions(ctx context.Context, pipeline, executionID string) ([]ActionExecutionDetail, error)
	ArtifactRevisions(ctx context.Context, pipeline, executionID string) ([]ArtifactRevision, error)
}

type BackendFactory interface {
	ForRegion(ctx context.Context, region string) (PipelineBackend, error)
}

type RecordWriter interface {
	Write(records []ReportRecord) error
}

type Notifier interface {
	Notify(ctx context.Context, title, body, url string) error
}

type SnapshotCache interface {
	Write(ctx context.Context, s Snapshot) error
}
