package application

import (
	"context"
	"time"

	"github.com/davarch/deploy-report/internal/domain"
)

type pairState struct {
	executionID  string
	deployStatus string
	status       string
}

// WatchUseCase regenerates the report and raises a notification for every
// pair whose execution or deploy status moved since the previous pass.
type WatchUseCase struct {
	report *ReportUseCase
	note   domain.Notifier
	cache  domain.SnapshotCache

	last map[domain.Target]pairState
}

func NewWatchUseCase(r *ReportUseCase, note domain.Notifier, cache domain.SnapshotCache) *WatchUseCase {
	return &WatchUseCase{
		report: r, note: note, cache: cache,
		last: make(map[domain.Target]pairState),
	}
}

func (uc *WatchUseCase) PollOnce(ctx context.Context, regions, pipelines []string) (int, error) {
	rep, err := uc.report.Run(ctx, regions, pipelines)
	if err != nil {
		return 0, err
	}

	_ = uc.cache.Write(ctx, domain.Snapshot{Records: rep.Records, Retrieved: time.Now().Unix()})

	changed := 0
	for _, r := range rep.Records {
		cur := pairState{executionID: r.ExecutionID, deployStatus: r.DeployStatus, status: r.PipelineStatus}
		prev, ok := uc.last[r.Key()]
		uc.last[r.Key()] = cur
		if ok && prev == cur {
			continue
		}
		// errors are logged by the report pass; a notification per failed poll is noise
		if r.IsError() {
			continue
		}

		changed++
		_ = uc.note.Notify(ctx, titleFor(r), bodyFor(r), r.RevisionURL)
	}

	return changed, nil
}

func titleFor(r domain.ReportRecord) string {
	switch domain.ExecutionStatus(r.PipelineStatus) {
	case domain.ExecSucceeded:
		return "✅ " + r.Pipeline + ": succeeded"
	case domain.ExecFailed:
		return "❌ " + r.Pipeline + ": failed"
	case domain.ExecInProgress:
		return "▶️ " + r.Pipeline + ": in progress"
	case domain.ExecCancelled, domain.ExecStopped, domain.ExecStopping:
		return "⛔ " + r.Pipeline + ": " + r.PipelineStatus
	default:
		return "ℹ️ " + r.Pipeline + ": " + r.PipelineStatus
	}
}

func bodyFor(r domain.ReportRecord) string {
	body := r.Region + " · " + r.Branch + " · " + r.DeployStage + " " + r.DeployStatus
	if r.RevisionSummary != "" {
		body += "\n" + r.RevisionSummary
	}
	return body
}
