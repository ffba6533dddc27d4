package application

import (
	"context"
	"errors"
	"testing"

	"github.com/davarch/deploy-report/internal/domain"
)

func TestPollOnce_NewExecutionTriggersNotifyAndCache(t *testing.T) {
	b := healthyBackend()
	f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"us-east-1": b}}
	note := &domain.MockNotifier{}
	cache := &domain.MockCache{}

	uc := NewWatchUseCase(newUseCase(f, ReportOptions{}), note, cache)

	changed, err := uc.PollOnce(context.Background(), []string{"us-east-1"}, []string{"svc-A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed != 1 || len(note.Messages) != 1 {
		t.Errorf("expected 1 notification, got %d (%d changed)", len(note.Messages), changed)
	}
	if len(cache.Snapshots) != 1 || len(cache.Snapshots[0].Records) != 1 {
		t.Errorf("expected 1 snapshot with 1 record, got %+v", cache.Snapshots)
	}
}

func TestPollOnce_SameStateDoesNotNotify(t *testing.T) {
	b := healthyBackend()
	f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"us-east-1": b}}
	note := &domain.MockNotifier{}
	uc := NewWatchUseCase(newUseCase(f, ReportOptions{}), note, &domain.MockCache{})

	_, _ = uc.PollOnce(context.Background(), []string{"us-east-1"}, []string{"svc-A"})
	_, _ = uc.PollOnce(context.Background(), []string{"us-east-1"}, []string{"svc-A"})

	if len(note.Messages) != 1 {
		t.Errorf("expected 1 notification total, got %d", len(note.Messages))
	}

	b.Executions["svc-A"] = &domain.ExecutionSummary{ExecutionID: "exec-2", Status: domain.ExecInProgress}
	_, _ = uc.PollOnce(context.Background(), []string{"us-east-1"}, []string{"svc-A"})

	if len(note.Messages) != 2 {
		t.Errorf("expected a notification for the new execution, got %d", len(note.Messages))
	}
}

func TestPollOnce_ErrorRecordsAreNotNotified(t *testing.T) {
	b := healthyBackend()
	b.Errs = map[string]error{"LatestExecution:svc-A": errors.New("down")}
	f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"us-east-1": b}}
	note := &domain.MockNotifier{}
	uc := NewWatchUseCase(newUseCase(f, ReportOptions{}), note, &domain.MockCache{})

	changed, err := uc.PollOnce(context.Background(), []string{"us-east-1"}, []string{"svc-A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed != 0 || len(note.Messages) != 0 {
		t.Errorf("expected no notification, got %v", note.Messages)
	}
}

func TestPollOnce_NoRegions(t *testing.T) {
	f := &domain.MockFactory{Errs: map[string]error{"us-east-1": errors.New("no creds")}}
	cache := &domain.MockCache{}
	uc := NewWatchUseCase(newUseCase(f, ReportOptions{}), &domain.MockNotifier{}, cache)

	if _, err := uc.PollOnce(context.Background(), []string{"us-east-1"}, []string{"svc-A"}); !errors.Is(err, domain.ErrNoRegions) {
		t.Fatalf("expected ErrNoRegions, got %v", err)
	}
	if len(cache.Snapshots) != 0 {
		t.Errorf("expected no snapshot, got %d", len(cache.Snapshots))
	}
}
