package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davarch/deploy-report/internal/domain"
)

var (
	t1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 = t1.Add(90 * time.Second)
)

func TestDeployActionStatus_PicksLatestRegardlessOfOrder(t *testing.T) {
	orders := [][]domain.ActionExecutionDetail{
		{
			{StageName: "Deploy", ActionName: "Old", Status: "Failed", LastUpdateTime: t1},
			{StageName: "Deploy", ActionName: "New", Status: "Succeeded", LastUpdateTime: t2},
		},
		{
			{StageName: "Deploy", ActionName: "New", Status: "Succeeded", LastUpdateTime: t2},
			{StageName: "Deploy", ActionName: "Old", Status: "Failed", LastUpdateTime: t1},
		},
	}

	for i, details := range orders {
		b := &domain.MockBackend{Actions: map[string][]domain.ActionExecutionDetail{"p": details}}
		got, found, err := DeployActionStatus(context.Background(), b, "p", "exec-1", "Deploy")
		if err != nil || !found {
			t.Fatalf("order %d: unexpected (%v, %v)", i, found, err)
		}
		if got.ActionName != "New" || got.Status != "Succeeded" || !got.UpdatedAt.Equal(t2) {
			t.Errorf("order %d: got %+v", i, got)
		}
	}
}

func TestDeployActionStatus_FiltersStageCaseSensitive(t *testing.T) {
	b := &domain.MockBackend{Actions: map[string][]domain.ActionExecutionDetail{"p": {
		{StageName: "deploy", ActionName: "Lower", Status: "Succeeded", LastUpdateTime: t2},
		{StageName: "Build", ActionName: "Compile", Status: "Succeeded", LastUpdateTime: t2},
	}}}

	got, found, err := DeployActionStatus(context.Background(), b, "p", "exec-1", "Deploy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestDeployActionStatus_TieKeepsFirst(t *testing.T) {
	b := &domain.MockBackend{Actions: map[string][]domain.ActionExecutionDetail{"p": {
		{StageName: "Deploy", ActionName: "First", Status: "Succeeded", LastUpdateTime: t1},
		{StageName: "Deploy", ActionName: "Second", Status: "Failed", LastUpdateTime: t1},
	}}}

	got, _, _ := DeployActionStatus(context.Background(), b, "p", "exec-1", "Deploy")
	if got.ActionName != "First" {
		t.Errorf("expected First, got %q", got.ActionName)
	}
}

func TestDeployActionStatus_BackendError(t *testing.T) {
	boom := errors.New("boom")
	b := &domain.MockBackend{Errs: map[string]error{"ActionExecutions:p": boom}}

	_, _, err := DeployActionStatus(context.Background(), b, "p", "exec-1", "Deploy")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRevisionInfo_FirstWins(t *testing.T) {
	b := &domain.MockBackend{Revisions: map[string][]domain.ArtifactRevision{"p": {
		{RevisionID: "rev-1", RevisionSummary: "fix bug", RevisionURL: "http://x"},
		{RevisionID: "rev-2"},
	}}}

	rev, err := RevisionInfo(context.Background(), b, "p", "exec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev == nil || rev.RevisionID != "rev-1" {
		t.Fatalf("expected rev-1, got %+v", rev)
	}
}

func TestRevisionInfo_None(t *testing.T) {
	rev, err := RevisionInfo(context.Background(), &domain.MockBackend{}, "p", "exec-1")
	if err != nil || rev != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", rev, err)
	}
}
