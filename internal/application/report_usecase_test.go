package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/davarch/deploy-report/internal/domain"
	"go.uber.org/zap"
)

func healthyBackend() *domain.MockBackend {
	return &domain.MockBackend{
		Executions: map[string]*domain.ExecutionSummary{
			"svc-A": {ExecutionID: "exec-1", Status: domain.ExecSucceeded, LastUpdateTime: t1},
		},
		Definitions: map[string]domain.PipelineDefinition{"svc-A": sampleDefinition()},
		Actions: map[string][]domain.ActionExecutionDetail{"svc-A": {
			{StageName: "Source", ActionName: "Checkout", Status: "Succeeded", LastUpdateTime: t1},
			{StageName: "Deploy", ActionName: "DeployAction", Status: "Succeeded", LastUpdateTime: t1},
		}},
		Revisions: map[string][]domain.ArtifactRevision{"svc-A": {
			{RevisionID: "rev-1", RevisionSummary: "fix bug", RevisionURL: "http://x"},
		}},
	}
}

func newUseCase(f domain.BackendFactory, opts ReportOptions) *ReportUseCase {
	return NewReportUseCase(zap.NewNop(), f, opts)
}

func TestRun_EndToEnd(t *testing.T) {
	f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"us-east-1": healthyBackend()}}

	rep, err := newUseCase(f, ReportOptions{}).Run(context.Background(), []string{"us-east-1"}, []string{"svc-A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(rep.Records))
	}

	want := domain.ReportRecord{
		Region: "us-east-1", Pipeline: "svc-A", Branch: "main",
		DeployStage: "Deploy", DeployAction: "DeployAction", DeployStatus: "Succeeded",
		PipelineStatus: "Succeeded", LastUpdate: t1, ExecutionID: "exec-1",
		RevisionID: "rev-1", RevisionSummary: "fix bug", RevisionURL: "http://x",
	}
	if got := rep.Records[0]; got != want {
		t.Errorf("record mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestRun_NoExecution(t *testing.T) {
	b := &domain.MockBackend{}
	f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"eu-west-1": b}}

	rep, err := newUseCase(f, ReportOptions{DeployStage: "Release"}).Run(context.Background(), []string{"eu-west-1"}, []string{"fresh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := rep.Records[0]
	if r.PipelineStatus != domain.StatusNoExecution || r.Branch != domain.BranchUnknown || r.DeployStage != "Release" {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.DeployAction != "" || r.DeployStatus != "" || r.ExecutionID != "" || r.RevisionID != "" ||
		r.RevisionSummary != "" || r.RevisionURL != "" || !r.LastUpdate.IsZero() {
		t.Errorf("expected blank status fields: %+v", r)
	}
	if n := b.CallCount("fresh"); n != 1 {
		t.Errorf("expected only the execution lookup, got %d calls", n)
	}
}

func TestRun_BackendErrorBecomesErrorRecord(t *testing.T) {
	for _, op := range []string{"LatestExecution", "PipelineDefinition", "ActionExecutions", "ArtifactRevisions"} {
		t.Run(op, func(t *testing.T) {
			b := healthyBackend()
			b.Errs = map[string]error{op + ":svc-A": &domain.BackendError{
				Op: op, Kind: "ThrottlingException", Err: errors.New(`rate "exceeded"`),
			}}
			f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"us-east-1": b}}

			rep, err := newUseCase(f, ReportOptions{}).Run(context.Background(), []string{"us-east-1"}, []string{"svc-A"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			r := rep.Records[0]
			if r.Branch != domain.BranchError || r.PipelineStatus != "ERROR: ThrottlingException" {
				t.Errorf("unexpected record: %+v", r)
			}
			if !strings.Contains(r.RevisionSummary, `rate "exceeded"`) {
				t.Errorf("expected error text in summary, got %q", r.RevisionSummary)
			}
			if r.DeployStage != domain.DefaultDeployStage || r.ExecutionID != "" || r.DeployStatus != "" {
				t.Errorf("expected blank status fields: %+v", r)
			}
			if !r.IsError() {
				t.Error("expected IsError")
			}
		})
	}
}

func TestRun_UnknownErrorAndPanic(t *testing.T) {
	b := healthyBackend()
	b.Errs = map[string]error{"PipelineDefinition:svc-A": fmt.Errorf("decode: %w", errors.New("bad"))}
	b.Panic = map[string]bool{"LatestExecution:svc-B": true}
	f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"us-east-1": b}}

	rep, err := newUseCase(f, ReportOptions{Concurrency: 1}).Run(context.Background(), []string{"us-east-1"}, []string{"svc-A", "svc-B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rep.Records))
	}
	if got := rep.Records[0].PipelineStatus; got != "ERROR: fmt.wrapError" {
		t.Errorf("unexpected status %q", got)
	}
	if got := rep.Records[1].PipelineStatus; got != "ERROR: panic" {
		t.Errorf("unexpected status %q", got)
	}
}

func TestRun_RegionFailureSkipsRegion(t *testing.T) {
	f := &domain.MockFactory{
		Backends: map[string]domain.PipelineBackend{"us-east-1": healthyBackend()},
		Errs:     map[string]error{"ap-northeast-1": errors.New("no credentials")},
	}

	rep, err := newUseCase(f, ReportOptions{}).Run(context.Background(),
		[]string{"ap-northeast-1", "us-east-1"}, []string{"svc-A", "svc-B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rep.Records))
	}
	for _, r := range rep.Records {
		if r.Region != "us-east-1" {
			t.Errorf("unexpected region %q", r.Region)
		}
	}
	if len(rep.FailedRegions) != 1 || rep.FailedRegions[0] != "ap-northeast-1" {
		t.Errorf("unexpected failed regions %v", rep.FailedRegions)
	}
}

func TestRun_AllRegionsFail(t *testing.T) {
	f := &domain.MockFactory{Errs: map[string]error{"a": errors.New("x"), "b": errors.New("y")}}

	_, err := newUseCase(f, ReportOptions{}).Run(context.Background(), []string{"a", "b"}, []string{"p"})
	if !errors.Is(err, domain.ErrNoRegions) {
		t.Fatalf("expected ErrNoRegions, got %v", err)
	}
	var cerr *domain.ClientInitError
	if !errors.As(err, &cerr) {
		t.Errorf("expected ClientInitError in chain, got %v", err)
	}
}

func TestRun_OrderAndCountUnderConcurrency(t *testing.T) {
	regions := []string{"r1", "r2", "r3"}
	var pipelines []string
	for i := 0; i < 20; i++ {
		pipelines = append(pipelines, fmt.Sprintf("p%02d", i))
	}

	b := &domain.MockBackend{Errs: map[string]error{"LatestExecution:p07": errors.New("boom")}}
	f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"r1": b, "r2": b, "r3": b}}

	rep, err := newUseCase(f, ReportOptions{Concurrency: 8}).Run(context.Background(), regions, pipelines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Records) != len(regions)*len(pipelines) {
		t.Fatalf("expected %d records, got %d", len(regions)*len(pipelines), len(rep.Records))
	}

	i := 0
	for _, region := range regions {
		for _, p := range pipelines {
			r := rep.Records[i]
			if r.Region != region || r.Pipeline != p {
				t.Fatalf("record %d: got (%s, %s), want (%s, %s)", i, r.Region, r.Pipeline, region, p)
			}
			if p == "p07" != r.IsError() {
				t.Errorf("record %d: unexpected error state %+v", i, r)
			}
			i++
		}
	}
}

func TestRun_DeployStatusUnknownWhenStageHasNoActions(t *testing.T) {
	b := healthyBackend()
	b.Actions = nil
	b.Revisions = nil
	f := &domain.MockFactory{Backends: map[string]domain.PipelineBackend{"us-east-1": b}}

	rep, err := newUseCase(f, ReportOptions{DeployStage: "Release"}).Run(context.Background(), []string{"us-east-1"}, []string{"svc-A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := rep.Records[0]
	if r.DeployStage != "Release" || r.DeployStatus != domain.StatusUnknown || r.DeployAction != "" {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.RevisionID != "" || r.PipelineStatus != "Succeeded" {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.BackendError{Op: "x", Kind: "PipelineNotFoundException", Err: errors.New("nf")}, "PipelineNotFoundException"},
		{fmt.Errorf("wrapped: %w", &domain.BackendError{Op: "x", Err: errors.New("io")}), "BackendError"},
		{context.Canceled, "Canceled"},
		{&domain.BackendError{Op: "ListPipelineExecutions", Err: context.Canceled}, "Canceled"},
		{&domain.BackendError{Op: "GetPipeline", Kind: "X", Err: fmt.Errorf("send: %w", context.DeadlineExceeded)}, "DeadlineExceeded"},
		{errors.New("plain"), "errors.errorString"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
