package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/davarch/deploy-report/internal/domain"
	"go.uber.org/zap"
)

const DefaultConcurrency = 4

type ReportOptions struct {
	// DeployStage overrides stage auto-detection when non-empty.
	DeployStage string
	// Concurrency bounds the number of pairs resolved at once; 1 is sequential.
	Concurrency int
}

type Report struct {
	Records       []domain.ReportRecord
	FailedRegions []string
}

type ReportUseCase struct {
	log     *zap.Logger
	factory domain.BackendFactory
	opts    ReportOptions
}

func NewReportUseCase(l *zap.Logger, f domain.BackendFactory, opts ReportOptions) *ReportUseCase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &ReportUseCase{log: l, factory: f, opts: opts}
}

type pairJob struct {
	idx     int
	target  domain.Target
	backend domain.PipelineBackend
}

// Run produces one record per (region, pipeline) pair in input order, regions
// outer. Regions whose client cannot be built contribute no records; the run
// fails only when none could be built.
func (uc *ReportUseCase) Run(ctx context.Context, regions, pipelines []string) (Report, error) {
	var (
		rep  Report
		jobs []pairJob
		errs []error
	)

	for _, region := range regions {
		b, err := uc.factory.ForRegion(ctx, region)
		if err != nil {
			cerr := &domain.ClientInitError{Region: region, Err: err}
			uc.log.Error("region skipped", zap.String("region", region), zap.Error(cerr))
			rep.FailedRegions = append(rep.FailedRegions, region)
			errs = append(errs, cerr)
			continue
		}
		for _, p := range pipelines {
			jobs = append(jobs, pairJob{
				idx:     len(jobs),
				target:  domain.Target{Region: region, Pipeline: p},
				backend: b,
			})
		}
	}

	if len(regions) > 0 && len(rep.FailedRegions) == len(regions) {
		return rep, fmt.Errorf("%w: %w", domain.ErrNoRegions, errors.Join(errs...))
	}

	rep.Records = make([]domain.ReportRecord, len(jobs))
	semaphore := make(chan struct{}, uc.opts.Concurrency)

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j pairJob) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			rep.Records[j.idx] = uc.processPair(ctx, j.backend, j.target)
		}(j)
	}
	wg.Wait()

	return rep, nil
}

func (uc *ReportUseCase) configuredStage() string {
	if uc.opts.DeployStage != "" {
		return uc.opts.DeployStage
	}
	return domain.DefaultDeployStage
}

// processPair never fails: errors and panics collapse into an error record.
func (uc *ReportUseCase) processPair(ctx context.Context, b domain.PipelineBackend, t domain.Target) (rec domain.ReportRecord) {
	defer func() {
		if r := recover(); r != nil {
			uc.log.Error("pair panicked",
				zap.String("region", t.Region),
				zap.String("pipeline", t.Pipeline),
				zap.Any("panic", r),
			)
			rec = domain.ErrorRecord(t, uc.configuredStage(), "panic", fmt.Sprint(r))
		}
	}()

	rec, err := uc.resolvePair(ctx, b, t)
	if err != nil {
		uc.log.Warn("pair failed",
			zap.String("region", t.Region),
			zap.String("pipeline", t.Pipeline),
			zap.Error(err),
		)
		return domain.ErrorRecord(t, uc.configuredStage(), ErrorKind(err), err.Error())
	}

	uc.log.Debug("pair resolved",
		zap.String("region", t.Region),
		zap.String("pipeline", t.Pipeline),
		zap.String("status", rec.PipelineStatus),
	)
	return rec
}

func (uc *ReportUseCase) resolvePair(ctx context.Context, b domain.PipelineBackend, t domain.Target) (domain.ReportRecord, error) {
	exec, err := LatestExecution(ctx, b, t.Pipeline)
	if err != nil {
		return domain.ReportRecord{}, err
	}
	if exec == nil {
		return domain.NoExecutionRecord(t, uc.configuredStage()), nil
	}

	def, err := b.PipelineDefinition(ctx, t.Pipeline)
	if err != nil {
		return domain.ReportRecord{}, err
	}

	branch, ok := SourceBranch(def)
	if !ok {
		branch = domain.BranchUnknown
	}
	stage := DeployStageName(def, uc.opts.DeployStage, domain.DefaultDeployStage)

	action, found, err := DeployActionStatus(ctx, b, t.Pipeline, exec.ExecutionID, stage)
	if err != nil {
		return domain.ReportRecord{}, err
	}
	deployStatus := domain.StatusUnknown
	if found && action.Status != "" {
		deployStatus = action.Status
	}

	rev, err := RevisionInfo(ctx, b, t.Pipeline, exec.ExecutionID)
	if err != nil {
		return domain.ReportRecord{}, err
	}

	pipelineStatus := string(exec.Status)
	if pipelineStatus == "" {
		pipelineStatus = domain.StatusUnknown
	}

	rec := domain.ReportRecord{
		Region:         t.Region,
		Pipeline:       t.Pipeline,
		Branch:         branch,
		DeployStage:    stage,
		DeployAction:   action.ActionName,
		DeployStatus:   deployStatus,
		PipelineStatus: pipelineStatus,
		LastUpdate:     exec.LastUpdateTime,
		ExecutionID:    exec.ExecutionID,
	}
	if rev != nil {
		rec.RevisionID = rev.RevisionID
		rec.RevisionSummary = rev.RevisionSummary
		rec.RevisionURL = rev.RevisionURL
	}

	return rec, nil
}

// ErrorKind names the failure shown in an error record's pipeline status.
func ErrorKind(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "DeadlineExceeded"
	}
	var be *domain.BackendError
	if errors.As(err, &be) {
		if be.Kind != "" {
			return be.Kind
		}
		return "BackendError"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
