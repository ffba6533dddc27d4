package codepipeline_aws

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/cenkalti/backoff/v4"
	"github.com/davarch/deploy-report/internal/domain"
)

type api interface {
	ListPipelineExecutions(ctx context.Context, in *codepipeline.ListPipelineExecutionsInput, optFns ...func(*codepipeline.Options)) (*codepipeline.ListPipelineExecutionsOutput, error)
	GetPipeline(ctx context.Context, in *codepipeline.GetPipelineInput, optFns ...func(*codepipeline.Options)) (*codepipeline.GetPipelineOutput, error)
	ListActionExecutions(ctx context.Context, in *codepipeline.ListActionExecutionsInput, optFns ...func(*codepipeline.Options)) (*codepipeline.ListActionExecutionsOutput, error)
	GetPipelineExecution(ctx context.Context, in *codepipeline.GetPipelineExecutionInput, optFns ...func(*codepipeline.Options)) (*codepipeline.GetPipelineExecutionOutput, error)
}

type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
	MaxRetries      uint64
}

// Client is a domain.PipelineBackend for one region.
type Client struct {
	api   api
	retry RetryPolicy
}

func NewClient(a api, retry RetryPolicy) *Client {
	return &Client{api: a, retry: retry}
}

func (c *Client) LatestExecution(ctx context.Context, pipeline string) (*domain.ExecutionSummary, error) {
	var out *codepipeline.ListPipelineExecutionsOutput

	err := c.do(ctx, "ListPipelineExecutions", func() (err error) {
		out, err = c.api.ListPipelineExecutions(ctx, &codepipeline.ListPipelineExecutionsInput{
			PipelineName: aws.String(pipeline),
			MaxResults:   aws.Int32(1),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(out.PipelineExecutionSummaries) == 0 {
		return nil, nil
	}
	s := out.PipelineExecutionSummaries[0]

	return &domain.ExecutionSummary{
		ExecutionID:    aws.ToString(s.PipelineExecutionId),
		Status:         domain.ExecutionStatus(s.Status),
		LastUpdateTime: aws.ToTime(s.LastUpdateTime),
	}, nil
}

func (c *Client) PipelineDefinition(ctx context.Context, pipeline string) (domain.PipelineDefinition, error) {
	var out *codepipeline.GetPipelineOutput

	err := c.do(ctx, "GetPipeline", func() (err error) {
		out, err = c.api.GetPipeline(ctx, &codepipeline.GetPipelineInput{Name: aws.String(pipeline)})
		return err
	})
	if err != nil {
		return domain.PipelineDefinition{}, err
	}

	return mapDefinition(out.Pipeline), nil
}

func (c *Client) ActionExecutions(ctx context.Context, pipeline, executionID string) ([]domain.ActionExecutionDetail, error) {
	p := codepipeline.NewListActionExecutionsPaginator(c.api, &codepipeline.ListActionExecutionsInput{
		PipelineName: aws.String(pipeline),
		Filter:       &types.ActionExecutionFilter{PipelineExecutionId: aws.String(executionID)},
	})

	var details []domain.ActionExecutionDetail
	for p.HasMorePages() {
		var page *codepipeline.ListActionExecutionsOutput
		err := c.do(ctx, "ListActionExecutions", func() (err error) {
			page, err = p.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, d := range page.ActionExecutionDetails {
			details = append(details, domain.ActionExecutionDetail{
				StageName:      aws.ToString(d.StageName),
				ActionName:     aws.ToString(d.ActionName),
				Status:         string(d.Status),
				LastUpdateTime: aws.ToTime(d.LastUpdateTime),
			})
		}
	}

	return details, nil
}

func (c *Client) ArtifactRevisions(ctx context.Context, pipeline, executionID string) ([]domain.ArtifactRevision, error) {
	var out *codepipeline.GetPipelineExecutionOutput

	err := c.do(ctx, "GetPipelineExecution", func() (err error) {
		out, err = c.api.GetPipelineExecution(ctx, &codepipeline.GetPipelineExecutionInput{
			PipelineName:        aws.String(pipeline),
			PipelineExecutionId: aws.String(executionID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if out.PipelineExecution == nil {
		return nil, nil
	}

	revs := make([]domain.ArtifactRevision, 0, len(out.PipelineExecution.ArtifactRevisions))
	for _, r := range out.PipelineExecution.ArtifactRevisions {
		revs = append(revs, domain.ArtifactRevision{
			RevisionID:      aws.ToString(r.RevisionId),
			RevisionSummary: aws.ToString(r.RevisionSummary),
			RevisionURL:     aws.ToString(r.RevisionUrl),
		})
	}
	return revs, nil
}

func mapDefinition(p *types.PipelineDeclaration) domain.PipelineDefinition {
	if p == nil {
		return domain.PipelineDefinition{}
	}

	def := domain.PipelineDefinition{Name: aws.ToString(p.Name)}
	for _, st := range p.Stages {
		stage := domain.Stage{Name: aws.ToString(st.Name)}
		for _, a := range st.Actions {
			action := domain.Action{Name: aws.ToString(a.Name), Configuration: a.Configuration}
			if a.ActionTypeId != nil {
				action.Category = string(a.ActionTypeId.Category)
			}
			stage.Actions = append(stage.Actions, action)
		}
		def.Stages = append(def.Stages, stage)
	}
	return def
}

// do retries transient failures and wraps whatever is left in a BackendError.
func (c *Client) do(ctx context.Context, op string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.InitialInterval
	bo.MaxInterval = c.retry.MaxInterval
	bo.MaxElapsedTime = c.retry.MaxElapsed

	var b backoff.BackOff = bo
	if c.retry.MaxRetries > 0 {
		b = backoff.WithMaxRetries(bo, c.retry.MaxRetries)
	}

	err := backoff.Retry(func() error {
		err := fn()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return &domain.BackendError{Op: op, Kind: errorCode(err), Err: err}
	}
	return nil
}

var throttlingCodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"ThrottledException":                     true,
	"RequestLimitExceeded":                   true,
	"RequestThrottledException":              true,
	"TooManyRequestsException":               true,
	"ProvisionedThroughputExceededException": true,
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		return throttlingCodes[ae.ErrorCode()] || ae.ErrorFault() == smithy.FaultServer
	}

	// only failures to get a request onto the wire are worth another try;
	// validation, serialization and credential errors repeat identically
	var send *smithyhttp.RequestSendError
	if errors.As(err, &send) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func errorCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}
