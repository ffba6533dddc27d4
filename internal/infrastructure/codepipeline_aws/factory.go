package codepipeline_aws

import (
	"context"
	"errors"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	"github.com/davarch/deploy-report/internal/domain"
)

// Factory builds one CodePipeline client per region from the shared AWS
// configuration, optionally pinned to a named profile.
type Factory struct {
	profile string
	timeout time.Duration
	retry   RetryPolicy
}

func NewFactory(profile string, timeout time.Duration, retry RetryPolicy) *Factory {
	return &Factory{profile: profile, timeout: timeout, retry: retry}
}

func (f *Factory) ForRegion(ctx context.Context, region string) (domain.PipelineBackend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		// retries are handled by Client.do
		awsconfig.WithRetryMaxAttempts(1),
	}
	if f.profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(f.profile))
	}
	if f.timeout > 0 {
		opts = append(opts, awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(f.timeout)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.Credentials == nil {
		return nil, errors.New("no credentials provider")
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, err
	}

	return NewClient(codepipeline.NewFromConfig(cfg), f.retry), nil
}
