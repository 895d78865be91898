package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/sh3r4rd/file_analysis/internal/config"
	"github.com/sh3r4rd/file_analysis/internal/observability"
)

// NewLambda loads configuration from the function environment and wires the
// pipeline against S3. Logs are JSON; there is no metrics endpoint to scrape.
func NewLambda(ctx context.Context) (*App, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	if cfg.StoreBackend != config.StoreS3 {
		return nil, fmt.Errorf("lambda functions need STORE_BACKEND=%s, got %q", config.StoreS3, cfg.StoreBackend)
	}
	cfg.LogFormat = "json"
	cfg.MetricsEnabled = false
	return New(ctx, cfg)
}

// InvocationContext tags ctx with the Lambda request id for log lines.
func InvocationContext(ctx context.Context) context.Context {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return observability.ContextWithRequestID(ctx, lc.AwsRequestID)
	}
	return ctx
}
