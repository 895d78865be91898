// Package bootstrap assembles the pipeline from a Config: object store,
// result store, telemetry and the three services.
package bootstrap

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sh3r4rd/file_analysis/internal/config"
	"github.com/sh3r4rd/file_analysis/internal/handler"
	"github.com/sh3r4rd/file_analysis/internal/observability"
	"github.com/sh3r4rd/file_analysis/internal/results"
	"github.com/sh3r4rd/file_analysis/internal/router"
	"github.com/sh3r4rd/file_analysis/internal/service"
	"github.com/sh3r4rd/file_analysis/internal/storage"
)

// App is a fully wired pipeline: stores, telemetry and the three services.
type App struct {
	Config     *config.Config
	Logger     *observability.Logger
	Registry   *prometheus.Registry
	Objects    storage.ObjectStore
	Memory     *storage.MemoryStore
	Results    results.Store
	Authorizer *service.UploadAuthorizer
	Worker     *service.AnalysisWorker
	Resolver   *service.ResultResolver

	inflight sync.WaitGroup
}

// Option customizes New.
type Option func(*App)

// WithLogger replaces the logger built from the config.
func WithLogger(l *observability.Logger) Option {
	return func(a *App) { a.Logger = l }
}

// New wires the pipeline. With the memory store, uploads accepted by the
// local server trigger the worker in the background.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	app := &App{Config: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.Logger == nil {
		app.Logger = observability.NewLogger(observability.LogConfig{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: os.Stdout,
		})
	}

	observer := observability.NopObserver()
	if cfg.MetricsEnabled {
		app.Registry = prometheus.NewRegistry()
		prom, err := observability.NewPrometheusObserver("file_analysis", app.Registry)
		if err != nil {
			return nil, err
		}
		observer = prom
	}

	if err := app.buildStores(ctx); err != nil {
		return nil, err
	}

	app.Authorizer = service.NewUploadAuthorizer(app.Objects,
		service.WithTTL(cfg.UploadURLTTL),
		service.WithMaxUploadSize(cfg.MaxFileSizeBytes),
		service.WithAuthorizerObserver(observer),
		service.WithAuthorizerLogger(app.Logger),
	)
	app.Worker = service.NewAnalysisWorker(app.Objects, app.Results,
		service.WithConcurrency(cfg.WorkerConcurrency),
		service.WithWorkerObserver(observer),
		service.WithWorkerLogger(app.Logger),
	)
	resolver, err := service.NewResultResolver(app.Results,
		service.WithCacheSize(cfg.ResultCacheSize),
		service.WithResolverObserver(observer),
		service.WithResolverLogger(app.Logger),
	)
	if err != nil {
		return nil, err
	}
	app.Resolver = resolver

	if app.Memory != nil {
		app.Memory.Subscribe(app.dispatch)
	}
	return app, nil
}

func (a *App) buildStores(ctx context.Context) error {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.StoreS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		a.Objects = storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.BucketName, cfg.MaxFileSizeBytes)
		if cfg.ResultsBackend == config.ResultsDynamoDB {
			a.Results = results.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.ResultsTable)
		}
	default:
		secret := []byte(cfg.SigningSecret)
		if len(secret) == 0 {
			secret = make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return fmt.Errorf("generate signing secret: %w", err)
			}
			a.Logger.Warn("SIGNING_SECRET not set, upload URLs will not survive a restart")
		}
		a.Memory = storage.NewMemoryStore(cfg.PublicBaseURL, secret, cfg.MaxFileSizeBytes)
		a.Objects = a.Memory
	}
	if a.Results == nil {
		a.Results = results.NewObjectStore(a.Objects)
	}
	return nil
}

// dispatch runs the worker for a newly stored upload outside the request
// that wrote it.
func (a *App) dispatch(ctx context.Context, key string) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		if _, err := a.Worker.Process(context.WithoutCancel(ctx), key); err != nil {
			a.Logger.Error("background analysis failed", "key", key, "error", err)
		}
	}()
}

// Wait blocks until background analyses started by uploads have finished.
func (a *App) Wait() {
	a.inflight.Wait()
}

// Handler builds the local HTTP API.
func (a *App) Handler() http.Handler {
	opts := router.Options{
		Logger: a.Logger,
		Upload: handler.NewUploadHandler(a.Authorizer, a.Logger),
		Result: handler.NewResultHandler(a.Resolver),
	}
	if a.Memory != nil {
		opts.Objects = handler.NewObjectHandler(a.Memory, router.ObjectsPrefix, a.Logger)
	}
	if a.Registry != nil {
		opts.Metrics = a.Registry
	}
	return router.New(opts)
}
