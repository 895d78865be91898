package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/observability"
	"github.com/sh3r4rd/file_analysis/internal/results"
)

const defaultResolverCacheSize = 1024

// ResultResolver answers polls for a fileId. Terminal records never change,
// so they are cached; "not ready" is always looked up again.
type ResultResolver struct {
	results  results.Store
	cache    *lru.Cache[string, model.ResultRecord]
	observer observability.Observer
	logger   *observability.Logger
}

// ResolverOption customizes a ResultResolver.
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	cacheSize int
	observer  observability.Observer
	logger    *observability.Logger
}

// WithCacheSize bounds the terminal-record cache. Zero disables it.
func WithCacheSize(n int) ResolverOption {
	return func(o *resolverOptions) { o.cacheSize = n }
}

// WithResolverObserver reports poll outcomes to obs.
func WithResolverObserver(obs observability.Observer) ResolverOption {
	return func(o *resolverOptions) { o.observer = obs }
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l *observability.Logger) ResolverOption {
	return func(o *resolverOptions) { o.logger = l }
}

// NewResultResolver builds a resolver over store.
func NewResultResolver(store results.Store, opts ...ResolverOption) (*ResultResolver, error) {
	o := resolverOptions{cacheSize: defaultResolverCacheSize, observer: observability.NopObserver()}
	for _, opt := range opts {
		opt(&o)
	}
	r := &ResultResolver{
		results:  store,
		observer: o.observer,
		logger:   observability.OrNop(o.logger).Component("resolver"),
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, model.ResultRecord](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create result cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Resolve returns the terminal record for fileID. ready is false while the
// worker has not written one yet; that is not an error.
func (r *ResultResolver) Resolve(ctx context.Context, fileID string) (rec model.ResultRecord, ready bool, err error) {
	start := time.Now()
	outcome := observability.ResolveFailed
	ctx, span := observability.StartSpan(ctx, "resolve", attribute.String("file.id", fileID))
	defer func() {
		observability.EndSpan(span, err)
		r.observer.RecordResolve(outcome, time.Since(start))
	}()

	if !model.ValidFileID(fileID) {
		return model.ResultRecord{}, false, &model.ValidationError{Field: "fileId", Reason: "must be a UUID issued by the upload endpoint"}
	}

	if r.cache != nil {
		if cached, ok := r.cache.Get(fileID); ok {
			outcome = terminalOutcome(cached)
			return cached, true, nil
		}
	}

	rec, err = r.results.Get(ctx, fileID)
	if errors.Is(err, results.ErrNotFound) {
		outcome = observability.ResolveNotReady
		return model.ResultRecord{}, false, nil
	}
	if err != nil {
		r.logger.WithContext(ctx).Error("result lookup failed", "fileId", fileID, "error", err)
		return model.ResultRecord{}, false, fmt.Errorf("resolve %s: %w", fileID, err)
	}
	if !rec.IsTerminal() {
		r.logger.WithContext(ctx).Error("stored record is not terminal", "fileId", fileID, "status", rec.Status)
		return model.ResultRecord{}, false, fmt.Errorf("resolve %s: stored record has status %q", fileID, rec.Status)
	}

	if r.cache != nil {
		r.cache.Add(fileID, rec)
	}
	outcome = terminalOutcome(rec)
	return rec, true, nil
}

func terminalOutcome(rec model.ResultRecord) string {
	if rec.Status == model.StatusError {
		return observability.ResolveError
	}
	return observability.ResolveProcessed
}
