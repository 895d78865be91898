package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/sh3r4rd/file_analysis/internal/analysis"
	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/observability"
	"github.com/sh3r4rd/file_analysis/internal/results"
	"github.com/sh3r4rd/file_analysis/internal/storage"
)

const internalFailureMessage = "internal error while analyzing file"

// AnalyzeFunc turns raw bytes into a terminal record.
type AnalyzeFunc func(fileID, fileName, contentType string, data []byte) model.ResultRecord

// AnalysisWorker runs once per stored raw object. Anything that goes wrong
// while reading or analysing is recorded as an error result; only a failed
// result write is returned, so the event source redelivers.
type AnalysisWorker struct {
	objects     storage.ObjectStore
	results     results.Store
	analyze     AnalyzeFunc
	concurrency int
	observer    observability.Observer
	logger      *observability.Logger
}

// WorkerOption customizes an AnalysisWorker.
type WorkerOption func(*AnalysisWorker)

// WithAnalyzeFunc replaces the analyzer.
func WithAnalyzeFunc(fn AnalyzeFunc) WorkerOption {
	return func(w *AnalysisWorker) { w.analyze = fn }
}

// WithConcurrency bounds how many records of one event batch run at once.
func WithConcurrency(n int) WorkerOption {
	return func(w *AnalysisWorker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithWorkerObserver reports analysis metrics to obs.
func WithWorkerObserver(obs observability.Observer) WorkerOption {
	return func(w *AnalysisWorker) { w.observer = obs }
}

// WithWorkerLogger sets the logger.
func WithWorkerLogger(l *observability.Logger) WorkerOption {
	return func(w *AnalysisWorker) { w.logger = l }
}

// NewAnalysisWorker builds a worker reading from objects and writing to results.
func NewAnalysisWorker(objects storage.ObjectStore, store results.Store, opts ...WorkerOption) *AnalysisWorker {
	w := &AnalysisWorker{
		objects:     objects,
		results:     store,
		analyze:     analysis.Analyze,
		concurrency: 4,
		observer:    observability.NopObserver(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = observability.OrNop(w.logger).Component("worker")
	return w
}

// Process analyses the raw object at key and writes its result record.
func (w *AnalysisWorker) Process(ctx context.Context, key string) (rec model.ResultRecord, err error) {
	fileID, fileName, err := model.ParseRawObjectKey(key)
	if err != nil {
		w.logger.WithContext(ctx).Warn("ignoring object outside submission layout", "key", key)
		return model.ResultRecord{}, fmt.Errorf("%w: %s", ErrNotASubmission, key)
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "analyze", attribute.String("file.id", fileID))
	defer func() { observability.EndSpan(span, err) }()

	log := w.logger.WithContext(ctx).With("fileId", fileID)
	rec = w.analyzeObject(ctx, log, fileID, fileName, key)

	if err := w.results.Put(ctx, rec); err != nil {
		log.Error("result write failed", "error", err)
		return rec, fmt.Errorf("write result %s: %w", fileID, err)
	}

	w.observer.RecordAnalysis(string(rec.FileType), string(rec.Status), time.Since(start))
	if rec.Status == model.StatusError {
		log.Info("analysis recorded error", "fileType", rec.FileType, "reason", rec.Error)
	} else {
		log.Info("analysis complete", "fileType", rec.FileType, "duration", time.Since(start))
	}
	return rec, nil
}

func (w *AnalysisWorker) analyzeObject(ctx context.Context, log *observability.Logger, fileID, fileName, key string) (rec model.ResultRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("analysis panicked", "panic", fmt.Sprint(r))
			rec = model.NewErrorResult(fileID, "", internalFailureMessage)
		}
	}()

	obj, err := w.objects.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectTooLarge) {
		log.Warn("raw object over size limit", "key", key)
		return model.NewErrorResult(fileID, "", "file exceeds maximum upload size")
	}
	if err != nil {
		log.Error("raw object read failed", "key", key, "error", err)
		return model.NewErrorResult(fileID, "", internalFailureMessage)
	}
	return w.analyze(fileID, fileName, obj.ContentType, obj.Data)
}

// HandleS3Event processes every object-created record in event. Records fan
// out with bounded concurrency; the batch fails only when a result write did.
func (w *AnalysisWorker) HandleS3Event(ctx context.Context, event events.S3Event) error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(w.concurrency)

	for _, record := range event.Records {
		if !strings.Contains(record.EventName, "ObjectCreated") {
			continue
		}
		key, err := eventKey(record)
		if err != nil {
			w.logger.WithContext(ctx).Warn("undecodable object key", "key", record.S3.Object.Key, "error", err)
			continue
		}
		g.Go(func() error {
			if _, err := w.Process(ctx, key); err != nil && !errors.Is(err, ErrNotASubmission) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// S3 event keys arrive URL-encoded with '+' for spaces.
func eventKey(record events.S3EventRecord) (string, error) {
	if record.S3.Object.URLDecodedKey != "" {
		return record.S3.Object.URLDecodedKey, nil
	}
	return url.QueryUnescape(record.S3.Object.Key)
}
