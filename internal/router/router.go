package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sh3r4rd/file_analysis/internal/handler"
	mw "github.com/sh3r4rd/file_analysis/internal/middleware"
	"github.com/sh3r4rd/file_analysis/internal/observability"
)

// ObjectsPrefix is where the local object store accepts presigned uploads.
const ObjectsPrefix = "/objects/"

// Options collects the handlers mounted by New. Objects and Metrics are
// optional.
type Options struct {
	Logger  *observability.Logger
	Upload  *handler.UploadHandler
	Result  *handler.ResultHandler
	Objects *handler.ObjectHandler
	Metrics prometheus.Gatherer
}

// New builds the HTTP API router.
func New(opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mw.Logger(opts.Logger))
	r.Use(mw.CORS)

	r.Get("/healthz", handler.Health)
	r.Post("/upload", opts.Upload.Create)
	r.Get("/result/{fileId}", opts.Result.Get)

	if opts.Objects != nil {
		r.Put(ObjectsPrefix+"*", opts.Objects.Put)
	}
	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}))
	}
	return r
}
