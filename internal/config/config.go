// Package config loads pipeline settings from the environment, optionally
// layered over a config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

// Object store backends.
const (
	StoreMemory = "memory"
	StoreS3     = "s3"
)

// Result store backends.
const (
	ResultsObject   = "object"
	ResultsDynamoDB = "dynamodb"
)

// Config holds every setting the binaries read at startup.
type Config struct {
	BucketName        string
	Region            string
	StoreBackend      string
	ResultsBackend    string
	ResultsTable      string
	UploadURLTTL      time.Duration
	MaxFileSizeBytes  int64
	WorkerConcurrency int
	ResultCacheSize   int
	HTTPAddr          string
	PublicBaseURL     string
	SigningSecret     string
	LogLevel          string
	LogFormat         string
	MetricsEnabled    bool
	PollInterval      time.Duration
	PollMaxAttempts   int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BUCKET_NAME", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("RESULTS_BACKEND", ResultsObject)
	v.SetDefault("RESULTS_TABLE", "")
	v.SetDefault("UPLOAD_URL_TTL", model.PresignedURLTTL)
	v.SetDefault("MAX_FILE_SIZE_BYTES", model.MaxFileSizeBytes)
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("RESULT_CACHE_SIZE", 1024)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("SIGNING_SECRET", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("POLL_INTERVAL", time.Duration(model.PollIntervalSeconds)*time.Second)
	v.SetDefault("POLL_MAX_ATTEMPTS", 60)
}

// Load reads configuration from the environment. When file is non-empty it
// is read first and environment variables override its values.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		BucketName:        v.GetString("BUCKET_NAME"),
		Region:            v.GetString("AWS_REGION"),
		StoreBackend:      strings.ToLower(v.GetString("STORE_BACKEND")),
		ResultsBackend:    strings.ToLower(v.GetString("RESULTS_BACKEND")),
		ResultsTable:      v.GetString("RESULTS_TABLE"),
		UploadURLTTL:      v.GetDuration("UPLOAD_URL_TTL"),
		MaxFileSizeBytes:  v.GetInt64("MAX_FILE_SIZE_BYTES"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
		ResultCacheSize:   v.GetInt("RESULT_CACHE_SIZE"),
		HTTPAddr:          v.GetString("HTTP_ADDR"),
		PublicBaseURL:     v.GetString("PUBLIC_BASE_URL"),
		SigningSecret:     v.GetString("SIGNING_SECRET"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		MetricsEnabled:    v.GetBool("METRICS_ENABLED"),
		PollInterval:      v.GetDuration("POLL_INTERVAL"),
		PollMaxAttempts:   v.GetInt("POLL_MAX_ATTEMPTS"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot produce a working pipeline.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreMemory:
	case StoreS3:
		if c.BucketName == "" {
			errs = append(errs, errors.New("BUCKET_NAME is required for the s3 store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.ResultsBackend {
	case ResultsObject:
	case ResultsDynamoDB:
		if c.ResultsTable == "" {
			errs = append(errs, errors.New("RESULTS_TABLE is required for the dynamodb result store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RESULTS_BACKEND %q", c.ResultsBackend))
	}
	if c.ResultsBackend == ResultsDynamoDB && c.StoreBackend == StoreMemory {
		errs = append(errs, errors.New("the dynamodb result store needs the s3 object store"))
	}
	if c.UploadURLTTL <= 0 || c.UploadURLTTL > model.MaxPresignedURLTTL {
		errs = append(errs, fmt.Errorf("UPLOAD_URL_TTL must be positive and at most %s", model.MaxPresignedURLTTL))
	}
	if c.MaxFileSizeBytes <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE_BYTES must be positive"))
	}
	if c.WorkerConcurrency <= 0 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be positive"))
	}
	if c.ResultCacheSize < 0 {
		errs = append(errs, errors.New("RESULT_CACHE_SIZE must not be negative"))
	}
	if c.PollInterval <= 0 || c.PollMaxAttempts <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL and POLL_MAX_ATTEMPTS must be positive"))
	}
	return errors.Join(errs...)
}
