// Package client drives the pipeline from the submitter's side: request a
// capability, upload the bytes directly to storage, then poll for the result.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/observability"
)

// ErrPollTimeout is returned when no terminal record appeared within the
// configured number of attempts.
var ErrPollTimeout = errors.New("client: result not ready after maximum poll attempts")

var errNotReady = errors.New("client: result not ready")

// APIError is a non-success answer from the pipeline API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// TransportError is a failed direct upload to the storage endpoint.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upload rejected with status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the upload and result API on behalf of a submitter.
type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
	maxAttempts  int
	logger       *observability.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithPolling sets the fixed poll interval and the attempt budget.
func WithPolling(interval time.Duration, maxAttempts int) Option {
	return func(cl *Client) {
		if interval > 0 {
			cl.pollInterval = interval
		}
		if maxAttempts > 0 {
			cl.maxAttempts = maxAttempts
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *observability.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: 30 * time.Second},
		pollInterval: time.Duration(model.PollIntervalSeconds) * time.Second,
		maxAttempts:  60,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = observability.OrNop(c.logger).Component("client")
	return c
}

// RequestUpload asks the authorizer for an upload URL.
func (c *Client) RequestUpload(ctx context.Context, fileName, contentType string) (model.UploadResponse, error) {
	body, err := json.Marshal(model.UploadRequest{FileName: fileName, ContentType: contentType})
	if err != nil {
		return model.UploadResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(body))
	if err != nil {
		return model.UploadResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.UploadResponse{}, fmt.Errorf("request upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.UploadResponse{}, decodeAPIError(resp)
	}
	var out model.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.UploadResponse{}, fmt.Errorf("decode upload response: %w", err)
	}
	return out, nil
}

// UploadRaw PUTs data to a presigned URL. contentType must match the one the
// URL was issued for.
func (c *Client) UploadRaw(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &TransportError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return nil
}

// PollResult polls GET /result/{fileId} at a fixed interval until a terminal
// record arrives. A 202 keeps polling; any status other than 200 or 202 stops
// immediately.
func (c *Client) PollResult(ctx context.Context, fileID string) (model.ResultRecord, error) {
	var rec model.ResultRecord
	attempt := 0

	op := func() error {
		attempt++
		r, ready, err := c.fetchResult(ctx, fileID)
		if err != nil {
			return err
		}
		if !ready {
			c.logger.Debug("result not ready", "fileId", fileID, "attempt", attempt)
			return errNotReady
		}
		rec = r
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pollInterval), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		if errors.Is(err, errNotReady) {
			return model.ResultRecord{}, fmt.Errorf("%w: %s after %d attempts", ErrPollTimeout, fileID, attempt)
		}
		return model.ResultRecord{}, err
	}
	return rec, nil
}

func (c *Client) fetchResult(ctx context.Context, fileID string) (model.ResultRecord, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/result/"+url.PathEscape(fileID), nil)
	if err != nil {
		return model.ResultRecord{}, false, backoff.Permanent(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.ResultRecord{}, false, fmt.Errorf("poll %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return model.ResultRecord{}, false, nil
	case http.StatusOK:
		var rec model.ResultRecord
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return model.ResultRecord{}, false, backoff.Permanent(fmt.Errorf("decode result: %w", err))
		}
		return rec, true, nil
	default:
		return model.ResultRecord{}, false, backoff.Permanent(decodeAPIError(resp))
	}
}

// Submit runs the whole flow for one file and returns its terminal record.
// Polling never starts when the upload fails.
func (c *Client) Submit(ctx context.Context, fileName, contentType string, data []byte) (model.ResultRecord, error) {
	upload, err := c.RequestUpload(ctx, fileName, contentType)
	if err != nil {
		return model.ResultRecord{}, err
	}
	if err := c.UploadRaw(ctx, upload.UploadURL, contentType, data); err != nil {
		return model.ResultRecord{}, err
	}
	c.logger.Info("uploaded", "fileId", upload.FileID, "bytes", len(data))
	return c.PollResult(ctx, upload.FileID)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body model.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}
	return apiErr
}
