// Package apigw adapts the upload and result services to API Gateway HTTP
// API (payload v2) Lambda handlers.
package apigw

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/sh3r4rd/file_analysis/internal/handler"
	mw "github.com/sh3r4rd/file_analysis/internal/middleware"
	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/observability"
)

// Handlers serves the upload and result routes as Lambda functions.
type Handlers struct {
	auth     handler.Authorizer
	resolver handler.Resolver
	logger   *observability.Logger
}

// New builds the Lambda handlers over the authorizer and resolver.
func New(auth handler.Authorizer, resolver handler.Resolver, logger *observability.Logger) *Handlers {
	return &Handlers{auth: auth, resolver: resolver, logger: observability.OrNop(logger).Component("apigw")}
}

// Upload serves POST /upload.
func (h *Handlers) Upload(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	ctx = observability.ContextWithRequestID(ctx, req.RequestContext.RequestID)

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return errorResponse(http.StatusBadRequest, model.ErrCodeValidation, "request body must be a JSON object")
		}
		body = decoded
	}

	var upload model.UploadRequest
	if err := json.Unmarshal(body, &upload); err != nil {
		return errorResponse(http.StatusBadRequest, model.ErrCodeValidation, "request body must be a JSON object")
	}

	resp, err := h.auth.Authorize(ctx, upload)
	if err != nil {
		h.logger.WithContext(ctx).Warn("upload request rejected", "error", err)
		return serviceError(err)
	}
	return jsonResponse(http.StatusOK, resp, nil)
}

// Result serves GET /result/{fileId}.
func (h *Handlers) Result(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	ctx = observability.ContextWithRequestID(ctx, req.RequestContext.RequestID)
	fileID := req.PathParameters["fileId"]

	rec, ready, err := h.resolver.Resolve(ctx, fileID)
	if err != nil {
		return serviceError(err)
	}
	if !ready {
		return jsonResponse(http.StatusAccepted, model.PendingResponse{FileID: fileID, Ready: false}, map[string]string{
			"Retry-After": strconv.Itoa(model.PollIntervalSeconds),
		})
	}
	return jsonResponse(http.StatusOK, rec, nil)
}

func serviceError(err error) (events.APIGatewayV2HTTPResponse, error) {
	status, body := handler.StatusFor(err)
	return jsonResponse(status, body, nil)
}

func errorResponse(status int, code, message string) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResponse(status, model.ErrorResponse{Error: code, Message: message}, nil)
}

// jsonResponse never returns an error for a request-level failure; a non-nil
// error would make API Gateway answer 502.
func jsonResponse(status int, v any, extra map[string]string) (events.APIGatewayV2HTTPResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	headers := mw.CORSHeaders()
	headers["Content-Type"] = "application/json"
	for k, v := range extra {
		headers[k] = v
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(data),
	}, nil
}
