package apigw

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/service"
)

const fileID = "2b1f0f0e-4c2a-4c8e-9a53-0d2f3b7d1a11"

type stubAuthorizer struct {
	err error
}

func (s stubAuthorizer) Authorize(_ context.Context, req model.UploadRequest) (model.UploadResponse, error) {
	if s.err != nil {
		return model.UploadResponse{}, s.err
	}
	return model.UploadResponse{FileID: fileID, UploadURL: "https://bucket/" + req.FileName, ExpiresIn: 300}, nil
}

type stubResolver struct {
	rec   model.ResultRecord
	ready bool
	err   error
}

func (s stubResolver) Resolve(context.Context, string) (model.ResultRecord, bool, error) {
	return s.rec, s.ready, s.err
}

func TestUpload(t *testing.T) {
	h := New(stubAuthorizer{}, nil, nil)
	body := `{"fileName":"a.csv","contentType":"text/csv"}`

	for name, req := range map[string]events.APIGatewayV2HTTPRequest{
		"plain":  {Body: body},
		"base64": {Body: base64.StdEncoding.EncodeToString([]byte(body)), IsBase64Encoded: true},
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := h.Upload(context.Background(), req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

			var got model.UploadResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
			assert.Equal(t, fileID, got.FileID)
			assert.Equal(t, "https://bucket/a.csv", got.UploadURL)
		})
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		auth   stubAuthorizer
		body   string
		status int
		code   string
	}{
		{"bad json", stubAuthorizer{}, "{", http.StatusBadRequest, model.ErrCodeValidation},
		{"validation", stubAuthorizer{err: &model.ValidationError{Field: "contentType", Reason: "is required"}}, "{}", http.StatusBadRequest, model.ErrCodeValidation},
		{"authorization", stubAuthorizer{err: &service.AuthorizationFailedError{Err: errors.New("expired token")}}, "{}", http.StatusInternalServerError, model.ErrCodeAuthorizationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := New(tt.auth, nil, nil).Upload(context.Background(), events.APIGatewayV2HTTPRequest{Body: tt.body})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body model.ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, tt.code, body.Error)
		})
	}
}

func TestResult(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{PathParameters: map[string]string{"fileId": fileID}}

	resp, err := New(nil, stubResolver{}, nil).Result(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "5", resp.Headers["Retry-After"])
	assert.JSONEq(t, `{"fileId":"`+fileID+`","ready":false}`, resp.Body)

	done := model.NewJSONLResult(fileID, 4)
	resp, err = New(nil, stubResolver{rec: done, ready: true}, nil).Result(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"fileId":"`+fileID+`","status":"processed","fileType":"JSONL","lineCount":4}`, resp.Body)

	resp, err = New(nil, stubResolver{err: errors.New("throttled")}, nil).Result(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
