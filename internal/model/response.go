package model

// UploadResponse is returned on a successful POST /upload request.
type UploadResponse struct {
	FileID    string `json:"fileId"`
	UploadURL string `json:"uploadURL"`
	ExpiresIn int    `json:"expiresIn"`
}

// PendingResponse is the body of a 202 from GET /result/{fileId}. The status
// code, not this body, is what tells a poller to keep waiting.
type PendingResponse struct {
	FileID string `json:"fileId"`
	Ready  bool   `json:"ready"`
}

// ErrorResponse is returned for any failed API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error codes carried in ErrorResponse.Error.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeAuthorizationFailed = "AUTHORIZATION_FAILED"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
)
