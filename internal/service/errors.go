package service

import (
	"errors"
	"fmt"
)

// ErrNotASubmission is returned by AnalysisWorker.Process for keys that do
// not belong to a submission. There is no fileId to record a result under.
var ErrNotASubmission = errors.New("object is not a submission upload")

// AuthorizationFailedError means the object store could not mint a write
// capability. The client may retry; each attempt gets a fresh fileId.
type AuthorizationFailedError struct {
	Err error
}

func (e *AuthorizationFailedError) Error() string {
	return fmt.Sprintf("authorization failed: %v", e.Err)
}

func (e *AuthorizationFailedError) Unwrap() error {
	return e.Err
}
