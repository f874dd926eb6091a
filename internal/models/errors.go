package models

import "errors"

// Engine error taxonomy. Callers wrap these with fmt.Errorf("%w: ...") and
// match them with errors.Is.
var (
	// ErrModelNotLoaded is returned by every engine operation before the load phase completes.
	ErrModelNotLoaded = errors.New("models not loaded")
	// ErrCorruptArtifact marks a malformed load-time file (header, shape or length mismatch).
	ErrCorruptArtifact = errors.New("corrupt artifact")
	// ErrInference is returned when a scaler or model stage rejects or fails on its input.
	ErrInference = errors.New("inference error")
	// ErrDimensionMismatch means a query vector and a corpus vector differ in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNotFound is returned for house ids outside the corpus.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest is returned when a required request field is missing or out of range.
	ErrInvalidRequest = errors.New("invalid request")
)
