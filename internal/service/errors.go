package service

import (
	"errors"
	"fmt"
)

// ErrValidation is returned for malformed generation requests. Nothing has
// been persisted and no upstream call was made.
var ErrValidation = errors.New("dish name is required")

// maxDiagnosticBody bounds how much raw upstream payload is kept for
// diagnostics.
const maxDiagnosticBody = 500

// TextGenerationError means the text endpoint was unusable or returned
// content that could not be parsed. It is fatal to the whole generation
// request; nothing is persisted.
type TextGenerationError struct {
	StatusCode int
	Message    string
	RawBody    string // truncated upstream payload for diagnostics
}

func (e *TextGenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("text generation failed (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return "text generation failed: " + e.Message
}

// ImageGenerationError means the image endpoint exhausted its retry budget
// or failed with a non-retryable status. The orchestrator degrades instead
// of aborting when it sees this error.
type ImageGenerationError struct {
	Attempts   int
	LastStatus int
	LastErr    string // transport-level error text, if any
	RawBody    string // truncated last response body
}

func (e *ImageGenerationError) Error() string {
	if e.LastErr != "" {
		return fmt.Sprintf("image generation failed after %d attempt(s): %s", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("image generation failed after %d attempt(s): HTTP %d", e.Attempts, e.LastStatus)
}

// Diagnostic returns the short annotation appended to a degraded card's
// title so the failure stays visible in the gallery.
func (e *ImageGenerationError) Diagnostic() string {
	msg := e.LastErr
	if msg == "" {
		msg = upstreamErrorMessage(e.RawBody)
	}
	if msg == "" {
		msg = "API Timeout - Try Again"
	}
	return fmt.Sprintf("[Retry: %d - %s]", e.LastStatus, msg)
}

// PersistenceError means all AI calls succeeded but the record or its
// image objects could not be written. The upstream spend is lost.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// truncate bounds a payload string for diagnostics.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
