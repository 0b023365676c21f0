package domain

import (
	"errors"
	"fmt"
	"time"
)

// AssessmentError is the standardized error envelope returned by the HTTP and MCP surfaces.
type AssessmentError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *AssessmentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput      = "INVALID_INPUT"
	ErrValidation        = "VALIDATION_ERROR"
	ErrInsufficientInput = "INSUFFICIENT_INPUT"
	ErrClassifier        = "CLASSIFIER_ERROR"
	ErrExtraction        = "EXTRACTION_ERROR"
	ErrInternalServer    = "INTERNAL_SERVER_ERROR"
)

// ErrNoEvidence is returned when every input is empty or default.
var ErrNoEvidence = errors.New("insufficient input: no symptoms, history, labs, document or free text provided")

// ErrEnsembleUnavailable marks an aggregation in which no model succeeded.
var ErrEnsembleUnavailable = errors.New("ensemble unavailable: every classifier failed")

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ClassifierError is one model's failed inference. It never aborts an assessment.
type ClassifierError struct {
	ModelID string
	Cause   error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier %s failed: %v", e.ModelID, e.Cause)
}

func (e *ClassifierError) Unwrap() error {
	return e.Cause
}

// ExtractionError is a failed document extraction. Document evidence is additive, so
// the assessment proceeds without it.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document extraction failed: %s: %v", e.Message, e.Cause)
	}
	return "document extraction failed: " + e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewAssessmentError creates a new AssessmentError with timestamp
func NewAssessmentError(code, message, details, requestID string) *AssessmentError {
	return &AssessmentError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ErrorCode maps an error returned by the engine to its envelope code.
func ErrorCode(err error) string {
	var ve *ValidationError
	var ce *ClassifierError
	var ee *ExtractionError
	var ae *AssessmentError
	switch {
	case errors.As(err, &ae):
		return ae.Code
	case errors.Is(err, ErrNoEvidence):
		return ErrInsufficientInput
	case errors.As(err, &ve):
		return ErrValidation
	case errors.As(err, &ce):
		return ErrClassifier
	case errors.As(err, &ee):
		return ErrExtraction
	default:
		return ErrInternalServer
	}
}
