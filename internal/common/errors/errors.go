// Package errors provides standardized error handling for prediction endpoints and trainers.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeMissingParameters  ErrorCode = "MISSING_PARAMETERS"
	ErrCodeUnknownEndpoint    ErrorCode = "UNKNOWN_ENDPOINT"
	ErrCodeEndpointDisabled   ErrorCode = "ENDPOINT_DISABLED"
	ErrCodeModelUnavailable   ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodePredictionFailed   ErrorCode = "PREDICTION_FAILED"
	ErrCodeFeatureAlignment   ErrorCode = "FEATURE_ALIGNMENT_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeInsufficientData         ErrorCode = "INSUFFICIENT_DATA"
	ErrCodeTrainingFailed           ErrorCode = "TRAINING_FAILED"
	ErrCodeArtifactWriteFailed      ErrorCode = "ARTIFACT_WRITE_FAILED"
	ErrCodeLabelRuleInvalid         ErrorCode = "LABEL_RULE_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// IsValidation reports whether the error belongs to the input-validation class,
// which dispatch answers with a non-zero exit code.
func (e *StandardError) IsValidation() bool {
	switch e.Code {
	case ErrCodeInvalidInput, ErrCodeMissingParameters, ErrCodeUnknownEndpoint, ErrCodeEndpointDisabled:
		return true
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidInputError is returned when stdin is not a JSON object.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingParametersError lists the fields that failed validation.
func NewMissingParametersError(message string, fields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingParameters,
		Message:   message,
		Metadata:  map[string]interface{}{"missing": fields},
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownEndpointError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownEndpoint,
		Message:   fmt.Sprintf("unknown endpoint %q", name),
		Timestamp: time.Now().UTC(),
	}
}

func NewEndpointDisabledError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEndpointDisabled,
		Message:   fmt.Sprintf("endpoint %q is disabled", name),
		Timestamp: time.Now().UTC(),
	}
}

// NewModelUnavailableError wraps an artifact load failure.
func NewModelUnavailableError(artifact string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Model not available",
		Details:   fmt.Sprintf("artifact: %s, error: %v", artifact, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPredictionFailedError wraps anything that went wrong after the model loaded.
func NewPredictionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictionFailed,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewFeatureAlignmentError(field string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFeatureAlignment,
		Message:   fmt.Sprintf("invalid %s: %v", field, err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInsufficientDataError is the training guard for small frames.
func NewInsufficientDataError(model string, have, need int) *StandardError {
	return &StandardError{
		Code:    ErrCodeInsufficientData,
		Message: "Insufficient data for training",
		Details: fmt.Sprintf("model: %s, rows: %d, required: %d", model, have, need),
		Metadata: map[string]interface{}{
			"model":    model,
			"rows":     have,
			"required": need,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewTrainingFailedError(model string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTrainingFailed,
		Message:   "Model training failed",
		Details:   fmt.Sprintf("model: %s, error: %v", model, err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewArtifactWriteFailedError(artifact string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactWriteFailed,
		Message:   "Failed to persist model artifact",
		Details:   fmt.Sprintf("artifact: %s, error: %v", artifact, err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewLabelRuleInvalidError(rule string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLabelRuleInvalid,
		Message:   "Label rule does not compile",
		Details:   fmt.Sprintf("rule: %s, error: %v", rule, err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Helpers
// ==========================

// AsStandard returns err as a *StandardError, wrapping unknown errors as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}
