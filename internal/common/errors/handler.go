// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
)

// Exit codes returned by the predict binary.
const (
	ExitOK              = 0
	ExitValidation      = 1
	ExitUnknownEndpoint = 2
)

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler turns errors into the single JSON object a caller receives.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Payload renders err on top of the endpoint's fallback result. Fallback may be
// nil for validation errors, which never carry result fields.
func (h *ErrorHandler) Payload(err error, fallback interface{}) map[string]interface{} {
	stdErr := AsStandard(err)

	payload := map[string]interface{}{}
	if fallback != nil && !stdErr.IsValidation() {
		if fields, convErr := toMap(fallback); convErr == nil {
			payload = fields
		}
	}

	if stdErr.IsValidation() {
		payload["error"] = stdErr.Message
		if missing, ok := stdErr.Metadata["missing"]; ok {
			payload["missing"] = missing
		}
		if stdErr.Details != "" {
			payload["details"] = stdErr.Details
		}
	} else {
		payload["error"] = stdErr.Error()
	}

	h.log(stdErr)
	return payload
}

// ExitCode maps an error to the process exit status. Only validation problems
// fail the process; prediction problems still count as an answer.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	stdErr := AsStandard(err)
	switch {
	case stdErr.Code == ErrCodeUnknownEndpoint:
		return ExitUnknownEndpoint
	case stdErr.IsValidation():
		return ExitValidation
	default:
		return ExitOK
	}
}

func (h *ErrorHandler) log(stdErr *StandardError) {
	if h.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"message":   stdErr.Message,
		"details":   stdErr.Details,
	}
	if stdErr.IsValidation() {
		h.logger.Warn("request rejected", fields)
		return
	}
	h.logger.Error("prediction fell back", fields)
}

func toMap(v interface{}) (map[string]interface{}, error) {
	if m, ok := v.(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}
