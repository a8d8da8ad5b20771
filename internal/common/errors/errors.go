// Package errors - структурированные ошибки приложения с кодами и HTTP-статусами.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ============================================================
// Codes
// ============================================================

type ErrorCode string

const (
	CodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeFormatInvalid        ErrorCode = "FORMAT_INVALID"
	CodeReadOnlyField        ErrorCode = "READ_ONLY_FIELD"
	CodeConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED"
	CodeLastReading          ErrorCode = "LAST_READING"
	CodeLLMFailed            ErrorCode = "LLM_FAILED"
	CodeLLMUnavailable       ErrorCode = "LLM_UNAVAILABLE"
	CodeStorageFailed        ErrorCode = "STORAGE_FAILED"
	CodeInternal             ErrorCode = "INTERNAL"
)

// StandardError - ошибка с кодом, понятная клиенту API.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
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

// HTTPStatus возвращает HTTP-статус для кода ошибки.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case CodeValidationFailed, CodeFormatInvalid:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeReadOnlyField, CodeConfirmationRequired, CodeLastReading:
		return http.StatusConflict
	case CodeLLMFailed:
		return http.StatusBadGateway
	case CodeLLMUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WithMetadata добавляет поле метаданных.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ============================================================
// Constructors
// ============================================================

func New(code ErrorCode, message string) *StandardError {
	return &StandardError{Code: code, Message: message, Timestamp: time.Now().UTC()}
}

// Wrap создаёт ошибку с кодом поверх причины; Details - текст причины.
func Wrap(code ErrorCode, message string, cause error) *StandardError {
	e := New(code, message)
	if cause != nil {
		e.Details = cause.Error()
		e.cause = cause
	}
	e.Retryable = code == CodeStorageFailed || code == CodeLLMFailed
	return e
}

func NewValidationError(details string) *StandardError {
	e := New(CodeValidationFailed, "Validation failed")
	e.Details = details
	return e
}

func NewNotFoundError(what, id string) *StandardError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", what)).WithMetadata("id", id)
}

// ============================================================
// Inspection
// ============================================================

// As извлекает StandardError из цепочки.
func As(err error) (*StandardError, bool) {
	var se *StandardError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf возвращает код ошибки или CodeInternal.
func CodeOf(err error) ErrorCode {
	if se, ok := As(err); ok {
		return se.Code
	}
	return CodeInternal
}
