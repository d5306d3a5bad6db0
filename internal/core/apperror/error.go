// Package apperror provides structured error handling for the platform.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by concern
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400/422), raised before any network access
	CodeValidation      = "VALIDATION_ERROR"
	CodeMissingField    = "MISSING_REQUIRED_FIELD"
	CodeInvalidTaxID    = "INVALID_TAX_ID"
	CodeInvalidDocument = "INVALID_DOCUMENT_NUMBER"
	CodeInvalidCurrency = "INVALID_CURRENCY"

	// Submission errors, raised during or after a provider call
	CodeProviderTransport      = "PROVIDER_TRANSPORT"
	CodeProviderAuth           = "PROVIDER_AUTH_ERROR"
	CodeProviderInvalidPayload = "PROVIDER_INVALID_PAYLOAD"
	CodeProviderInternal       = "PROVIDER_INTERNAL_ERROR"
	CodeProviderRejected       = "PROVIDER_REJECTED"
	CodeProviderUnavailable    = "PROVIDER_UNAVAILABLE"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field paths, provider responses, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions: validation ---

// NewValidation creates a generic validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMissingField creates an error for an absent or blank required field.
// fieldPath names the exact field, e.g. "issuer.legalName".
func NewMissingField(fieldPath string) *AppError {
	return &AppError{
		Code:       CodeMissingField,
		Message:    fmt.Sprintf("required field %s is missing or blank", fieldPath),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"field": fieldPath},
	}
}

// NewInvalidTaxID creates an error for a tax id failing the checksum.
func NewInvalidTaxID(taxID string) *AppError {
	return &AppError{
		Code:       CodeInvalidTaxID,
		Message:    "tax id failed checksum validation",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"taxId": taxID},
	}
}

// NewInvalidDocumentNumber creates an error for an identity document
// that is invalid for its declared type.
func NewInvalidDocumentNumber(docType, number string) *AppError {
	return &AppError{
		Code:       CodeInvalidDocument,
		Message:    "identity document number is invalid for its type",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"documentType": docType, "number": number},
	}
}

// NewInvalidCurrency creates an error for a currency code outside the allowed set.
func NewInvalidCurrency(code string) *AppError {
	return &AppError{
		Code:       CodeInvalidCurrency,
		Message:    fmt.Sprintf("currency code %q is not supported", code),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"currency": code},
	}
}

// --- Factory functions: submission ---

// NewProviderTransport creates a transport-level submission error
// (connection refused, timeout, unexpected HTTP status).
func NewProviderTransport(provider, message string) *AppError {
	return &AppError{
		Code:       CodeProviderTransport,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"provider": provider},
	}
}

// NewProviderAuth creates an authentication error against a provider (their 401).
func NewProviderAuth(provider string) *AppError {
	return &AppError{
		Code:       CodeProviderAuth,
		Message:    "provider authentication failed, check credentials/token",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"provider": provider},
	}
}

// NewProviderInvalidPayload creates an error for a payload the provider
// could not parse (their 400).
func NewProviderInvalidPayload(provider string) *AppError {
	return &AppError{
		Code:       CodeProviderInvalidPayload,
		Message:    "provider could not parse the submitted payload",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"provider": provider},
	}
}

// NewProviderInternal creates an error for a provider-side failure (their 500).
func NewProviderInternal(provider string) *AppError {
	return &AppError{
		Code:       CodeProviderInternal,
		Message:    "provider reported an internal error",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"provider": provider},
	}
}

// NewProviderRejected creates a business rejection carrying the provider's message.
func NewProviderRejected(provider, message string) *AppError {
	return &AppError{
		Code:       CodeProviderRejected,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"provider": provider},
	}
}

// NewProviderUnavailable creates an error for a fallback provider that
// could not be reached or answered non-2xx.
func NewProviderUnavailable(provider, message string) *AppError {
	return &AppError{
		Code:       CodeProviderUnavailable,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"provider": provider},
	}
}

// --- Factory functions: general ---

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// HasCode checks whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsValidation reports whether err belongs to the validation error family.
// Validation errors are raised before any network access and are never retried.
func IsValidation(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeValidation, CodeMissingField, CodeInvalidTaxID, CodeInvalidDocument, CodeInvalidCurrency:
		return true
	}
	return false
}

// IsSubmission reports whether err belongs to the submission error family.
// The caller may consider a higher-level retry for transport sub-kinds.
func IsSubmission(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeProviderTransport, CodeProviderAuth, CodeProviderInvalidPayload,
		CodeProviderInternal, CodeProviderRejected, CodeProviderUnavailable:
		return true
	}
	return false
}
