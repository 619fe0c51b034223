package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Retrieval pipeline failures. Each kind maps to exactly one HTTP status.
var (
	ErrBadIdentifier        = NewError("BAD_IDENTIFIER", "Invalid identifier format", http.StatusBadRequest)
	ErrCredentialMissing    = NewError("CREDENTIAL_MISSING", "Discord OAuth token not configured", http.StatusUnauthorized)
	ErrCredentialRejected   = NewError("CREDENTIAL_REJECTED", "Discord authentication failed (invalid or missing token)", http.StatusUnauthorized)
	ErrForbidden            = NewError("FORBIDDEN", "Access denied to Discord message", http.StatusForbidden)
	ErrNotFound             = NewError("NOT_FOUND", "Discord message not found", http.StatusNotFound)
	ErrNoMatchingAttachment = NewError("NO_MATCHING_ATTACHMENT", "Message has no PCAP attachments (.pcap or .pcapng)", http.StatusBadRequest)
	ErrPayloadTooLarge      = NewError("PAYLOAD_TOO_LARGE", "Attachment exceeds maximum size limit (100 MB)", http.StatusBadRequest)
	ErrUpstreamUnreachable  = NewError("UPSTREAM_UNREACHABLE", "Failed to connect to Discord API", http.StatusInternalServerError)
	ErrUpstreamBadResponse  = NewError("UPSTREAM_BAD_RESPONSE", "Failed to parse Discord response", http.StatusInternalServerError)
	ErrUpstreamOther        = NewError("UPSTREAM_ERROR", "Discord API error", http.StatusInternalServerError)
	ErrDownloadFailed       = NewError("DOWNLOAD_FAILED", "Failed to download attachment", http.StatusInternalServerError)
)

// ErrInternal covers panics and errors from outside the taxonomy.
var ErrInternal = NewError("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)

type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code so that copies made by the With* helpers still satisfy
// errors.Is against the package-level kinds.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithMessage(message string) *Error {
	err := *e
	err.Message = message
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	err.Details = details
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

// Kind returns the taxonomy code of err, or ErrInternal's code for foreign errors.
func Kind(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal.Code
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// ToResponse maps any error to the status and message exposed to clients.
// Causes are never part of the message.
func ToResponse(err error) (int, string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	return ErrInternal.Status, ErrInternal.Message
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func ToErrorResponse(err error) ErrorResponse {
	_, message := ToResponse(err)
	return ErrorResponse{Error: message}
}
