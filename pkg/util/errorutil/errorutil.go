package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRecordNotFound is the sentinel storage backends wrap when a document is missing.
var ErrRecordNotFound = errors.New("record not found")

// Error codes shared by the service and the HTTP layer.
const (
	CodeValidation            = "VALIDATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL_ERROR"
	CodeConflictingAssignee   = "CONFLICTING_ASSIGNEE_INPUT"
	CodeInvalidAssignee       = "INVALID_ASSIGNEE"
	CodeInvalidLocation       = "INVALID_LOCATION"
	CodeInvalidAttachment     = "INVALID_ATTACHMENT"
	CodeDownloadFailed        = "DOWNLOAD_FAILED"
	CodeTicketAlreadyClosed   = "TICKET_ALREADY_CLOSED"
	CodeInvalidTransition     = "INVALID_STATUS_TRANSITION"
	CodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
		Err:        ErrRecordNotFound,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflictingAssigneeInput rejects payloads carrying both assignee ids and inline assignees.
func NewConflictingAssigneeInput() error {
	return NewDomainError(CodeConflictingAssignee,
		"provide either assigneeIds or assignees, not both",
		http.StatusBadRequest,
		map[string]any{"fields": []string{"assigneeIds", "assignees"}})
}

func NewInvalidAssignee(ids []string) error {
	return NewDomainError(CodeInvalidAssignee, "unknown assignee", http.StatusBadRequest,
		map[string]any{"ids": ids})
}

func NewInvalidReporter(id string) error {
	return NewDomainError(CodeValidation, "unknown reporter", http.StatusBadRequest,
		map[string]any{"field": "reporterId", "id": id})
}

func NewInvalidLocation(locationTypeID, locationID string) error {
	return NewDomainError(CodeInvalidLocation, "location could not be resolved", http.StatusBadRequest,
		map[string]any{"locationTypeId": locationTypeID, "locationId": locationID})
}

func NewInvalidAttachment(reason string) error {
	return NewDomainError(CodeInvalidAttachment, reason, http.StatusUnprocessableEntity, nil)
}

func NewDownloadFailed(filename string, err error) error {
	return &DomainError{
		Code:       CodeDownloadFailed,
		Message:    fmt.Sprintf("could not download %s from any known location", filename),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"filename": filename},
		Err:        err,
	}
}

func NewTicketAlreadyClosed(status string) error {
	return NewDomainError(CodeTicketAlreadyClosed, "ticket is already closed", http.StatusBadRequest,
		map[string]any{"status": status})
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition, "status transition not allowed", http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

// HasCode reports whether err wraps a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, ErrRecordNotFound) {
		return &DomainError{
			Code:       CodeNotFound,
			Message:    "resource not found",
			HTTPStatus: http.StatusNotFound,
			Details:    map[string]any{},
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
