package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Every code is terminal for the invocation.
const (
	CodeConfiguration  = "CONFIGURATION_ERROR"
	CodePayloadMissing = "PAYLOAD_MISSING"
	CodePayloadParse   = "PAYLOAD_PARSE_ERROR"
	CodePayloadInvalid = "PAYLOAD_INVALID"
	CodeCondition      = "CONDITION_ERROR"
	CodeRemoteUpdate   = "REMOTE_UPDATE_ERROR"
)

type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	cause   error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func ConfigurationError(err error) *AppError {
	return &AppError{
		Code:    CodeConfiguration,
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		cause:   err,
	}
}

func PayloadMissingError() *AppError {
	return &AppError{
		Code:    CodePayloadMissing,
		Status:  http.StatusInternalServerError,
		Message: "Trigger payload is empty. The function was probably not invoked by a document create event.",
	}
}

func PayloadParseError(err error) *AppError {
	return &AppError{
		Code:    CodePayloadParse,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("Trigger payload is not valid JSON: %s", err.Error()),
		cause:   err,
	}
}

func PayloadInvalidError(detail string) *AppError {
	msg := "Payload is invalid or does not contain $id and $permissions."
	if detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, detail)
	}
	return &AppError{
		Code:    CodePayloadInvalid,
		Status:  http.StatusInternalServerError,
		Message: msg,
	}
}

func ConditionError(err error) *AppError {
	return &AppError{
		Code:    CodeCondition,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("Trigger condition failed: %s", err.Error()),
		cause:   err,
	}
}

// RemoteUpdateError keeps the remote message verbatim.
func RemoteUpdateError(err error) *AppError {
	return &AppError{
		Code:    CodeRemoteUpdate,
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		cause:   err,
	}
}

// asAppError converts any error into an *AppError, treating unknown errors
// as internal failures.
func asAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		cause:   err,
	}
}
