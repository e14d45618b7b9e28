package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error kinds carried in AppError.Code and in the "code" field of error responses.
const (
	CodeNotFound              = "NOT_FOUND"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeSelfActionDenied      = "SELF_ACTION_DENIED"
	CodeForbidden             = "FORBIDDEN"
	CodePartialCascadeFailure = "PARTIAL_CASCADE_FAILURE"
	CodeInternal              = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	Details     string   `json:"details,omitempty"`
	FailedSteps []string `json:"failedSteps,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
	// FailedSteps lists the cascade steps that did not complete.
	FailedSteps []string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

func NewSelfActionError(message string) *AppError {
	return &AppError{
		Code:    CodeSelfActionDenied,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewPartialCascadeError reports a cascade whose primary record was handled but
// where one or more dependent steps failed.
func NewPartialCascadeError(resource string, id interface{}, steps []string, err error) *AppError {
	return &AppError{
		Code:        CodePartialCascadeFailure,
		Message:     fmt.Sprintf("%s %v deleted with %d failed cleanup step(s)", resource, id, len(steps)),
		Err:         err,
		FailedSteps: steps,
	}
}

// NewCascadeAbortedError reports a cascade whose primary record could not be
// deleted. Dependent steps that already ran are listed with the failures.
func NewCascadeAbortedError(resource string, id interface{}, steps []string, err error) *AppError {
	return &AppError{
		Code:        CodeInternal,
		Message:     fmt.Sprintf("%s %v was not deleted", resource, id),
		Err:         err,
		FailedSteps: steps,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:       appErr.Message,
			Code:        appErr.Code,
			FailedSteps: appErr.FailedSteps,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
