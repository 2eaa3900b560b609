package errors

import (
	stderrors "errors"
	"fmt"

	"gprspc/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code of a wrapped
// AppError is kept; a domain error gets its taxonomy code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    CodeOf(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr == err {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeDataSource      = "DATA_SOURCE_ERROR"

	// Calculation taxonomy
	CodeUnsupportedConfidence  = "UNSUPPORTED_CONFIDENCE_LEVEL"
	CodeUnknownColumn          = "UNKNOWN_COLUMN"
	CodeInsufficientData       = "INSUFFICIENT_DATA"
	CodeMissingGammaTarget     = "MISSING_GAMMA_TARGET"
	CodeUnknownMethod          = "UNKNOWN_METHOD"
	CodeDegenerateDistribution = "DEGENERATE_DISTRIBUTION"
)

var sentinelCodes = []struct {
	err  error
	code string
}{
	{core.ErrUnsupportedConfidenceLevel, CodeUnsupportedConfidence},
	{core.ErrUnknownColumn, CodeUnknownColumn},
	{core.ErrInsufficientData, CodeInsufficientData},
	{core.ErrMissingGammaTarget, CodeMissingGammaTarget},
	{core.ErrUnknownMethod, CodeUnknownMethod},
	{core.ErrDegenerateDistribution, CodeDegenerateDistribution},
	{core.ErrNotFound, CodeNotFound},
}

// CodeOf classifies any error: an AppError keeps its code, a domain
// sentinel anywhere in the chain maps to its taxonomy code, anything else
// is internal.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code != CodeInternalError {
		return appErr.Code
	}
	for _, sc := range sentinelCodes {
		if stderrors.Is(err, sc.err) {
			return sc.code
		}
	}
	return CodeInternalError
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: message,
		Cause:   cause,
	}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func DataSourceError(source string, cause error) *AppError {
	return &AppError{
		Code:    CodeDataSource,
		Message: fmt.Sprintf("cannot load %s", source),
		Cause:   cause,
	}
}
