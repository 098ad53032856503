package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Outcomes the core reports as data rather than faults
	ErrorCategoryDataUnavailable  ErrorCategory = "DATA_UNAVAILABLE"
	ErrorCategoryInvalidRiskInput ErrorCategory = "INVALID_RISK_INPUT"
	ErrorCategoryConfigGap        ErrorCategory = "CONFIG_GAP"

	// Errors that should stop a run
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryCredentials   ErrorCategory = "CREDENTIALS"
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"
	ErrorCategoryIO            ErrorCategory = "IO"

	// Collaborator errors that can be retried
	ErrorCategoryNetwork   ErrorCategory = "NETWORK"
	ErrorCategoryTimeout   ErrorCategory = "TIMEOUT"
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
	ErrorCategoryExchange  ErrorCategory = "EXCHANGE"
	ErrorCategoryTemporary ErrorCategory = "TEMPORARY"
)

// AppError represents a categorized error with context
type AppError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *AppError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether this error can be retried
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// IsFatal returns whether this error should abort the run
func (e *AppError) IsFatal() bool {
	switch e.Category {
	case ErrorCategoryConfiguration, ErrorCategoryCredentials, ErrorCategoryIO:
		return true
	}
	return false
}

// New creates a new categorized error
func New(category ErrorCategory, component, operation, message string) *AppError {
	return &AppError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Retryable: isRetryableCategory(category),
	}
}

// Wrap wraps an existing error with category context
func Wrap(err error, category ErrorCategory, component, operation string) *AppError {
	if err == nil {
		return nil
	}

	return &AppError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
		Retryable:  isRetryableCategory(category),
	}
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRetryable sets the retryable flag
func (e *AppError) WithRetryable(retryable bool) *AppError {
	e.Retryable = retryable
	return e
}

// CategoryOf returns the category of the first AppError in err's chain
func CategoryOf(err error) (ErrorCategory, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Category, true
	}
	return "", false
}

// Is reports whether err carries cat anywhere in its chain
func Is(err error, cat ErrorCategory) bool {
	c, ok := CategoryOf(err)
	return ok && c == cat
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryTemporary, ErrorCategoryRateLimit, ErrorCategoryExchange:
		return true
	default:
		return false
	}
}

// Categorize attempts to categorize a generic error
func Categorize(err error, component, operation string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "context deadline exceeded"):
		return Wrap(err, ErrorCategoryTimeout, component, operation)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") ||
		strings.Contains(msg, "dns") || strings.Contains(msg, "dial"):
		return Wrap(err, ErrorCategoryNetwork, component, operation)
	case strings.Contains(msg, "api key") || strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "unauthorized"):
		return Wrap(err, ErrorCategoryCredentials, component, operation)
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return Wrap(err, ErrorCategoryRateLimit, component, operation)
	case strings.Contains(msg, "no such file") || strings.Contains(msg, "permission denied"):
		return Wrap(err, ErrorCategoryIO, component, operation)
	case strings.Contains(msg, "invalid"):
		return Wrap(err, ErrorCategoryValidation, component, operation)
	}

	// Default to temporary error for unknown cases
	return Wrap(err, ErrorCategoryTemporary, component, operation)
}

// Common error constructors

func NewDataUnavailable(component, operation, message string) *AppError {
	return New(ErrorCategoryDataUnavailable, component, operation, message)
}

func NewInvalidRiskInput(component, operation, message string) *AppError {
	return New(ErrorCategoryInvalidRiskInput, component, operation, message)
}

func NewConfigGap(component, section string) *AppError {
	return New(ErrorCategoryConfigGap, component, "load", "missing section, using defaults").
		WithContext("section", section)
}

func NewConfigurationError(component, operation string, err error) *AppError {
	return Wrap(err, ErrorCategoryConfiguration, component, operation)
}

func NewNetworkError(component, operation string, err error) *AppError {
	return Wrap(err, ErrorCategoryNetwork, component, operation)
}

func NewExchangeError(component, operation string, err error) *AppError {
	return Wrap(err, ErrorCategoryExchange, component, operation)
}
