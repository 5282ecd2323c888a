package errors

import (
	stderrors "errors"
	"fmt"
)

// CatalogError is the structured error type for catalog.
// It carries enough context for logging, CLI presentation and MCP responses.
type CatalogError struct {
	// Code is the unique error code (e.g., "ERR_203_STORE_VERSION").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Input, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string

	// byCategory makes a sentinel match any error of its Category.
	byCategory bool
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Is matches by code so sentinels work with errors.Is. Category sentinels
// such as ErrUserInput match every code in their category.
func (e *CatalogError) Is(target error) bool {
	t, ok := target.(*CatalogError)
	if !ok {
		return false
	}
	if t.byCategory {
		return e.Category == t.Category
	}
	return e.Code == t.Code
}

// WithDetail adds a key-value detail to the error.
func (e *CatalogError) WithDetail(key, value string) *CatalogError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *CatalogError) WithSuggestion(suggestion string) *CatalogError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CatalogError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *CatalogError {
	return &CatalogError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a CatalogError from an existing error.
func Wrap(code string, err error) *CatalogError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is comparisons.
var (
	ErrUserInput    = &CatalogError{Code: ErrCodeInvalidInput, Category: CategoryInput, byCategory: true}
	ErrPermission   = &CatalogError{Code: ErrCodePermission}
	ErrStoreIO      = &CatalogError{Code: ErrCodeStoreIO}
	ErrStoreVersion = &CatalogError{Code: ErrCodeStoreVersion}
	ErrStoreCorrupt = &CatalogError{Code: ErrCodeStoreCorrupt}
	ErrStoreMissing = &CatalogError{Code: ErrCodeStoreNotFound}
)

// UserInputError reports invalid filters, paths or patterns. It never
// touches the store.
func UserInputError(message string, cause error) *CatalogError {
	return New(ErrCodeInvalidInput, message, cause)
}

// PermissionError reports a stat or read denial encountered during a walk.
func PermissionError(path string, cause error) *CatalogError {
	return New(ErrCodePermission, "permission denied: "+path, cause).WithDetail("path", path)
}

// StoreIOError reports a snapshot read or write failure.
func StoreIOError(message string, cause error) *CatalogError {
	return New(ErrCodeStoreIO, message, cause)
}

// StoreVersionError reports a snapshot written by an incompatible version.
func StoreVersionError(got, want uint32) *CatalogError {
	return New(ErrCodeStoreVersion,
		fmt.Sprintf("snapshot version %d is not supported (want %d)", got, want), nil).
		WithDetail("got", fmt.Sprint(got)).
		WithDetail("want", fmt.Sprint(want)).
		WithSuggestion("Rebuild the catalog with 'catalog index --full' after moving the old snapshot aside")
}

// StoreCorruptError reports a snapshot that could not be decoded.
func StoreCorruptError(message string, cause error) *CatalogError {
	return New(ErrCodeStoreCorrupt, message, cause).
		WithSuggestion("Move the snapshot aside and run 'catalog index' to rebuild it")
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *CatalogError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *CatalogError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity anywhere in its chain.
func IsFatal(err error) bool {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Severity == SeverityFatal
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// GetCode extracts the error code from a CatalogError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// As finds the first CatalogError in err's chain.
func As(err error) (*CatalogError, bool) {
	var ce *CatalogError
	ok := stderrors.As(err, &ce)
	return ce, ok
}
