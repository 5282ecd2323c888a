// Package errors provides structured error handling for catalog.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Store and filesystem IO errors
//   - 4XX: User input errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates store and filesystem errors.
	CategoryIO Category = "IO"
	// CategoryInput indicates invalid user input (filters, paths, patterns).
	CategoryInput Category = "INPUT"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigWrite    = "ERR_103_CONFIG_WRITE"

	// Store and filesystem errors (200-299)
	ErrCodeStoreIO          = "ERR_201_STORE_IO"
	ErrCodePermission       = "ERR_202_PERMISSION_DENIED"
	ErrCodeStoreVersion     = "ERR_203_STORE_VERSION"
	ErrCodeStoreCorrupt     = "ERR_204_STORE_CORRUPT"
	ErrCodeStoreNotFound    = "ERR_205_STORE_NOT_FOUND"
	ErrCodeRootMissing      = "ERR_206_ROOT_MISSING"
	ErrCodeFilesystemAccess = "ERR_207_FS_ACCESS"

	// User input errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidFilter  = "ERR_402_INVALID_FILTER"
	ErrCodeInvalidPath    = "ERR_403_INVALID_PATH"
	ErrCodeInvalidPattern = "ERR_404_INVALID_PATTERN"
	ErrCodeUnknownRoot    = "ERR_405_UNKNOWN_ROOT"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeIndexFailed = "ERR_502_INDEX_FAILED"
	ErrCodeExport      = "ERR_503_EXPORT_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryInput
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreIO, ErrCodeStoreVersion, ErrCodeStoreCorrupt:
		return SeverityFatal
	case ErrCodePermission, ErrCodeRootMissing, ErrCodeFilesystemAccess:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether re-running the same operation can succeed
// without user intervention.
func isRetryableCode(code string) bool {
	return code == ErrCodeFilesystemAccess
}
