package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNavigation represents a browser session that never reached a stable rendered state
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeExtraction represents a rendered page that did not match the expected structure
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypePersistence represents store connection or write failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// HarvestError represents a harvester-specific error
type HarvestError struct {
	Type    ErrorType
	Target  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *HarvestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Target, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Target, e.Message)
}

// Unwrap returns the underlying error
func (e *HarvestError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether the pipeline may skip the failed item and keep going.
func (e *HarvestError) IsRecoverable() bool {
	switch e.Type {
	case ErrorTypeNavigation, ErrorTypeExtraction:
		return true
	default:
		return false
	}
}

// New creates a new HarvestError
func New(errType ErrorType, target, message string, err error) *HarvestError {
	return &HarvestError{
		Type:    errType,
		Target:  target,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNavigation creates a new navigation error
func NewNavigation(target, message string, err error) *HarvestError {
	return New(ErrorTypeNavigation, target, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(target, message string, err error) *HarvestError {
	return New(ErrorTypeExtraction, target, message, err)
}

// NewPersistence creates a new persistence error
func NewPersistence(target, message string, err error) *HarvestError {
	return New(ErrorTypePersistence, target, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *HarvestError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether any error in err's chain is a HarvestError of the given type.
func IsType(err error, errType ErrorType) bool {
	var he *HarvestError
	if !stderrors.As(err, &he) {
		return false
	}
	return he.Type == errType
}

// IsRecoverable reports whether err carries a recoverable HarvestError.
func IsRecoverable(err error) bool {
	var he *HarvestError
	if !stderrors.As(err, &he) {
		return false
	}
	return he.IsRecoverable()
}
