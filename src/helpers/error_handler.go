package helpers

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ScanError struct {
	Message string
	Cause   error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Distinct error categories for type assertions at component boundaries.
type ConfigurationError struct{ ScanError }
type FeedError struct{ ScanError }
type VaultError struct{ ScanError }
type ValidationError struct{ ScanError }

// -----------------------------------------------------------------------------

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{ScanError{Message: message}}
}

func NewFeedError(message string, cause error) *FeedError {
	return &FeedError{ScanError{Message: message, Cause: cause}}
}

func NewVaultError(message string, cause error) *VaultError {
	return &VaultError{ScanError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts the operation up to maxRetries times with
// exponential backoff. Used for pull requests only; stream reconnects follow
// each component's own fixed-delay policy.
func RetryWithBackoff(maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxRetries-1 {
			break
		}
		time.Sleep(baseDelay * (1 << attempt))
	}

	return lastErr
}
