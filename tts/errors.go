package tts

import (
	"errors"
	"time"

	"github.com/dgnsrekt/narrate/tts/normalize"
)

// Common errors for the speech pipeline.
var (
	// Capability errors
	ErrUnsupportedCapability = errors.New("speech synthesis capability is not available")
	ErrEngineNotAvailable    = errors.New("TTS engine is not available")
	ErrVoiceNotFound         = errors.New("requested voice not found")

	// Unit errors
	ErrUnitSynthesis    = errors.New("unit synthesis failed")
	ErrSynthesisTimeout = errors.New("synthesis timed out")
	ErrCanceled         = errors.New("utterance was canceled")

	// Input errors
	ErrEmptyInput       = errors.New("nothing to speak")
	ErrMalformedNumeral = normalize.ErrMalformedNumeral

	// Audio errors
	ErrInvalidAudioFormat = errors.New("invalid audio format")
	ErrPlayerClosed       = errors.New("audio player is closed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UnsupportedNotice is shown once when no speech capability is available.
const UnsupportedNotice = "Speech synthesis is not supported by the configured engine."

// IsRecoverableError checks if an error is recoverable.
func IsRecoverableError(err error) bool {
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, ErrUnsupportedCapability),
		errors.Is(err, ErrEngineNotAvailable),
		errors.Is(err, ErrInvalidConfig):
		return false
	}

	// A failed unit is skipped and playback continues.
	return true
}

// ErrorSeverity represents the severity of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for informational messages.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for warnings that don't prevent operation.
	SeverityWarning
	// SeverityError is for errors that prevent normal operation.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the severity name.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// TTSError provides detailed error information.
type TTSError struct {
	Err       error          // The underlying error
	Component string         // Component that generated the error
	Action    string         // Action being performed when error occurred
	Severity  ErrorSeverity  // Severity of the error
	Timestamp int64          // Unix timestamp when error occurred
	Context   map[string]any // Additional context
}

// Error implements the error interface.
func (e *TTSError) Error() string {
	if e.Err == nil {
		return "unknown TTS error"
	}
	if e.Component == "" {
		return e.Err.Error()
	}
	return e.Component + ": " + e.Action + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *TTSError) Unwrap() error {
	return e.Err
}

// IsRecoverable checks if the error is recoverable.
func (e *TTSError) IsRecoverable() bool {
	return IsRecoverableError(e.Err)
}

// NewTTSError creates a new TTS error with context.
func NewTTSError(err error, component, action string) *TTSError {
	return &TTSError{
		Err:       err,
		Component: component,
		Action:    action,
		Severity:  SeverityError,
		Timestamp: time.Now().Unix(),
		Context:   make(map[string]any),
	}
}

// WithSeverity sets the error severity.
func (e *TTSError) WithSeverity(severity ErrorSeverity) *TTSError {
	e.Severity = severity
	return e
}

// WithContext adds context to the error.
func (e *TTSError) WithContext(key string, value any) *TTSError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
