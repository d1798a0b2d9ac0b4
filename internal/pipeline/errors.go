package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

const (
	backendErrorFormat           = "backend %s: %v"
	parseErrorFormat             = "parse %s: %v"
	generationErrorFormat        = "generation failed: %s"
	oracleUnavailableErrorFormat = "oracle %s unavailable: %s not found"
)

// BackendError wraps transport, auth and rate-limit failures of the
// completion capability.
type BackendError struct {
	Operation string
	Err       error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf(backendErrorFormat, e.Operation, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// ParseError reports completion text that could not be interpreted. Stages
// recover from it locally.
type ParseError struct {
	Subject string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf(parseErrorFormat, e.Subject, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GenerationError means no code could be extracted. It ends the run as failed.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf(generationErrorFormat, e.Reason)
}

// OracleUnavailableError names the tools an oracle needed but could not find.
type OracleUnavailableError struct {
	Oracle string
	Tools  []string
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf(oracleUnavailableErrorFormat, e.Oracle, strings.Join(e.Tools, ", "))
}

// IsBackendError reports whether err carries a BackendError.
func IsBackendError(err error) bool {
	var backendErr *BackendError
	return errors.As(err, &backendErr)
}

// IsGenerationError reports whether err carries a GenerationError.
func IsGenerationError(err error) bool {
	var generationErr *GenerationError
	return errors.As(err, &generationErr)
}
