// Package errors provides structured error types for the analysis pipeline.
//
// Every failure surfaced by a pipeline step is wrapped into an
// AnalysisError carrying a stable error code and the step that produced
// it. The run aborts on the first error; there is no recovery path.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a class of analysis failure.
type Code string

const (
	// CodeInputMissing indicates the input dataset file does not exist.
	CodeInputMissing Code = "INPUT_MISSING"
	// CodeInputMalformed indicates the dataset file could not be parsed.
	CodeInputMalformed Code = "INPUT_MALFORMED"
	// CodeMissingValue indicates a cell was empty or marked NA.
	CodeMissingValue Code = "MISSING_VALUE"
	// CodeDegenerateMatrix indicates a correlation or covariance matrix
	// that is singular or otherwise unusable for decomposition.
	CodeDegenerateMatrix Code = "DEGENERATE_MATRIX"
	// CodeNoConvergence indicates an iterative fit exhausted its
	// iteration budget without meeting the tolerance.
	CodeNoConvergence Code = "NO_CONVERGENCE"
	// CodeInvalidConfig indicates the configuration failed validation.
	CodeInvalidConfig Code = "INVALID_CONFIG"
	// CodeReportWrite indicates a report artifact could not be written.
	CodeReportWrite Code = "REPORT_WRITE"
)

// AnalysisError is the structured error type used across pipeline steps.
type AnalysisError struct {
	Code    Code
	Step    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Step != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s [%s]: %s: %v", e.Step, e.Code, e.Message, e.Err)
		}
		return fmt.Sprintf("%s [%s]: %s", e.Step, e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s]: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AnalysisError with the same code.
// This lets callers match on sentinel codes through wrapping chains.
func (e *AnalysisError) Is(target error) bool {
	var ae *AnalysisError
	if errors.As(target, &ae) {
		return e.Code == ae.Code
	}
	return false
}

// New creates an AnalysisError with the given code and message.
func New(code Code, step, message string) *AnalysisError {
	return &AnalysisError{Code: code, Step: step, Message: message}
}

// Wrap creates an AnalysisError wrapping an underlying cause.
func Wrap(code Code, step, message string, err error) *AnalysisError {
	return &AnalysisError{Code: code, Step: step, Message: message, Err: err}
}

// CodeOf extracts the analysis error code from err, walking the
// wrapping chain. Returns "" when err carries no AnalysisError.
func CodeOf(err error) Code {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
