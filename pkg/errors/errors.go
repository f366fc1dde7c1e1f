// Package errors provides custom error types for the xtsmerge system.
// These errors separate the conditions a caller can recover from (a malformed
// run, a suite with no valid run) from the ones that signal a broken
// reconciliation and must abort the whole bundle.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// As and Is re-export the standard library helpers so callers need a
// single errors import.
var (
	As = errors.As
	Is = errors.Is
)

// Common sentinel errors for the xtsmerge system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedInput indicates a parsed run failed self-verification.
	// The run is dropped; the rest of the batch continues.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNoValidRun indicates that a suite has no participating run.
	// The suite is skipped; the rest of the batch continues.
	ErrNoValidRun = errors.New("no valid run")

	// ErrInvariantViolation indicates the reconciliation logic produced
	// inconsistent bookkeeping. It aborts the whole batch.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrInvalidArgument indicates a programmer-facing contract was broken
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// MalformedInputError reports a run, module or case that failed
// self-verification while being built from parsed artifacts.
type MalformedInputError struct {
	Source  string // report location, when known
	Module  string
	Case    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *MalformedInputError) Error() string {
	var where []string
	if e.Source != "" {
		where = append(where, "source "+e.Source)
	}
	if e.Module != "" {
		where = append(where, "module "+e.Module)
	}
	if e.Case != "" {
		where = append(where, "case "+e.Case)
	}
	if len(where) > 0 {
		return fmt.Sprintf("malformed input (%s): %s", strings.Join(where, ", "), e.Message)
	}
	return fmt.Sprintf("malformed input: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// NewMalformedInputError creates a new MalformedInputError
func NewMalformedInputError(module, caseName, message string) *MalformedInputError {
	return &MalformedInputError{Module: module, Case: caseName, Message: message}
}

// NoValidRunError reports a suite for which no run could take part in
// reconciliation.
type NoValidRunError struct {
	Suite string
}

// Error implements the error interface
func (e *NoValidRunError) Error() string {
	if e.Suite != "" {
		return fmt.Sprintf("no valid run for suite %s", e.Suite)
	}
	return "no valid run"
}

// Is implements errors.Is support
func (e *NoValidRunError) Is(target error) bool {
	return target == ErrNoValidRun
}

// NewNoValidRunError creates a new NoValidRunError
func NewNoValidRunError(suite string) *NoValidRunError {
	return &NoValidRunError{Suite: suite}
}

// InvariantError reports a broken bookkeeping invariant.
type InvariantError struct {
	Invariant string // short name, e.g. "case tally total"
	Message   string
	Err       error
}

// Error implements the error interface
func (e *InvariantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invariant %q violated: %s: %v", e.Invariant, e.Message, e.Err)
	}
	return fmt.Sprintf("invariant %q violated: %s", e.Invariant, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// NewInvariantError creates a new InvariantError
func NewInvariantError(invariant, format string, args ...any) *InvariantError {
	return &InvariantError{Invariant: invariant, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgumentError reports a malformed call into a programmer-facing API.
type InvalidArgumentError struct {
	Operation string
	Message   string
}

// Error implements the error interface
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument to %s: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewInvalidArgumentError creates a new InvalidArgumentError
func NewInvalidArgumentError(operation, format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{Operation: operation, Message: fmt.Sprintf(format, args...)}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing report artifacts
type ParseError struct {
	Format  string // "xml", "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support. An artifact that cannot be parsed is
// malformed input for the run it belongs to.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedInput
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "extract", "walk"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMalformedInput checks if an error means a run must be dropped
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsNoValidRun checks if an error means a suite must be skipped
func IsNoValidRun(err error) bool {
	return errors.Is(err, ErrNoValidRun)
}

// IsInvariantViolation checks if an error signals broken reconciliation
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsInvalidArgument checks if an error is a contract violation by the caller
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapInvariant wraps an error as an InvariantError
func WrapInvariant(invariant string, err error) error {
	if err == nil {
		return nil
	}
	return &InvariantError{Invariant: invariant, Message: "dependent lookup failed", Err: err}
}
