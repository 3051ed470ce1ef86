// Package errors provides error handling for elkhorn.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := readSource(); err != nil {
//	    return errors.Wrap(err, "failed to read source")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrSourceRead) {
//	    // skip entity, continue run
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf

	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Pipeline error taxonomy. Record-level and entity-level failures are
// recovered locally; only ErrFatalConfig and ErrRunLocked abort a run.
// Use these with errors.Is() and wrap them with errors.Wrap() to add
// context while preserving the classification.
var (
	// ErrSourceRead indicates a source file was unreachable or structurally
	// unparseable. The entity's load is skipped and the run continues.
	ErrSourceRead = New("source read failed")

	// ErrConformance indicates a staged record could not be coerced to the
	// target schema types. The record is excluded from its batch.
	ErrConformance = New("conformance failed")

	// ErrReferentialIntegrity indicates a fact's foreign key did not resolve
	// to any dimension surrogate key.
	ErrReferentialIntegrity = New("unresolved foreign key")

	// ErrLoad indicates a transactional store failure. The entity's
	// transaction is rolled back and the prior state preserved.
	ErrLoad = New("load failed")

	// ErrFatalConfig indicates the configuration is unusable (missing or
	// invalid store target, schema mismatch). Aborts the entire run before
	// any entity is processed.
	ErrFatalConfig = New("fatal configuration error")

	// ErrRunLocked indicates another run currently holds the run lock.
	ErrRunLocked = New("run already in progress")
)

// IsSourceReadError checks if an error is or wraps ErrSourceRead.
func IsSourceReadError(err error) bool {
	return err != nil && Is(err, ErrSourceRead)
}

// IsLoadError checks if an error is or wraps ErrLoad.
func IsLoadError(err error) bool {
	return err != nil && Is(err, ErrLoad)
}

// IsFatal reports whether an error must abort the whole run rather than a
// single entity.
func IsFatal(err error) bool {
	return err != nil && IsAny(err, ErrFatalConfig, ErrRunLocked)
}

// NewFatalConfigError creates a fatal configuration error with a formatted message.
func NewFatalConfigError(format string, args ...interface{}) error {
	return Wrap(ErrFatalConfig, Newf(format, args...).Error())
}

// WrapSourceRead wraps an error as a source-read error with context.
func WrapSourceRead(err error, context string) error {
	return Wrap(Wrap(ErrSourceRead, err.Error()), context)
}

// WrapLoad wraps an error as a load error with context.
func WrapLoad(err error, context string) error {
	return Wrap(Wrap(ErrLoad, err.Error()), context)
}
