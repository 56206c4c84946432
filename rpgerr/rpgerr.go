// Package rpgerr defines the tagged error taxonomy shared across the RPG
// engine (encode, evolve, query). Every error surfaced to a caller carries a
// stable Code alongside a human-readable message so external collaborators
// (CLIs, RPC front ends) can format it without inspecting Go types.
package rpgerr

import (
	"errors"
	"fmt"

	"github.com/maxbolgarin/erro"
)

// Code is one of the eight taxonomy members from the specification.
type Code string

const (
	CodeConfig            Code = "CONFIG"
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION"
	CodeParse             Code = "PARSE"
	CodeLLM               Code = "LLM"
	CodeVCS               Code = "VCS"
	CodeStore             Code = "STORE"
	CodeDriftUnavailable  Code = "DRIFT_UNAVAILABLE"
)

// Error is the common shape of every taxonomy member: a stable code plus an
// erro-wrapped cause that keeps the original stack/context.
type Error struct {
	Code Code
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }

func newError(code Code, err error) *Error {
	return &Error{Code: code, err: err}
}

// Config reports a fatal configuration problem (missing LLM provider when
// required, invalid drift threshold, ...). Fatal at phase entry.
func Config(format string, args ...any) error {
	return newError(CodeConfig, erro.New(format, args...))
}

// NotFound reports a missing graph id, file path, or entity.
func NotFound(format string, args ...any) error {
	return newError(CodeNotFound, erro.New(format, args...))
}

// Validation reports malformed input to a public operation.
func Validation(format string, args ...any) error {
	return newError(CodeValidation, erro.New(format, args...))
}

// Parse wraps a non-fatal per-file AST parser failure.
func Parse(err error, context string) error {
	return newError(CodeParse, erro.Wrap(err, context))
}

// LLM reports a transport failure or unparseable output after retry.
func LLM(err error, context string) error {
	return newError(CodeLLM, erro.Wrap(err, context))
}

// VCS reports that a diff cannot be produced.
func VCS(err error, context string) error {
	return newError(CodeVCS, erro.Wrap(err, context))
}

// Store reports a backend failure (I/O, constraint violation other than
// de-duplication). Fatal for the enclosing operation.
func Store(err error, context string) error {
	return newError(CodeStore, erro.Wrap(err, context))
}

// DriftUnavailable reports that neither embeddings nor keyword sets were
// available to compute semantic distance for a modification.
func DriftUnavailable(format string, args ...any) error {
	return newError(CodeDriftUnavailable, erro.New(format, args...))
}

// CodeOf extracts the taxonomy code from err, walking the wrap chain. It
// returns "" when err does not carry one.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Format renders the error the way an external collaborator (CLI, RPC tool
// surface) should present it to a user: a stable code plus a one-line
// message, with any internal detail left out.
func Format(err error) (code, message string) {
	var e *Error
	if errors.As(err, &e) {
		return string(e.Code), e.err.Error()
	}
	return "UNKNOWN", fmt.Sprintf("%v", err)
}
