// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies command errors so main can choose an exit
// code without parsing message text.
type ErrorCategory string

const (
	// CategoryValidation: bad flags, arguments or configuration. Exit 2.
	CategoryValidation ErrorCategory = "validation"

	// CategoryTransient: the homeserver or database was unreachable.
	// Exit 75 (EX_TEMPFAIL) so supervisors restart the bot.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else. Exit 1.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by commands. It wraps the
// underlying error so errors.Is and errors.As see through it.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps err to a process exit code: 0 for nil, the code of an
// ExitError, the category's code for a ToolError, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		switch toolErr.Category {
		case CategoryValidation:
			return 2
		case CategoryTransient:
			return 75
		}
	}
	return 1
}
