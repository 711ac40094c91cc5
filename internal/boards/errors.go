// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package boards

import (
	"fmt"
	"strings"
)

// ProcessError reports that the external command could not be run, exited
// non-zero or ran past its timeout.
type ProcessError struct {
	Command  string
	ExitCode int // -1 when the process never exited on its own
	Stderr   string
	Timeout  bool
	Err      error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q", e.Command)
	switch {
	case e.Timeout:
		b.WriteString(" timed out")
	case e.ExitCode > 0:
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	default:
		b.WriteString(" failed")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", e.Stderr)
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error { return e.Err }

// ParseError reports output that is not a JSON array of board records.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse board list: %s: %v", e.Reason, e.Err)
	}
	return "failed to parse board list: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }
