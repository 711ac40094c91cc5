// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package boards

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

const waitDelay = 2 * time.Second

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Clock tells the cache what time it is.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ExecRunner runs commands with os/exec. Stdout is returned, stderr is kept
// for error reporting only. Failures are reported as *ProcessError.
type ExecRunner struct {
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}
	// platformio is a Python launcher that may leave children holding the
	// pipes open after it is killed.
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	pe := &ProcessError{
		Command:  strings.Join(append([]string{name}, args...), " "),
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		pe.ExitCode = exitErr.ExitCode()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		pe.Timeout = true
		pe.Err = ctx.Err()
	}

	return nil, pe
}
