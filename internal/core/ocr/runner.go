package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const maxLoggedStderr = 8 << 10

// Runner executes poppler and tesseract. Tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

// CommandError is a failed external tool invocation.
type CommandError struct {
	Tool   string
	Err    error
	Stderr string // first non-blank stderr line
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return e.Tool + ": " + e.Err.Error()
	}
	return e.Tool + ": " + e.Err.Error() + ": " + e.Stderr
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns the tool's exit status, or -1 when it did not run to completion.
func (e *CommandError) ExitCode() int {
	var ee *exec.ExitError
	if errors.As(e.Err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

func commandError(tool string, err error, stderr []byte) error {
	ce := &CommandError{Tool: tool, Err: err}
	for _, ln := range strings.Split(string(stderr), "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			ce.Stderr = truncate(ln, 256)
			break
		}
	}
	return ce
}

// execRunner runs commands with the process environment plus env.
type execRunner struct {
	env []string
}

func (r execRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	logger.Debug("running command", "cmd_line", strings.Join(append([]string{name}, args...), " "))

	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)
	if err != nil {
		logger.Error("exec failed",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), maxLoggedStderr),
		)
		return out.Bytes(), errb.Bytes(), err
	}
	logger.Debug("exec ok",
		"cmd", name,
		"duration_ms", dur.Milliseconds(),
		"stdout_bytes", out.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
