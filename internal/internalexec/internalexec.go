package internalexec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Result captures stdout/stderr emitted by a command run.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes external commands on behalf of the CUPS backend.
type Runner interface {
	Run(ctx context.Context, stdout io.Writer, name string, args ...string) (Result, error)
}

// CommandRunner runs commands with os/exec and the current environment.
type CommandRunner struct {
	// Env is appended to os.Environ for every command.
	Env []string
}

// Run executes name with args. When stdout is non-nil the command's standard
// output is written there instead of being captured.
func (r CommandRunner) Run(ctx context.Context, stdout io.Writer, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Stdout = stdout
	return RunCaptured(cmd)
}

// RunCaptured runs cmd collecting its output. A stdout writer already set on
// cmd receives the raw stream and Result.Stdout stays empty.
func RunCaptured(cmd *exec.Cmd) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	if cmd.Stdout == nil {
		cmd.Stdout = &stdoutBuf
	}
	if cmd.Stderr != nil {
		cmd.Stderr = io.MultiWriter(cmd.Stderr, &stderrBuf)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()

	return Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}, err
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}
