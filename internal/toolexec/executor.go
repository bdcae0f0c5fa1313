package toolexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Invocation is one fully-expanded tool command, ready to spawn.
type Invocation struct {
	Path string
	Args []string
}

// Result describes a completed tool process.
type Result struct {
	ExitCode int
}

// Invoker runs tool invocations. The batch driver depends on this interface
// so tests can record dispatches without spawning processes.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) (Result, error)
}

// Executor is the real Invoker: it runs the tool as a child process and
// blocks until it exits. The tool's output streams are passed through to
// the configured writers so the operator sees tool progress live, matching
// how the original driving scripts behaved.
type Executor struct {
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Executor wired to the parent process's streams.
func New() *Executor {
	return &Executor{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Invoke spawns the tool and waits for it. A non-zero tool exit is not an
// error here; it is reported through Result so the caller can apply its own
// fail-fast policy. An error is returned only when the process could not be
// run at all.
func (e *Executor) Invoke(ctx context.Context, inv Invocation) (Result, error) {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	err := cmd.Run()
	if err == nil {
		return Result{ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode()}, nil
	}
	return Result{}, fmt.Errorf("running %s: %w", inv.Path, err)
}

// Values holds the per-job substitutions for an argument template.
type Values struct {
	Input   string
	Model   string
	Seed    uint32
	Prefix  string
	Threads int
}

// ExpandArgs substitutes the {input}, {model}, {seed}, {prefix} and
// {threads} placeholders in every element of the template. Elements without
// placeholders pass through verbatim.
func ExpandArgs(template []string, vals Values) []string {
	replacer := strings.NewReplacer(
		"{input}", vals.Input,
		"{model}", vals.Model,
		"{seed}", strconv.FormatUint(uint64(vals.Seed), 10),
		"{prefix}", vals.Prefix,
		"{threads}", strconv.Itoa(vals.Threads),
	)

	expanded := make([]string, len(template))
	for i, arg := range template {
		expanded[i] = replacer.Replace(arg)
	}
	return expanded
}
