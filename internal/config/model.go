package config

import (
	"errors"
	"fmt"
)

// Tool describes how to invoke one external inference tool. Args is an
// argument template; every element may contain the placeholders {input},
// {model}, {seed}, {prefix} and {threads}, which are expanded per job.
type Tool struct {
	// Name identifies the tool in CLI flags and log records.
	Name string

	// Executable is a binary name resolved via PATH, or an explicit path.
	Executable string

	// Args is the fixed argument template passed to the executable.
	Args []string

	// DefaultModel is used when no model is supplied on the command line
	// or in the environment.
	DefaultModel string

	// OutputTag is appended to each input filename to form the output
	// prefix shared by all artifacts of one job. {model} is expanded, and
	// should normally be present: without it, runs that differ only in
	// model share markers and skip each other's work.
	OutputTag string

	// MarkerSuffix, appended to the output prefix, names the file whose
	// existence marks a job as already completed.
	MarkerSuffix string
}

// Batch is the fully-resolved configuration for one driver invocation.
// It is constructed once at the CLI boundary and passed by value into the
// driver; the driver itself never consults the environment.
type Batch struct {
	Tool       Tool
	InputDir   string
	OutputDir  string
	Model      string
	Threads    int
	FilePrefix string

	// Parallel bounds driver-level concurrency. 1 means strictly
	// sequential dispatch, which is the default.
	Parallel int
}

// Validate checks the fields a Batch must carry before the driver will
// accept it. Filesystem-level checks (tool resolvable, input dir present)
// belong to the driver's pre-flight, not here.
func (b Batch) Validate() error {
	if b.Tool.Executable == "" {
		return errors.New("tool executable must not be empty")
	}
	if len(b.Tool.Args) == 0 {
		return fmt.Errorf("tool %q has an empty argument template", b.Tool.Name)
	}
	if b.InputDir == "" {
		return errors.New("input directory must not be empty")
	}
	if b.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	if b.Model == "" {
		return errors.New("model must not be empty")
	}
	if b.FilePrefix == "" {
		return errors.New("file prefix must not be empty")
	}
	if b.Threads < 1 {
		return fmt.Errorf("threads must be positive, got %d", b.Threads)
	}
	if b.Parallel < 1 {
		return fmt.Errorf("parallel must be positive, got %d", b.Parallel)
	}
	return nil
}
