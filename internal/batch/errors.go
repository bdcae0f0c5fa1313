package batch

import (
	"errors"
	"fmt"
)

// ErrToolNotFound reports that the configured tool executable could not be
// resolved or is not executable. Raised before any work is attempted.
var ErrToolNotFound = errors.New("tool executable not found")

// ErrInputDirNotFound reports that the configured input directory does not
// exist. Raised before the output directory is created.
var ErrInputDirNotFound = errors.New("input directory not found")

// ExternalToolError reports a tool process that exited non-zero. It is
// fatal to the whole batch: no further jobs are dispatched.
type ExternalToolError struct {
	JobID    string
	ExitCode int
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("external tool failed for job %q: exit code %d", e.JobID, e.ExitCode)
}
