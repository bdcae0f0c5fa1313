package batch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pgelab/haplorun/internal/config"
	"github.com/pgelab/haplorun/internal/ctxlog"
	"github.com/pgelab/haplorun/internal/fsutil"
	"github.com/pgelab/haplorun/internal/seed"
	"github.com/pgelab/haplorun/internal/toolexec"
)

// Runner drives one batch invocation. It holds no state across invocations;
// the marker files in the output directory are the only coordination
// mechanism between runs.
type Runner struct {
	cfg     config.Batch
	invoker toolexec.Invoker
}

// NewRunner creates a Runner for the given configuration. The invoker is
// usually toolexec.New(); tests substitute a recording fake.
func NewRunner(cfg config.Batch, invoker toolexec.Invoker) *Runner {
	return &Runner{cfg: cfg, invoker: invoker}
}

// Summary reports what one batch invocation did.
type Summary struct {
	RunID      string
	Eligible   int
	Skipped    int
	Dispatched int
}

// Run executes the batch. Pre-flight failures (tool missing, input dir
// missing) abort before any work; a non-zero tool exit aborts the batch
// with an *ExternalToolError and no further jobs are dispatched.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("run_id", runID, "tool", r.cfg.Tool.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := r.cfg.Validate(); err != nil {
		return Summary{RunID: runID}, err
	}

	toolPath, err := r.preflight()
	if err != nil {
		return Summary{RunID: runID}, err
	}

	jobs, err := r.discover()
	if err != nil {
		return Summary{RunID: runID}, err
	}
	logger.Info("Starting batch.",
		"input_dir", r.cfg.InputDir,
		"output_dir", r.cfg.OutputDir,
		"model", r.cfg.Model,
		"eligible", len(jobs),
		"parallel", r.cfg.Parallel,
	)

	var skipped, dispatched atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallel)

	for _, job := range jobs {
		job := job
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A slot can free up because another job failed; never start
			// new work after the group context is cancelled.
			if gctx.Err() != nil {
				return nil
			}
			done, err := r.runJob(gctx, toolPath, job)
			if err != nil {
				return err
			}
			if done {
				dispatched.Add(1)
			} else {
				skipped.Add(1)
			}
			return nil
		})
	}

	summary := Summary{RunID: runID, Eligible: len(jobs)}
	err = g.Wait()
	summary.Skipped = int(skipped.Load())
	summary.Dispatched = int(dispatched.Load())
	if err != nil {
		return summary, err
	}

	logger.Info("Batch complete.",
		"eligible", summary.Eligible,
		"dispatched", summary.Dispatched,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// preflight resolves the tool executable and checks the input directory,
// in that order, then ensures the output directory exists. Creation of the
// output directory is idempotent.
func (r *Runner) preflight() (string, error) {
	toolPath, err := exec.LookPath(r.cfg.Tool.Executable)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, r.cfg.Tool.Executable)
	}

	info, err := os.Stat(r.cfg.InputDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrInputDirNotFound, r.cfg.InputDir)
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return toolPath, nil
}

// discover lists eligible input files and derives a Job for each one.
func (r *Runner) discover() ([]Job, error) {
	names, err := fsutil.FindFilesByPrefix(r.cfg.InputDir, r.cfg.FilePrefix)
	if err != nil {
		return nil, err
	}

	tag := expandTag(r.cfg.Tool.OutputTag, r.cfg.Model)
	jobs := make([]Job, 0, len(names))
	for _, name := range names {
		jobs = append(jobs, Job{
			ID:           strings.TrimPrefix(name, r.cfg.FilePrefix),
			InputPath:    filepath.Join(r.cfg.InputDir, name),
			OutputPrefix: OutputPrefix(r.cfg.OutputDir, name, tag),
		})
	}
	return jobs, nil
}

// runJob processes a single job. It reports done=false when the job was
// skipped because its marker exists; in that case no seed is generated and
// no process is spawned.
func (r *Runner) runJob(ctx context.Context, toolPath string, job Job) (done bool, err error) {
	logger := ctxlog.FromContext(ctx).With("job_id", job.ID)

	marker := job.OutputPrefix + r.cfg.Tool.MarkerSuffix
	if _, statErr := os.Stat(marker); statErr == nil {
		logger.Info("Skipping completed job.", "marker", marker)
		return false, nil
	}

	jobSeed := seed.New()
	logger.Info("Dispatching job.",
		"seed", jobSeed,
		"input", job.InputPath,
		"output_prefix", job.OutputPrefix,
	)

	args := toolexec.ExpandArgs(r.cfg.Tool.Args, toolexec.Values{
		Input:   job.InputPath,
		Model:   r.cfg.Model,
		Seed:    jobSeed,
		Prefix:  job.OutputPrefix,
		Threads: r.cfg.Threads,
	})

	res, err := r.invoker.Invoke(ctx, toolexec.Invocation{Path: toolPath, Args: args})
	if err != nil {
		return false, fmt.Errorf("job %q: %w", job.ID, err)
	}
	if res.ExitCode != 0 {
		return false, &ExternalToolError{JobID: job.ID, ExitCode: res.ExitCode}
	}

	logger.Info("Job finished.", "output_prefix", job.OutputPrefix)
	return true, nil
}

// expandTag substitutes {model} in the output tag. Only the model
// placeholder is meaningful here; the others are per-job values that must
// not leak into the prefix derivation.
func expandTag(tag, model string) string {
	return strings.ReplaceAll(tag, "{model}", model)
}
