package batch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgelab/haplorun/internal/config"
	"github.com/pgelab/haplorun/internal/toolexec"
)

// fakeInvoker records invocations instead of spawning processes.
type fakeInvoker struct {
	mu       sync.Mutex
	calls    []toolexec.Invocation
	exitCode int
	onInvoke func(inv toolexec.Invocation)
}

func (f *fakeInvoker) Invoke(_ context.Context, inv toolexec.Invocation) (toolexec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()
	if f.onInvoke != nil {
		f.onInvoke(inv)
	}
	return toolexec.Result{ExitCode: f.exitCode}, nil
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// stubExecutable creates an executable file so pre-flight resolution passes.
func stubExecutable(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "faketool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

func testConfig(t *testing.T, inputDir, outputDir string) config.Batch {
	t.Helper()
	tool := config.BuiltinTools()["iqtree"]
	tool.Executable = stubExecutable(t, t.TempDir())
	return config.Batch{
		Tool:       tool,
		InputDir:   inputDir,
		OutputDir:  outputDir,
		Model:      "GTR+G",
		Threads:    1,
		FilePrefix: "true_hap.",
		Parallel:   1,
	}
}

func writeInput(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(">s1\nACGT\n"), 0o644))
}

func TestOutputPrefix_Deterministic(t *testing.T) {
	a := OutputPrefix("/out", "true_hap.01", "iqtree3")
	b := OutputPrefix("/out", "true_hap.01", "iqtree3")
	require.Equal(t, a, b)
	require.Equal(t, filepath.Join("/out", "true_hap.01.iqtree3"), a)
}

func TestRun_DispatchesEligibleFiles(t *testing.T) {
	inputDir := t.TempDir()
	writeInput(t, inputDir, "true_hap.01")
	writeInput(t, inputDir, "true_hap.02")
	writeInput(t, inputDir, "README") // not eligible
	require.NoError(t, os.Mkdir(filepath.Join(inputDir, "true_hap.dir"), 0o755))

	invoker := &fakeInvoker{}
	cfg := testConfig(t, inputDir, filepath.Join(t.TempDir(), "out"))

	summary, err := NewRunner(cfg, invoker).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.Eligible)
	require.Equal(t, 2, summary.Dispatched)
	require.Equal(t, 0, summary.Skipped)
	require.Equal(t, 2, invoker.callCount())

	// Sequential default dispatches in name order.
	require.Contains(t, invoker.calls[0].Args, filepath.Join(inputDir, "true_hap.01"))
	require.Contains(t, invoker.calls[1].Args, filepath.Join(inputDir, "true_hap.02"))
}

func TestRun_SkipsJobWithMarker(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeInput(t, inputDir, "true_hap.01")
	writeInput(t, inputDir, "true_hap.02")

	cfg := testConfig(t, inputDir, outputDir)
	tag := expandTag(cfg.Tool.OutputTag, cfg.Model)
	marker := OutputPrefix(outputDir, "true_hap.01", tag) + cfg.Tool.MarkerSuffix
	require.NoError(t, os.WriteFile(marker, nil, 0o644))

	invoker := &fakeInvoker{}
	summary, err := NewRunner(cfg, invoker).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, 1, summary.Dispatched)
	require.Equal(t, 1, invoker.callCount())
	require.Contains(t, invoker.calls[0].Args, filepath.Join(inputDir, "true_hap.02"))
}

func TestRun_ToolNotFound_FailsBeforeTouchingDirs(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing-input"), outputDir)
	cfg.Tool.Executable = filepath.Join(t.TempDir(), "no-such-tool")

	_, err := NewRunner(cfg, &fakeInvoker{}).Run(context.Background())
	require.ErrorIs(t, err, ErrToolNotFound)
	require.NoDirExists(t, outputDir)
}

func TestRun_InputDirNotFound_FailsBeforeCreatingOutputDir(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing-input"), outputDir)

	_, err := NewRunner(cfg, &fakeInvoker{}).Run(context.Background())
	require.ErrorIs(t, err, ErrInputDirNotFound)
	require.NoDirExists(t, outputDir)
}

func TestRun_ToolFailureAbortsBatch(t *testing.T) {
	inputDir := t.TempDir()
	writeInput(t, inputDir, "true_hap.01")
	writeInput(t, inputDir, "true_hap.02")

	invoker := &fakeInvoker{exitCode: 2}
	cfg := testConfig(t, inputDir, filepath.Join(t.TempDir(), "out"))

	_, err := NewRunner(cfg, invoker).Run(context.Background())

	var toolErr *ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, "01", toolErr.JobID)
	require.Equal(t, 2, toolErr.ExitCode)
	require.Equal(t, 1, invoker.callCount(), "no further jobs after the failure")
}

func TestRun_SecondRunSkipsEverything(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeInput(t, inputDir, "true_hap.01")
	writeInput(t, inputDir, "true_hap.02")

	cfg := testConfig(t, inputDir, outputDir)

	// First run: the "tool" drops a completion marker, as real tools do.
	first := &fakeInvoker{onInvoke: func(inv toolexec.Invocation) {
		prefix := inv.Args[prefixIndex(inv.Args)]
		_ = os.WriteFile(prefix+cfg.Tool.MarkerSuffix, nil, 0o644)
	}}
	summary, err := NewRunner(cfg, first).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.Dispatched)

	second := &fakeInvoker{}
	summary, err = NewRunner(cfg, second).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.Skipped)
	require.Equal(t, 0, summary.Dispatched)
	require.Equal(t, 0, second.callCount(), "second run must not spawn anything")
}

func TestRun_DifferentModelDispatchesAgain(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeInput(t, inputDir, "true_hap.01")

	cfg := testConfig(t, inputDir, outputDir)
	cfg.Model = "GTR+G"

	first := &fakeInvoker{onInvoke: func(inv toolexec.Invocation) {
		prefix := inv.Args[prefixIndex(inv.Args)]
		_ = os.WriteFile(prefix+cfg.Tool.MarkerSuffix, nil, 0o644)
	}}
	summary, err := NewRunner(cfg, first).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Dispatched)

	// Same directory, different model: the prefixes must not collide, so
	// this is a fresh run, not a skip.
	cfg.Model = "JC"
	second := &fakeInvoker{}
	summary, err = NewRunner(cfg, second).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Dispatched, "a different model should be a fresh run, not a skip")
	require.Equal(t, 0, summary.Skipped)
}

func TestRun_SeedSubstitutedPerJob(t *testing.T) {
	inputDir := t.TempDir()
	writeInput(t, inputDir, "true_hap.01")

	invoker := &fakeInvoker{}
	cfg := testConfig(t, inputDir, filepath.Join(t.TempDir(), "out"))

	_, err := NewRunner(cfg, invoker).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, invoker.callCount())

	args := invoker.calls[0].Args
	for _, a := range args {
		require.NotContains(t, a, "{seed}", "placeholder must be expanded")
		require.NotContains(t, a, "{input}")
		require.NotContains(t, a, "{prefix}")
	}
}

func TestRun_ParallelStillFailsFast(t *testing.T) {
	inputDir := t.TempDir()
	for _, name := range []string{"true_hap.01", "true_hap.02", "true_hap.03", "true_hap.04"} {
		writeInput(t, inputDir, name)
	}

	invoker := &fakeInvoker{exitCode: 3}
	cfg := testConfig(t, inputDir, filepath.Join(t.TempDir(), "out"))
	cfg.Parallel = 2

	_, err := NewRunner(cfg, invoker).Run(context.Background())
	var toolErr *ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, 3, toolErr.ExitCode)
	require.LessOrEqual(t, invoker.callCount(), 2, "at most the in-flight window is invoked after a failure")
}

// TestRun_EndToEndWithRealExecutor exercises the full path through
// toolexec.Executor with a stub shell tool that drops its own marker.
func TestRun_EndToEndWithRealExecutor(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeInput(t, inputDir, "true_hap.01")

	toolDir := t.TempDir()
	toolPath := filepath.Join(toolDir, "faketree")
	script := "#!/bin/sh\n# args: --prefix <prefix>\ntouch \"$2.iqtree\"\n"
	require.NoError(t, os.WriteFile(toolPath, []byte(script), 0o755))

	cfg := config.Batch{
		Tool: config.Tool{
			Name:         "faketree",
			Executable:   toolPath,
			Args:         []string{"--prefix", "{prefix}"},
			OutputTag:    "faketree",
			MarkerSuffix: ".iqtree",
		},
		InputDir:   inputDir,
		OutputDir:  outputDir,
		Model:      "GTR",
		Threads:    1,
		FilePrefix: "true_hap.",
		Parallel:   1,
	}

	summary, err := NewRunner(cfg, toolexec.New()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Dispatched)
	require.FileExists(t, filepath.Join(outputDir, "true_hap.01.faketree.iqtree"))

	summary, err = NewRunner(cfg, toolexec.New()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, 0, summary.Dispatched)
}

// prefixIndex finds the value following "--prefix" in an expanded argument
// list.
func prefixIndex(args []string) int {
	for i, a := range args {
		if a == "--prefix" && i+1 < len(args) {
			return i + 1
		}
	}
	return -1
}
