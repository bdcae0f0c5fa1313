package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgelab/haplorun/internal/app"
	"github.com/pgelab/haplorun/internal/batch"
	"github.com/pgelab/haplorun/internal/config"
	"github.com/pgelab/haplorun/internal/ctxlog"
	"github.com/pgelab/haplorun/internal/hcl"
)

// Environment variables recognized at the CLI boundary. Flags take
// precedence over both.
const (
	envToolPath = "HAPLORUN_TOOL_PATH"
	envModel    = "HAPLORUN_MODEL"
)

// runFlags collects the raw flag values of the run command before they are
// resolved into a config.Batch.
type runFlags struct {
	toolName   string
	toolsFile  string
	toolPath   string
	inputDir   string
	outputDir  string
	model      string
	filePrefix string
	threads    int
	parallel   int
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [scenario] [model]",
		Short: "Run an inference tool over every eligible haplotype file in a directory",
		Long: `Run iterates the haplotype files in the input directory, skips files whose
completion marker already exists, and invokes the configured tool once per
remaining file with a freshly generated seed. The first tool failure aborts
the batch; its exit code becomes the process exit code.

The optional positional arguments mirror the legacy driving scripts:
argument 1 is a scenario subdirectory under the input directory (a trailing
slash is stripped), argument 2 overrides the model.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(opts.logW, opts.logLevel, opts.logFormat)
			if err != nil {
				return exitErr(1, err)
			}
			ctx := ctxlog.WithLogger(cmd.Context(), a.Logger())

			cfg, err := buildBatchConfig(ctx, &flags, args, cmd.Flags().Changed("model"))
			if err != nil {
				return exitErr(1, err)
			}

			if _, err := a.RunBatch(ctx, cfg); err != nil {
				var toolErr *batch.ExternalToolError
				if errors.As(err, &toolErr) {
					return exitErr(toolExitCode(toolErr.ExitCode), err)
				}
				return exitErr(1, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.toolName, "tool", "iqtree", "Tool definition to run (iqtree, cellphy, or a name from --tools-file)")
	cmd.Flags().StringVar(&flags.toolsFile, "tools-file", "", "HCL file overriding or extending the built-in tool definitions")
	cmd.Flags().StringVar(&flags.toolPath, "tool-path", "", "Tool executable override (env "+envToolPath+")")
	cmd.Flags().StringVar(&flags.inputDir, "input-dir", ".", "Directory containing the haplotype files")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory for tool artifacts (default: tool+model tagged subdirectory of the input directory)")
	cmd.Flags().StringVar(&flags.model, "model", "", "Substitution model, passed through verbatim (env "+envModel+"; default: per tool)")
	cmd.Flags().StringVar(&flags.filePrefix, "file-prefix", config.DefaultFilePrefix, "Filename prefix identifying eligible input files")
	cmd.Flags().IntVar(&flags.threads, "threads", 1, "Thread count passed to the external tool")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 1, "Number of jobs the driver dispatches concurrently (1 = strictly sequential)")

	return cmd
}

// toolExitCode maps a tool's exit status to a usable process exit code.
// A signal-killed tool reports -1; anything outside 1..255 becomes 1 so the
// operator sees a plain failure instead of a shell-mangled status.
func toolExitCode(code int) int {
	if code < 1 || code > 255 {
		return 1
	}
	return code
}

// buildBatchConfig resolves flags, positional arguments, environment
// variables and tool definitions into one explicit configuration value.
// Model precedence: --model flag, positional argument 2, HAPLORUN_MODEL,
// the tool's default.
func buildBatchConfig(ctx context.Context, flags *runFlags, args []string, modelFlagSet bool) (config.Batch, error) {
	tools := config.BuiltinTools()
	if flags.toolsFile != "" {
		loaded, err := hcl.LoadTools(ctx, flags.toolsFile)
		if err != nil {
			return config.Batch{}, err
		}
		for name, tool := range loaded {
			tools[name] = tool
		}
	}

	tool, ok := tools[flags.toolName]
	if !ok {
		return config.Batch{}, fmt.Errorf("unknown tool %q (built-ins: iqtree, cellphy)", flags.toolName)
	}

	if flags.toolPath != "" {
		tool.Executable = flags.toolPath
	} else if fromEnv := os.Getenv(envToolPath); fromEnv != "" {
		tool.Executable = fromEnv
	}

	model := tool.DefaultModel
	if fromEnv := os.Getenv(envModel); fromEnv != "" {
		model = fromEnv
	}
	if len(args) > 1 {
		model = args[1]
	}
	if modelFlagSet {
		model = flags.model
	}
	if model == "" {
		return config.Batch{}, fmt.Errorf("no model: tool %q has no default, set --model", flags.toolName)
	}

	inputDir := flags.inputDir
	if len(args) > 0 {
		scenario := strings.TrimRight(args[0], "/")
		inputDir = filepath.Join(inputDir, scenario)
	}

	// The default output directory is tagged with tool and model, so
	// switching models never resolves to an already-populated directory.
	outputDir := flags.outputDir
	if outputDir == "" {
		outputDir = filepath.Join(inputDir, tool.Name+"_"+model)
	}

	cfg := config.Batch{
		Tool:       tool,
		InputDir:   inputDir,
		OutputDir:  outputDir,
		Model:      model,
		Threads:    flags.threads,
		FilePrefix: flags.filePrefix,
		Parallel:   flags.parallel,
	}
	return cfg, cfg.Validate()
}
