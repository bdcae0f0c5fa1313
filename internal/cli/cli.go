package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// ExitError is a custom error type that carries a specific process exit
// code. The run command uses it to propagate an external tool's exit code
// to the operator.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// exitErr wraps an error into an ExitError with the given code.
func exitErr(code int, err error) *ExitError {
	return &ExitError{Code: code, Message: err.Error()}
}

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	logW      io.Writer
	logLevel  string
	logFormat string
}

// NewRootCmd builds the haplorun command tree. Log records are written to
// logW; external tool output passes through to the process streams.
func NewRootCmd(logW io.Writer, version string) *cobra.Command {
	opts := &rootOptions{logW: logW}

	rootCmd := &cobra.Command{
		Use:           "haplorun",
		Short:         "Batch-run phylogenetic inference tools over simulated haplotype files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: 'debug', 'info', 'warn' or 'error'")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log output format: 'text' or 'json'")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newConvertCmd(opts),
	)
	return rootCmd
}
