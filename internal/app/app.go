package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/pgelab/haplorun/internal/batch"
	"github.com/pgelab/haplorun/internal/config"
	"github.com/pgelab/haplorun/internal/convert"
	"github.com/pgelab/haplorun/internal/ctxlog"
	"github.com/pgelab/haplorun/internal/toolexec"
)

// App encapsulates the application's dependencies and configuration.
type App struct {
	logW   io.Writer
	logger *slog.Logger
}

// New constructs an App with its own isolated logger. Log records go to
// logW; external tool output is passed through separately by the executor.
// An unknown log level or format is rejected here, before any work starts.
func New(logW io.Writer, logLevel, logFormat string) (*App, error) {
	logger, err := newLogger(logLevel, logFormat, logW)
	if err != nil {
		return nil, err
	}
	return &App{logW: logW, logger: logger}, nil
}

// Logger exposes the app's logger so the CLI boundary can log while it is
// still resolving configuration.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// RunBatch runs the batch driver against the given configuration and
// returns the driver's error unchanged so the CLI can map it to an exit
// code.
func (a *App) RunBatch(ctx context.Context, cfg config.Batch) (batch.Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	runner := batch.NewRunner(cfg, toolexec.New())
	return runner.Run(ctx)
}

// ConvertFasta converts an aligned FASTA file into NEXUS and reports the
// alignment dimensions.
func (a *App) ConvertFasta(inPath, outPath string) error {
	ntax, nchar, err := convert.FastaToNexus(inPath, outPath)
	if err != nil {
		return err
	}
	a.logger.Info("Wrote NEXUS alignment.", "output", outPath, "ntax", ntax, "nchar", nchar)
	return nil
}

// ConvertVCF converts a VCF into an IQ-TREE genotype alignment and reports
// what was written.
func (a *App) ConvertVCF(vcfPath, outPrefix string, opts convert.VCFOptions) error {
	result, err := convert.ConvertVCF(vcfPath, outPrefix, opts)
	if err != nil {
		return err
	}
	a.logger.Info("Wrote genotype alignment.",
		"samples", result.Samples,
		"sites_kept", result.SitesKept,
		"length", result.Length,
		"fasta", result.FastaPath,
		"phylip", result.PhyPath,
	)
	return nil
}
