package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgelab/haplorun/internal/app"
	"github.com/pgelab/haplorun/internal/convert"
)

func newConvertCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert alignments between the formats the inference tools consume",
	}
	cmd.AddCommand(
		newFastaToNexusCmd(opts),
		newVCFCmd(opts),
	)
	return cmd
}

func newFastaToNexusCmd(opts *rootOptions) *cobra.Command {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:   "fasta2nexus",
		Short: "Convert an aligned FASTA file to NEXUS (DNA)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(opts.logW, opts.logLevel, opts.logFormat)
			if err != nil {
				return exitErr(1, err)
			}
			if err := a.ConvertFasta(inPath, outPath); err != nil {
				return exitErr(1, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "input", "i", "", "Input FASTA file")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output NEXUS file")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newVCFCmd(opts *rootOptions) *cobra.Command {
	var (
		vcfPath     string
		outPrefix   string
		missingChar string
		fastaOnly   bool
		phylipOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "vcf",
		Short: "Convert a VCF into an IQ-TREE genotype alignment (FASTA and/or relaxed PHYLIP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(missingChar) != 1 {
				return exitErr(1, fmt.Errorf("missing-char must be a single character, got %q", missingChar))
			}

			a, err := app.New(opts.logW, opts.logLevel, opts.logFormat)
			if err != nil {
				return exitErr(1, err)
			}
			err = a.ConvertVCF(vcfPath, outPrefix, convert.VCFOptions{
				MissingChar: missingChar[0],
				FastaOnly:   fastaOnly,
				PhylipOnly:  phylipOnly,
			})
			if err != nil {
				return exitErr(1, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&vcfPath, "vcf", "i", "", "Input VCF, plain or .gz")
	cmd.Flags().StringVarP(&outPrefix, "out-prefix", "o", "", "Output prefix (writes <prefix>.fasta and/or <prefix>.phy)")
	cmd.Flags().StringVar(&missingChar, "missing-char", "?", "Character for missing or unsupported genotypes")
	cmd.Flags().BoolVar(&fastaOnly, "fasta-only", false, "Write only the FASTA output")
	cmd.Flags().BoolVar(&phylipOnly, "phylip-only", false, "Write only the PHYLIP output")
	cmd.MarkFlagsMutuallyExclusive("fasta-only", "phylip-only")
	_ = cmd.MarkFlagRequired("vcf")
	_ = cmd.MarkFlagRequired("out-prefix")
	return cmd
}
