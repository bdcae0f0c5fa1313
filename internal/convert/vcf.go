package convert

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// phasedSymbols maps ordered phased genotypes to IQ-TREE's 16-state
// genotype alphabet. Heterozygote order matters: A|C and C|A are distinct
// states.
var phasedSymbols = map[string]byte{
	"A|A": 'A', "C|C": 'C', "G|G": 'G', "T|T": 'T',
	"A|C": 'M', "A|G": 'R', "A|T": 'W', "C|G": 'S', "C|T": 'Y', "G|T": 'K',
	"C|A": '!', "G|A": '"', "T|A": '#', "G|C": '$', "T|C": '%', "T|G": '&',
}

// unphasedSymbols maps unphased genotypes to IUPAC ambiguity codes,
// order-insensitively.
var unphasedSymbols = map[string]byte{
	"A/A": 'A', "C/C": 'C', "G/G": 'G', "T/T": 'T',
	"A/C": 'M', "C/A": 'M',
	"A/G": 'R', "G/A": 'R',
	"A/T": 'W', "T/A": 'W',
	"C/G": 'S', "G/C": 'S',
	"C/T": 'Y', "T/C": 'Y',
	"G/T": 'K', "T/G": 'K',
}

// GenotypeSymbol maps one GT field to its IQ-TREE genotype symbol, given
// the site's REF and ALT bases. Anything the 16-state table cannot express
// (missing alleles, allele indexes beyond 1, non-ACGT bases) becomes the
// missing character.
func GenotypeSymbol(gt, ref, alt string, missing byte) byte {
	switch gt {
	case "", ".", "./.", ".|.":
		return missing
	}

	var (
		indexes []string
		phased  bool
	)
	switch {
	case strings.Contains(gt, "|"):
		indexes = strings.Split(gt, "|")
		phased = true
	case strings.Contains(gt, "/"):
		indexes = strings.Split(gt, "/")
	default:
		indexes = []string{gt} // haploid
	}

	bases := make([]byte, 0, 2)
	for _, idx := range indexes {
		if idx == "." {
			return missing
		}
		n, err := strconv.Atoi(idx)
		if err != nil {
			return missing
		}
		var base string
		switch n {
		case 0:
			base = strings.ToUpper(ref)
		case 1:
			base = strings.ToUpper(alt)
		default:
			return missing // multiallelic, not representable
		}
		if len(base) != 1 || !strings.ContainsAny(base, "ACGT") {
			return missing
		}
		bases = append(bases, base[0])
	}

	if len(bases) == 1 {
		return bases[0]
	}
	if len(bases) != 2 {
		return missing
	}

	key := string([]byte{bases[0], '/', bases[1]})
	table := unphasedSymbols
	if phased {
		key = string([]byte{bases[0], '|', bases[1]})
		table = phasedSymbols
	}
	if sym, ok := table[key]; ok {
		return sym
	}
	return missing
}

// Alignment is the per-sample genotype alignment accumulated from a VCF.
type Alignment struct {
	Samples   []string
	Seqs      map[string][]byte
	SitesKept int
	Variants  int
}

// Len returns the alignment length in sites.
func (a *Alignment) Len() int {
	if len(a.Samples) == 0 {
		return 0
	}
	return len(a.Seqs[a.Samples[0]])
}

// ErrNoSampleHeader reports a VCF without a #CHROM header line.
var ErrNoSampleHeader = errors.New("vcf has no #CHROM header line")

// ReadVCF scans a VCF stream and builds a genotype alignment from its
// biallelic SNP sites. Sites with multi-base or multiallelic alleles are
// counted but contribute no column.
func ReadVCF(r io.Reader, missing byte) (*Alignment, error) {
	aln := &Alignment{Seqs: make(map[string][]byte)}
	sawHeader := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			fields := strings.Split(strings.TrimRight(line, "\n"), "\t")
			if len(fields) > 9 {
				aln.Samples = fields[9:]
			}
			for _, s := range aln.Samples {
				aln.Seqs[s] = nil
			}
			sawHeader = true
			continue
		}

		aln.Variants++
		fields := strings.Split(line, "\t")
		if len(fields) < 10 {
			continue
		}

		ref, alt := fields[3], fields[4]
		if strings.Contains(alt, ",") || len(ref) != 1 || len(alt) != 1 {
			continue
		}

		gtIndex := -1
		for i, key := range strings.Split(fields[8], ":") {
			if key == "GT" {
				gtIndex = i
				break
			}
		}

		aln.SitesKept++
		genotypes := fields[9:]
		for i, sample := range aln.Samples {
			sym := missing
			if gtIndex >= 0 && i < len(genotypes) {
				parts := strings.Split(genotypes[i], ":")
				gt := "."
				if gtIndex < len(parts) {
					gt = parts[gtIndex]
				}
				sym = GenotypeSymbol(gt, ref, alt, missing)
			}
			aln.Seqs[sample] = append(aln.Seqs[sample], sym)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vcf: %w", err)
	}
	if !sawHeader {
		return nil, ErrNoSampleHeader
	}
	return aln, nil
}

// fastaWrap is the line width used for FASTA output.
const fastaWrap = 80

// WriteAlignmentFasta writes the alignment as wrapped FASTA.
func WriteAlignmentFasta(w io.Writer, aln *Alignment) error {
	bw := bufio.NewWriter(w)
	for _, sample := range aln.Samples {
		fmt.Fprintf(bw, ">%s\n", sample)
		seq := aln.Seqs[sample]
		for start := 0; start < len(seq); start += fastaWrap {
			end := min(start+fastaWrap, len(seq))
			bw.Write(seq[start:end])
			bw.WriteByte('\n')
		}
		if len(seq) == 0 {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WritePhylipRelaxed writes the alignment in relaxed PHYLIP form: full
// sample names, no 10-character truncation.
func WritePhylipRelaxed(w io.Writer, aln *Alignment) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(aln.Samples), aln.Len())
	for _, sample := range aln.Samples {
		fmt.Fprintf(bw, "%s %s\n", sample, aln.Seqs[sample])
	}
	return bw.Flush()
}

// VCFOptions selects the outputs of a VCF conversion.
type VCFOptions struct {
	MissingChar byte
	FastaOnly   bool
	PhylipOnly  bool
}

// VCFResult summarizes a completed VCF conversion.
type VCFResult struct {
	Samples   int
	SitesKept int
	Length    int
	FastaPath string
	PhyPath   string
}

// ConvertVCF converts a VCF file (plain or gzip, by extension) into
// outPrefix.fasta and/or outPrefix.phy.
func ConvertVCF(vcfPath, outPrefix string, opts VCFOptions) (VCFResult, error) {
	if opts.MissingChar == 0 {
		opts.MissingChar = '?'
	}
	if opts.FastaOnly && opts.PhylipOnly {
		return VCFResult{}, errors.New("fasta-only and phylip-only are mutually exclusive")
	}

	in, err := openMaybeGzip(vcfPath)
	if err != nil {
		return VCFResult{}, err
	}
	defer in.Close()

	aln, err := ReadVCF(in, opts.MissingChar)
	if err != nil {
		return VCFResult{}, err
	}

	result := VCFResult{
		Samples:   len(aln.Samples),
		SitesKept: aln.SitesKept,
		Length:    aln.Len(),
	}

	if !opts.PhylipOnly {
		result.FastaPath = outPrefix + ".fasta"
		if err := writeTo(result.FastaPath, func(w io.Writer) error {
			return WriteAlignmentFasta(w, aln)
		}); err != nil {
			return VCFResult{}, err
		}
	}
	if !opts.FastaOnly {
		result.PhyPath = outPrefix + ".phy"
		if err := writeTo(result.PhyPath, func(w io.Writer) error {
			return WritePhylipRelaxed(w, aln)
		}); err != nil {
			return VCFResult{}, err
		}
	}
	return result, nil
}

// openMaybeGzip opens a file, transparently decompressing when the path
// ends in .gz.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vcf: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	return &gzipReadCloser{zr: zr, f: f}, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// writeTo creates a file and runs the given writer against it.
func writeTo(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
