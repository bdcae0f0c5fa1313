package convert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Record is one named, aligned sequence.
type Record struct {
	Name string
	Seq  string
}

// ErrEmptyFasta reports an input with no sequence records.
var ErrEmptyFasta = errors.New("no sequences found")

// ParseFasta reads aligned FASTA records, joining wrapped sequence lines
// and validating that all sequences have equal length.
func ParseFasta(r io.Reader) ([]Record, error) {
	var (
		records []Record
		name    string
		chunks  []string
		started bool
	)

	flush := func() {
		if started {
			records = append(records, Record{Name: name, Seq: strings.Join(chunks, "")})
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			name = strings.TrimSpace(line[1:])
			chunks = chunks[:0]
			started = true
			continue
		}
		chunks = append(chunks, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading fasta: %w", err)
	}
	flush()

	if len(records) == 0 {
		return nil, ErrEmptyFasta
	}

	want := len(records[0].Seq)
	for _, rec := range records {
		if len(rec.Seq) != want {
			return nil, fmt.Errorf("sequences not equal length: %q has %d sites, %q has %d",
				records[0].Name, want, rec.Name, len(rec.Seq))
		}
	}
	return records, nil
}

// plainTaxon matches names that NEXUS accepts unquoted.
var plainTaxon = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// QuoteTaxon wraps a taxon name in single quotes when it contains
// characters outside [A-Za-z0-9_.-], doubling any embedded single quotes.
func QuoteTaxon(name string) string {
	if plainTaxon.MatchString(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// WriteNexus emits a NEXUS DNA data block for the given alignment. Gap '-'
// and missing '?' symbols pass through untouched.
func WriteNexus(w io.Writer, records []Record) error {
	if len(records) == 0 {
		return ErrEmptyFasta
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#NEXUS")
	fmt.Fprintln(bw, "Begin data;")
	fmt.Fprintf(bw, "    Dimensions ntax=%d nchar=%d;\n", len(records), len(records[0].Seq))
	fmt.Fprintln(bw, "    Format datatype=DNA missing=? gap=-;")
	fmt.Fprintln(bw, "    Matrix")
	for _, rec := range records {
		fmt.Fprintf(bw, "    %-30s %s\n", QuoteTaxon(rec.Name), rec.Seq)
	}
	fmt.Fprintln(bw, "    ;")
	fmt.Fprintln(bw, "End;")
	return bw.Flush()
}

// FastaToNexus converts an aligned FASTA file on disk into a NEXUS file.
// It returns the alignment dimensions for the caller's summary notice.
func FastaToNexus(inPath, outPath string) (ntax, nchar int, err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, 0, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	records, err := ParseFasta(in)
	if err != nil {
		return 0, 0, err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, 0, fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()

	if err := WriteNexus(out, records); err != nil {
		return 0, 0, err
	}
	if err := out.Close(); err != nil {
		return 0, 0, fmt.Errorf("closing output: %w", err)
	}
	return len(records), len(records[0].Seq), nil
}
