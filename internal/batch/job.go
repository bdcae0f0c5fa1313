package batch

import "path/filepath"

// Job is one unit of work: a single eligible input file. Jobs carry no
// state of their own; whether a job was already completed is observable
// only through its marker file.
type Job struct {
	// ID is the input filename with the eligibility prefix stripped.
	ID string

	// InputPath is the full path of the input file.
	InputPath string

	// OutputPrefix is the path stem shared by all artifacts the external
	// tool produces for this job.
	OutputPrefix string
}

// OutputPrefix derives the artifact path stem for one input filename. It is
// a pure function of its arguments: re-running the driver with unchanged
// configuration resolves every job to the same prefix, which is what makes
// marker-based resumption possible.
func OutputPrefix(outputDir, filename, outputTag string) string {
	return filepath.Join(outputDir, filename+"."+outputTag)
}
