// Package batch implements the idempotent batch-job driver: it scans an
// input directory for eligible haplotype files, derives a deterministic
// output prefix per file, skips files whose completion marker already
// exists, and dispatches the remaining files to an external inference tool
// one at a time (or with bounded concurrency when configured). The first
// tool failure aborts the batch; re-running the driver resumes from the
// marker files and never re-dispatches completed work.
package batch
