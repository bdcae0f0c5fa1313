// Package config defines the format-agnostic configuration model for a
// batch invocation: which external tool to run, how to build its command
// line, and where inputs and artifacts live. Loading tool definitions from
// HCL files is the job of the `hcl` package; constructing a Batch from
// flags and environment variables is the job of the `cli` package.
package config
