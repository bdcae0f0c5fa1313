// Package hcl provides the concrete HCL implementation for loading tool
// definition files. It is responsible for file parsing, schema decoding and
// translation into the format-agnostic model in the `config` package.
package hcl
