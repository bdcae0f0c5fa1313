// Package app contains the core application logic. It owns the logger and
// wires the configuration produced at the CLI boundary into the batch
// driver and the converters, decoupled from any specific entrypoint.
package app
