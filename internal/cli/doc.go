// Package cli defines the command tree, parses flags, positional arguments
// and environment variables into the application's configuration, and
// handles process-level concerns like exit codes. Environment variables are
// consulted only here; the driver below this boundary sees an explicit
// config value.
package cli
