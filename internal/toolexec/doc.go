// Package toolexec invokes external inference tools as synchronous
// subprocesses. It owns argument-template expansion and exit-code
// extraction; deciding what to run and in which order is the batch
// driver's job.
package toolexec
