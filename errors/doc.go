// Package errors provides the structured error kinds used by peer discovery.
// Every failure carries a machine-readable code, a retryable flag and an
// optional cause, and is compatible with errors.Is and errors.As.
package errors
