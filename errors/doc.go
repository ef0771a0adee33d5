// Package errors provides the structured error type shared by every toolflow
// package. Errors carry a machine-readable code, a retryable hint and free-form
// details, and match each other by code through errors.Is.
package errors
