// Package errors provides unified error handling for steady services.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection.
package errors
