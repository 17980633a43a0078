// Package errs provides the shared error types of the service.
//
// Every type follows the same shape: a sentinel (ErrObjectNotFound,
// ErrValueIsInvalid, ErrValueIsOutOfRange, ErrValueIsRequired), a struct
// carrying the offending parameter, New* and New*WithCause constructors and
// an Unwrap method returning the sentinel, so callers classify failures with
// errors.Is and inspect details with errors.As.
package errs
