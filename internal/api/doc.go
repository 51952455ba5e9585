// Package api provides the HTTP handlers for items and processing runs.
//
// Handlers translate requests into service calls and map service errors to
// status codes with MapErrorToStatusCode. Error bodies only ever carry the
// sanitized message from GetSafeErrorMessage; full errors are redacted and
// logged.
package api
