// Package errors provides the structured error type used across the
// dataflow scheduler. Every failure is a distinct ErrorCode carrying the
// offending node and port names in Details.
//
// Codes follow RFC 7807 style JSON rendering through ToResponse so the
// HTTP service can surface authoring errors verbatim.
package errors
