// Package services holds the business-logic layer between the HTTP
// handlers and the pipeline. Services own the concurrency policy: the
// session lock, the one-run-at-a-time rule and cancellation.
package services
