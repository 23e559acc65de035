// Package api implements the bridge HTTP API that the presentation layer
// calls into. Handlers translate HTTP requests into tracker, result, quiz
// and history operations and map their errors to status codes in one place.
package api
