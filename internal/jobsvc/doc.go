// Package jobsvc is the HTTP client for the remote job service that performs
// transcription, summarization and translation.
//
// The client speaks the service's wire protocol only. Lifecycle decisions
// such as when to poll, which errors to swallow, and when a task is done
// belong to the task tracker.
package jobsvc
