// Package domain contains the vocabulary shared by the task tracker and the
// assessment engine: task lifecycle states, submission inputs, the result
// payload returned by the job service, and recorded quiz attempts.
// It has no knowledge of HTTP, storage, or scheduling.
package domain
