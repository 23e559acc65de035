// Package task tracks the lifecycle of one generation job at a time.
//
// A Tracker submits a job to the job service, polls its status on a fixed
// interval, and stops on completion, failure, cancellation or when a newer
// submission supersedes it. Stale timers and in-flight responses from a
// superseded poll session are dropped by comparing generations under the
// tracker's lock.
package task
