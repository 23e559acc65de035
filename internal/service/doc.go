// Package service holds the use cases that sit between the task tracker and
// the assessment engine.
//
// ResultBook keeps the result currently displayed for each task. It is fed
// by tracker completion events, can fall back to the job service history
// and swaps a result for its translation only when translation succeeds.
//
// QuizService owns the assessment sessions started from those results. Each
// session is serialised behind its own lock, and each finished run-through
// is recorded once in a store.AttemptStore.
package service
