// Package events carries task lifecycle notifications from the tracker to
// interested components.
//
// The tracker emits a TaskEvent whenever a polled task changes status or
// reaches a terminal state. Handlers such as the result cache subscribe
// through an EventEmitter, so the tracker never depends on them directly.
//
// The primary components are:
// - TaskEvent: a single lifecycle notification
// - EventHandler: interface for components that consume events
// - EventEmitter: interface for components that publish events
package events
