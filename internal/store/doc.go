// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. The in-memory implementations here back
// the application when no database is configured.
package store
