// Package postgres provides the PostgreSQL implementation of the
// store.AttemptStore interface, together with the embedded goose migrations
// that create its schema. Connections are opened through database/sql with
// the pgx driver.
package postgres
