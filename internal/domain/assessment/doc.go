// Package assessment implements the quiz workflow run over generated
// material: a capped, ordered question set, an append-only answer ledger,
// a forward-only cursor and the score projection derived from the ledger.
//
// A Session is owned by a single consumer and is not safe for concurrent use.
package assessment
