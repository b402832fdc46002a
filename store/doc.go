// Package store persists run checkpoints for audit.
//
// A Checkpoint holds the JSON encoding of the merged run state taken after a
// stage completed, keyed by checkpoint id and grouped by run id. The
// CheckpointStore interface has five implementations:
//
//   - memory: process-local map, used by tests and single-shot CLI runs
//   - file: one JSON file per checkpoint under a directory per run
//   - sqlite: a single table in a SQLite database (mattn/go-sqlite3)
//   - postgres: a JSONB table accessed through a pgx pool
//   - redis: one key per checkpoint plus a set per run (go-redis)
//
// Every implementation returns List results ordered by Version, so Latest
// always yields the last merged state of a run.
package store
