// Package sqlite persists conversation transcripts in a SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It stores sessions, their turns and the latest memory summary of
// each session, so `guru history` can list and replay past conversations.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.guru/data/transcripts.db
package sqlite
