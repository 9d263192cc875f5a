// Package sqlite provides a SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It currently backs:
//
//   - HistoryStore: recorded searches and answers
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files;
// applied versions are tracked in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-ask/data/history.db
package sqlite
