// Package sqlite contains SQLite repository implementations for
// detector domain types.
//
// All database read/write operations for reconstruction runs and
// clusters belong here rather than in the domain packages. This keeps
// domain logic free of SQL noise and makes it easier to swap storage
// backends for testing.
package sqlite
