// Package history keeps a local SQLite log of dispatched queries.
//
// Recorder wraps any transport.Transport: it writes a row when a query is
// dispatched and updates it when the result stream reaches a terminal
// state. Recording failures are logged and never affect the query.
//
// The database uses WAL mode with a single connection, like every other
// SQLite store in this module.
package history
