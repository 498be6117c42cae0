// Package database provides the PostgreSQL connection pool used by the
// optional envelope journal.
package database
