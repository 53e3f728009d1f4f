// Package postgres provides PostgreSQL implementations of the interfaces in
// internal/store, the connection setup for the pgx driver, and the embedded
// goose migrations that create the business tables.
package postgres
