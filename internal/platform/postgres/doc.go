// Package postgres provides PostgreSQL-specific implementations for the
// storage interfaces defined in the internal/store package.
// It handles the details of database connections, schema migrations, query
// execution, and data mapping between domain entities and database rows.
//
// Modify operations run in a transaction that first takes a transaction-scoped
// advisory lock on the record key, so concurrent writers for the same key are
// serialized even when the row does not exist yet.
package postgres
