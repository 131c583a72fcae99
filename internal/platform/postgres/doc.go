// Package postgres provides PostgreSQL implementations of the store
// interfaces, the embedded goose migrations that create their tables, and
// the mapping from PostgreSQL errors to store errors.
//
// Stores that need read-modify-write semantics (UserStore.Update,
// TaskStore.Update, TaskStore.Delete) lock the row with SELECT ... FOR UPDATE
// inside a transaction, so concurrent writers to the same record are
// serialized by the database.
package postgres
