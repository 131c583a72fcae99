// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests using it are skipped unless TASKFLOW_TEST_DATABASE_URL is set:
//
//	//go:build integration
//
//	func TestSomething(t *testing.T) {
//		db := testdb.Open(t)
//		users := postgres.NewPostgresUserStore(db, testdb.Logger())
//		...
//	}
//
// Open resets the schema, so tests sharing a database must not run in
// parallel across packages.
package testdb
