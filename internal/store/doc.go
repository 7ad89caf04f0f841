// Package store owns the connection to the backend holding the
// sailors/boats/reserves data.
//
// One Store is one connection. It is opened once, passed explicitly to
// whatever runs queries, and closed with defer on every exit path:
//
//	s, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: "sailors.db"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
// # Backends
//
//   - sqlite3 (mattn/go-sqlite3): default, file or :memory:
//   - mysql (go-sql-driver/mysql)
//   - pgx (jackc/pgx/v5/stdlib): PostgreSQL
//
// Statements are written with ? placeholders and rebound for the driver
// through sqlx. Tables are created from internal/schema declarations with
// CREATE TABLE IF NOT EXISTS, so opening an existing database never alters
// its data.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and ON DELETE CASCADE
//
// Query results are returned as resultset.ResultSet values with driver
// differences already normalised.
package store
