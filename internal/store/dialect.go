package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/sailors/internal/schema"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// ErrUnknownDriver is returned for a driver name without a dialect.
var ErrUnknownDriver = errors.New("unknown driver")

// Driver names accepted by Open. They are the database/sql registration
// names, which sqlx also uses to pick the placeholder style.
const (
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

// dialect holds what differs between backends: DDL type names, the
// per-connection setup statements and a CREATE TABLE suffix.
type dialect struct {
	name        string
	types       map[schema.ColumnType]string
	setup       []string
	tableSuffix string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name: DriverSQLite,
		types: map[schema.ColumnType]string{
			schema.TypeInteger:  "INTEGER",
			schema.TypeText:     "TEXT",
			schema.TypeReal:     "REAL",
			schema.TypeDateTime: "DATETIME",
		},
		setup: []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		},
	},
	DriverMySQL: {
		name: DriverMySQL,
		types: map[schema.ColumnType]string{
			schema.TypeInteger:  "BIGINT",
			schema.TypeText:     "VARCHAR(255)",
			schema.TypeReal:     "DOUBLE",
			schema.TypeDateTime: "DATETIME",
		},
		tableSuffix: " ENGINE=InnoDB",
	},
	DriverPostgres: {
		name: DriverPostgres,
		types: map[schema.ColumnType]string{
			schema.TypeInteger:  "BIGINT",
			schema.TypeText:     "TEXT",
			schema.TypeReal:     "DOUBLE PRECISION",
			schema.TypeDateTime: "TIMESTAMP",
		},
	},
}

// Drivers returns the supported driver names, sorted.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("%w %q (supported: %s)", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

// createTableSQL renders an idempotent CREATE TABLE for t.
// The schema must already be validated: identifiers are written verbatim.
func (d dialect) createTableSQL(t schema.Table) string {
	var parts []string
	for _, c := range t.Columns {
		def := c.Name + " " + d.types[c.Type]
		if c.NotNull {
			def += " NOT NULL"
		}
		parts = append(parts, def)
	}

	parts = append(parts, "PRIMARY KEY ("+strings.Join(t.PrimaryKey, ", ")+")")

	for _, fk := range t.ForeignKeys {
		ref := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", fk.Column, fk.RefTable, fk.RefColumn)
		if fk.OnDeleteCascade {
			ref += " ON DELETE CASCADE"
		}
		parts = append(parts, ref)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)%s", t.Name, strings.Join(parts, ", "), d.tableSuffix)
}

// insertSQL renders a named-parameter INSERT for every column of t.
// Column names double as sqlx db tags on the schema record types.
func insertSQL(t schema.Table) string {
	cols := make([]string, len(t.Columns))
	named := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Name
		named[i] = ":" + c.Name
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(cols, ", "), strings.Join(named, ", "))
}
