// Package resultset holds query results in a backend-independent form.
//
// Drivers disagree on how they hand back the same value: SQLite returns
// int64 and float64, MySQL returns []byte for every column of a statement
// without arguments and typed values for prepared ones, PostgreSQL returns
// int32/int64/float64 by column type. Scan normalises all of them to a small
// set of Go types so two result sets can be compared cell by cell:
//
//	nil, int64, float64, string (NFC), bool, time.Time (UTC)
package resultset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/unicode/norm"
)

// Row is one result row, cells in column order.
type Row []any

// ResultSet is an ordered, fully materialised query result.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New builds a result set from literal values, normalising each cell.
// Intended for expected results in tests and fixtures.
func New(columns []string, rows ...Row) *ResultSet {
	rs := &ResultSet{Columns: columns, Rows: make([]Row, 0, len(rows))}
	for _, r := range rows {
		out := make(Row, len(r))
		for i, v := range r {
			out[i] = Normalize(v)
		}
		rs.Rows = append(rs.Rows, out)
	}
	return rs
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Scan reads every remaining row from rows. The caller still owns rows and
// must close it.
func Scan(rows *sqlx.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}

	dbTypes := make([]string, len(types))
	for i, ct := range types {
		dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	rs := &ResultSet{Columns: cols, Rows: []Row{}}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(rs.Rows), err)
		}
		row := make(Row, len(vals))
		for i, v := range vals {
			nv, err := normalizeScanned(v, dbTypes[i])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", len(rs.Rows), cols[i], err)
			}
			row[i] = nv
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

// normalizeScanned decodes raw driver bytes using the column's database
// type before applying Normalize.
func normalizeScanned(v any, dbType string) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return Normalize(v), nil
	}

	s := string(b)
	switch {
	case isIntegerType(dbType):
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s value %q: %w", dbType, s, err)
		}
		return n, nil
	case isDecimalType(dbType):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s value %q: %w", dbType, s, err)
		}
		return f, nil
	default:
		return Normalize(s), nil
	}
}

func isIntegerType(t string) bool {
	switch strings.TrimPrefix(t, "UNSIGNED ") {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"INT2", "INT4", "INT8":
		return true
	}
	return false
}

func isDecimalType(t string) bool {
	switch strings.TrimPrefix(t, "UNSIGNED ") {
	case "DECIMAL", "NUMERIC", "DOUBLE", "FLOAT", "REAL", "FLOAT4", "FLOAT8":
		return true
	}
	return false
}

// Normalize maps a driver value to the canonical cell types:
// signed and unsigned integers to int64 (uint64 above MaxInt64 to float64),
// float32 to float64, []byte to string, strings to NFC, times to UTC.
// Other values are returned unchanged.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return Normalize(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case []byte:
		return norm.NFC.String(string(val))
	case string:
		return norm.NFC.String(val)
	case time.Time:
		return val.UTC()
	default:
		return v
	}
}

// FormatValue renders a cell for human-readable output.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return strconv.Quote(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

// FormatRow renders a row as a parenthesised tuple.
func FormatRow(r Row) string {
	if r == nil {
		return "<none>"
	}
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = FormatValue(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
