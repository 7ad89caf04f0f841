// Package schema declares the sailors/boats/reserves relational schema.
//
// The declarations are pure data: table names, typed columns, primary keys
// and foreign keys. Backends materialise them (see internal/store) and query
// builders resolve column references against them (Schema implements the
// queryir catalog contract through Columns).
//
// A malformed declaration is a startup error. Validate must succeed before
// any table is created.
package schema

import (
	"fmt"
	"regexp"
)

// Table names.
const (
	SailorsTable  = "sailors"
	BoatsTable    = "boats"
	ReservesTable = "reserves"
)

// Column names shared by query builders and DDL.
const (
	SailorID     = "sid"
	SailorName   = "sname"
	SailorRating = "rating"
	SailorAge    = "age"

	BoatID     = "bid"
	BoatName   = "bname"
	BoatColor  = "color"
	BoatLength = "length"

	ReserveSailor = "sid"
	ReserveBoat   = "bid"
	ReserveDay    = "day"
)

// ColumnType is a backend-neutral column type. Dialects map it to DDL.
type ColumnType string

const (
	TypeInteger  ColumnType = "integer"
	TypeText     ColumnType = "text"
	TypeReal     ColumnType = "real"
	TypeDateTime ColumnType = "datetime"
)

// Column describes one table column.
type Column struct {
	Name    string
	Type    ColumnType
	NotNull bool
}

// ForeignKey is a single-column reference to another table's column.
type ForeignKey struct {
	Column          string
	RefTable        string
	RefColumn       string
	OnDeleteCascade bool
}

// Table describes one relational table.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// Schema is an ordered list of tables. Order matters: a table may only
// reference tables declared before it, which is also creation order.
type Schema struct {
	Tables []Table
}

var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Default returns the sailors/boats/reserves schema.
func Default() *Schema {
	return &Schema{Tables: []Table{
		{
			Name: SailorsTable,
			Columns: []Column{
				{Name: SailorID, Type: TypeInteger, NotNull: true},
				{Name: SailorName, Type: TypeText},
				{Name: SailorRating, Type: TypeInteger},
				{Name: SailorAge, Type: TypeReal},
			},
			PrimaryKey: []string{SailorID},
		},
		{
			Name: BoatsTable,
			Columns: []Column{
				{Name: BoatID, Type: TypeInteger, NotNull: true},
				{Name: BoatName, Type: TypeText},
				{Name: BoatColor, Type: TypeText},
				{Name: BoatLength, Type: TypeInteger},
			},
			PrimaryKey: []string{BoatID},
		},
		{
			Name: ReservesTable,
			Columns: []Column{
				{Name: ReserveSailor, Type: TypeInteger, NotNull: true},
				{Name: ReserveBoat, Type: TypeInteger, NotNull: true},
				{Name: ReserveDay, Type: TypeDateTime, NotNull: true},
			},
			PrimaryKey: []string{ReserveSailor, ReserveBoat, ReserveDay},
			ForeignKeys: []ForeignKey{
				{Column: ReserveSailor, RefTable: SailorsTable, RefColumn: SailorID},
				{Column: ReserveBoat, RefTable: BoatsTable, RefColumn: BoatID, OnDeleteCascade: true},
			},
		},
	}}
}

// Table returns the named table.
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// Columns returns the column names of a table in declaration order.
func (s *Schema) Columns(table string) ([]string, bool) {
	t, ok := s.Table(table)
	if !ok {
		return nil, false
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names, true
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Validate checks the declarations for structural errors.
func (s *Schema) Validate() error {
	if len(s.Tables) == 0 {
		return fmt.Errorf("schema declares no tables")
	}

	seen := make(map[string]*Table, len(s.Tables))
	for i := range s.Tables {
		t := &s.Tables[i]
		if err := validateTable(t, seen); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
		seen[t.Name] = t
	}
	return nil
}

func validateTable(t *Table, declared map[string]*Table) error {
	if !validIdentifier.MatchString(t.Name) {
		return fmt.Errorf("invalid table name")
	}
	if _, dup := declared[t.Name]; dup {
		return fmt.Errorf("declared twice")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("no columns")
	}

	cols := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if !validIdentifier.MatchString(c.Name) {
			return fmt.Errorf("invalid column name %q", c.Name)
		}
		if cols[c.Name] {
			return fmt.Errorf("column %q declared twice", c.Name)
		}
		switch c.Type {
		case TypeInteger, TypeText, TypeReal, TypeDateTime:
		default:
			return fmt.Errorf("column %q: unknown type %q", c.Name, c.Type)
		}
		cols[c.Name] = true
	}

	if len(t.PrimaryKey) == 0 {
		return fmt.Errorf("no primary key")
	}
	for _, pk := range t.PrimaryKey {
		if !cols[pk] {
			return fmt.Errorf("primary key column %q not declared", pk)
		}
	}

	for _, fk := range t.ForeignKeys {
		if !cols[fk.Column] {
			return fmt.Errorf("foreign key column %q not declared", fk.Column)
		}
		ref, ok := declared[fk.RefTable]
		if !ok {
			return fmt.Errorf("foreign key %q references unknown or later table %q", fk.Column, fk.RefTable)
		}
		if !ref.HasColumn(fk.RefColumn) {
			return fmt.Errorf("foreign key %q references unknown column %s.%s", fk.Column, fk.RefTable, fk.RefColumn)
		}
	}
	return nil
}
