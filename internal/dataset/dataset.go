// Package dataset loads the read-only data the checks run against.
//
// A dataset is a YAML document:
//
//	name: classic
//	sailors:
//	  - {sid: 22, sname: Dustin, rating: 7, age: 45.0}
//	boats:
//	  - {bid: 101, bname: Interlake, color: blue, length: 30}
//	reserves:
//	  - {sid: 22, bid: 101, day: 1998-10-10}
//
// Loading runs three passes: strict YAML decoding (unknown fields are
// rejected), shape validation against an embedded CUE schema (types,
// ranges, required values), and referential validation in Go (duplicate
// keys, reservations pointing at unknown sailors or boats).
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sailors/internal/schema"
)

// Dataset is the full content of the three tables.
type Dataset struct {
	// Name identifies the dataset in logs and reports.
	// Load defaults it to the file name without extension.
	Name string `yaml:"name" json:"name"`

	Sailors  []schema.Sailor      `yaml:"sailors" json:"sailors"`
	Boats    []schema.Boat        `yaml:"boats" json:"boats"`
	Reserves []schema.Reservation `yaml:"reserves" json:"reserves"`
}

// Load reads and validates a dataset file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or fails shape or referential validation.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	ds, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := ds.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes and validates a dataset document.
func Parse(data []byte) (*Dataset, error) {
	ds, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func decode(data []byte) (*Dataset, error) {
	var ds Dataset
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &ds, nil
}

func (ds *Dataset) validate() error {
	if err := validateShape(ds); err != nil {
		return err
	}
	return ds.Validate()
}

// ValidationError lists every problem found in a dataset.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid dataset: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid dataset: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Validate checks keys and references: unique sailor and boat ids, unique
// reservations, every reservation naming an existing sailor and boat.
// Shape checks (types, ranges) are done by the CUE schema during Load/Parse.
func (ds *Dataset) Validate() error {
	var problems []string

	sailors := make(map[int64]bool, len(ds.Sailors))
	for i, s := range ds.Sailors {
		if sailors[s.ID] {
			problems = append(problems, fmt.Sprintf("sailors[%d]: duplicate sid %d", i, s.ID))
		}
		sailors[s.ID] = true
	}

	boats := make(map[int64]bool, len(ds.Boats))
	for i, b := range ds.Boats {
		if boats[b.ID] {
			problems = append(problems, fmt.Sprintf("boats[%d]: duplicate bid %d", i, b.ID))
		}
		boats[b.ID] = true
	}

	type reservationKey struct {
		sid, bid int64
		day      string
	}
	reservations := make(map[reservationKey]bool, len(ds.Reserves))
	for i, r := range ds.Reserves {
		if r.Day.IsZero() {
			problems = append(problems, fmt.Sprintf("reserves[%d]: missing day", i))
		}
		if !sailors[r.SailorID] {
			problems = append(problems, fmt.Sprintf("reserves[%d]: unknown sailor %d", i, r.SailorID))
		}
		if !boats[r.BoatID] {
			problems = append(problems, fmt.Sprintf("reserves[%d]: unknown boat %d", i, r.BoatID))
		}
		key := reservationKey{r.SailorID, r.BoatID, r.Day.UTC().String()}
		if reservations[key] {
			problems = append(problems, fmt.Sprintf("reserves[%d]: duplicate reservation (%d, %d, %s)",
				i, r.SailorID, r.BoatID, r.Day.Format("2006-01-02")))
		}
		reservations[key] = true
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
