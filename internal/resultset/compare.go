package resultset

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"
)

// DefaultFloatTolerance is the relative tolerance used for float cells.
const DefaultFloatTolerance = 1e-9

// maxReportedDiffs caps the row diffs rendered by MismatchError.Error.
const maxReportedDiffs = 5

// Options controls how result sets are compared.
type Options struct {
	// FloatTolerance is the relative tolerance for numeric cells when at
	// least one side is a float. 0 requires exact equality.
	FloatTolerance float64

	// CompareColumnNames also requires identical column names. Off by
	// default: two queries answering the same question may name an
	// aggregate column differently.
	CompareColumnNames bool
}

// DefaultOptions returns the comparison options used by the checks.
func DefaultOptions() Options {
	return Options{FloatTolerance: DefaultFloatTolerance}
}

// RowDiff is one differing position. Want or Got is nil when that side
// has no row at Index.
type RowDiff struct {
	Index int `json:"index"`
	Want  Row `json:"want"`
	Got   Row `json:"got"`
}

// MismatchError describes how two result sets differ.
type MismatchError struct {
	Reason   string    `json:"reason"`
	WantRows int       `json:"want_rows"`
	GotRows  int       `json:"got_rows"`
	Diffs    []RowDiff `json:"diffs,omitempty"`
}

func (e *MismatchError) Error() string {
	var sb strings.Builder
	sb.WriteString("result sets differ: ")
	sb.WriteString(e.Reason)
	for i, d := range e.Diffs {
		if i == maxReportedDiffs {
			fmt.Fprintf(&sb, "\n  ... and %d more", len(e.Diffs)-maxReportedDiffs)
			break
		}
		fmt.Fprintf(&sb, "\n  row %d: want %s, got %s", d.Index, FormatRow(d.Want), FormatRow(d.Got))
	}
	return sb.String()
}

// Compare checks that got equals want row by row, in order.
// Returns nil when they match.
func Compare(want, got *ResultSet, opts Options) *MismatchError {
	if want == nil {
		want = &ResultSet{}
	}
	if got == nil {
		got = &ResultSet{}
	}

	mismatch := &MismatchError{WantRows: len(want.Rows), GotRows: len(got.Rows)}

	if len(want.Columns) != len(got.Columns) {
		mismatch.Reason = fmt.Sprintf("column count differs: want %d, got %d", len(want.Columns), len(got.Columns))
		return mismatch
	}
	if opts.CompareColumnNames && !slices.Equal(want.Columns, got.Columns) {
		mismatch.Reason = fmt.Sprintf("column names differ: want [%s], got [%s]",
			strings.Join(want.Columns, ", "), strings.Join(got.Columns, ", "))
		return mismatch
	}

	n := max(len(want.Rows), len(got.Rows))
	for i := 0; i < n; i++ {
		var w, g Row
		if i < len(want.Rows) {
			w = want.Rows[i]
		}
		if i < len(got.Rows) {
			g = got.Rows[i]
		}
		if w != nil && g != nil && RowsEqual(w, g, opts.FloatTolerance) {
			continue
		}
		mismatch.Diffs = append(mismatch.Diffs, RowDiff{Index: i, Want: w, Got: g})
	}

	switch {
	case len(want.Rows) != len(got.Rows):
		mismatch.Reason = fmt.Sprintf("row count differs: want %d, got %d", len(want.Rows), len(got.Rows))
	case len(mismatch.Diffs) > 0:
		mismatch.Reason = fmt.Sprintf("%d of %d rows differ", len(mismatch.Diffs), len(want.Rows))
	default:
		return nil
	}
	return mismatch
}

// RowsEqual compares two rows cell by cell.
func RowsEqual(a, b Row, tolerance float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ValuesEqual(a[i], b[i], tolerance) {
			return false
		}
	}
	return true
}

// ValuesEqual compares two normalised cells. NULL equals NULL. Numbers are
// compared by value across int64 and float64; when either side is a float
// the relative tolerance applies.
func ValuesEqual(a, b any, tolerance float64) bool {
	a, b = Normalize(a), Normalize(b)

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return ai == bi
		}
	}

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && floatsEqual(af, bf, tolerance)
	}

	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func floatsEqual(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= tolerance*scale
}
