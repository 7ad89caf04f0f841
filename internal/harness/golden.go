package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a report as stable text for golden comparison: the run
// header, every trace event, every check result and the totals.
// Fingerprints are left out; they are covered by the resultset tests.
func Snapshot(r *Report) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run: %s\n", r.RunID)
	fmt.Fprintf(&sb, "dataset: %s\n", r.Dataset)

	for _, ev := range r.Trace {
		fmt.Fprintf(&sb, "[%d] %s %s rows=%d: %s", ev.Seq, ev.Check, ev.Kind, ev.Rows, ev.SQL)
		if len(ev.Params) > 0 {
			fmt.Fprintf(&sb, " params=%v", ev.Params)
		}
		if ev.Error != "" {
			fmt.Fprintf(&sb, " error=%s", ev.Error)
		}
		sb.WriteByte('\n')
	}

	for _, res := range r.Results {
		fmt.Fprintf(&sb, "%d %s: %s rows=%d", res.ID, res.Name, res.Status, res.Rows)
		if res.Mismatch != nil {
			fmt.Fprintf(&sb, " (%s)", res.Mismatch.Reason)
		}
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "total=%d passed=%d failed=%d errored=%d\n", r.Total, r.Passed, r.Failed, r.Errored)
	return []byte(sb.String())
}

// AssertGolden compares the report snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, r *Report) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(r))
}
