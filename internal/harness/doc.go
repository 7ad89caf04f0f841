// Package harness runs query-equivalence checks against one store and
// reports the outcome.
//
// Checks run sequentially, in the order given. A mismatch in one check
// does not stop the others, and neither does a hard error (a query that
// fails to build, compile or execute): the error is recorded against that
// check and the run continues.
//
// # Report
//
// Every run gets a run ID (UUIDv7 by default, time-sortable) and produces
// a Report with one CheckResult per check plus a trace of every statement
// sent to the backend:
//
//	report, err := harness.New(st, harness.WithDataset("classic")).Run(ctx, checks.All())
//	if err != nil {
//	    return err // context cancelled
//	}
//	if !report.OK() {
//	    for _, r := range report.Results {
//	        fmt.Println(r.Name, r.Status, r.Error)
//	    }
//	}
//
// # Deterministic Testing
//
// Tests inject a fixed run ID (testutil.FixedRunIDGenerator). Trace events
// are stamped from a logical clock, never wall time, so two runs of the
// same checks over the same data produce identical reports.
package harness
