package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sailors/internal/checks"
	"github.com/roach88/sailors/internal/resultset"
)

// Harness runs checks against one runner, usually a *store.Store.
type Harness struct {
	runner  checks.Runner
	ids     IDGenerator
	opts    resultset.Options
	dataset string
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithIDGenerator sets the run ID source. The default is UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *Harness) {
		if g != nil {
			h.ids = g
		}
	}
}

// WithCompareOptions sets how result sets are compared.
// The default is resultset.DefaultOptions().
func WithCompareOptions(o resultset.Options) Option {
	return func(h *Harness) {
		h.opts = o
	}
}

// WithDataset names the data the run is against, for the report.
func WithDataset(name string) Option {
	return func(h *Harness) {
		h.dataset = name
	}
}

// New creates a harness over r.
func New(r checks.Runner, opts ...Option) *Harness {
	h := &Harness{
		runner: r,
		ids:    UUIDv7Generator{},
		opts:   resultset.DefaultOptions(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes cs sequentially and returns the report.
//
// Mismatches and per-check errors are recorded in the report and do not
// stop the run. Run only returns an error when ctx is done before every
// check has started; the partial report is returned with it.
func (h *Harness) Run(ctx context.Context, cs []checks.Check) (*Report, error) {
	report := NewReport(h.ids.Generate(), h.dataset)
	clk := &clock{}

	h.logger.Info("run started",
		"run_id", report.RunID,
		"dataset", report.Dataset,
		"checks", len(cs),
	)

	for _, c := range cs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run %s interrupted: %w", report.RunID, err)
		}
		report.AddResult(h.runCheck(ctx, c, report, clk))
	}

	h.logger.Info("run finished",
		"run_id", report.RunID,
		"passed", report.Passed,
		"failed", report.Failed,
		"errored", report.Errored,
		"statements", clk.Current(),
	)
	return report, nil
}

func (h *Harness) runCheck(ctx context.Context, c checks.Check, report *Report, clk *clock) CheckResult {
	res := CheckResult{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}

	tr := &tracer{inner: h.runner, check: c.Name, report: report, clock: clk}
	out, err := checks.Verify(ctx, tr, c, h.opts)
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		res.StructuredSQL = tr.structuredSQL
		res.Params = tr.structuredParams
		h.logger.Error("check errored", "check", c.Name, "error", err)
		return res
	}

	res.StructuredSQL = out.StructuredSQL
	res.Params = out.Params
	res.Rows = out.Structured.Len()

	fp, err := resultset.Fingerprint(out.Structured)
	if err != nil {
		res.Status = StatusError
		res.Error = fmt.Sprintf("check %s: fingerprint: %v", c.Name, err)
		h.logger.Error("check errored", "check", c.Name, "error", err)
		return res
	}
	res.Fingerprint = fp

	if out.Mismatch != nil {
		res.Status = StatusFail
		res.Mismatch = out.Mismatch
		res.Error = out.Err().Error()
		h.logger.Warn("check failed",
			"check", c.Name,
			"reason", out.Mismatch.Reason,
			"want_rows", out.Mismatch.WantRows,
			"got_rows", out.Mismatch.GotRows,
		)
		return res
	}

	res.Status = StatusPass
	h.logger.Debug("check passed", "check", c.Name, "rows", res.Rows, "fingerprint", fp)
	return res
}

// tracer forwards statements to the runner and records each one in the
// report. checks.Verify sends the structured query first, then the literal.
type tracer struct {
	inner  checks.Runner
	check  string
	report *Report
	clock  *clock
	calls  int

	structuredSQL    string
	structuredParams []any
}

func (t *tracer) Query(ctx context.Context, query string, args ...any) (*resultset.ResultSet, error) {
	kind := KindLiteral
	if t.calls == 0 {
		kind = KindStructured
		t.structuredSQL = query
		t.structuredParams = args
	}
	t.calls++

	ev := TraceEvent{
		Seq:    t.clock.Next(),
		Check:  t.check,
		Kind:   kind,
		SQL:    query,
		Params: args,
	}
	rs, err := t.inner.Query(ctx, query, args...)
	if err != nil {
		ev.Error = err.Error()
	} else {
		ev.Rows = rs.Len()
	}
	t.report.AddTrace(ev)
	return rs, err
}
