package dataset

import (
	_ "embed"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed dataset.cue
var shapeSource string

// A CUE context is not safe for concurrent use, so validation holds shapeMu.
var (
	shapeOnce   sync.Once
	shapeMu     sync.Mutex
	shapeCtx    *cue.Context
	shapeSchema cue.Value
)

// loadShape compiles the embedded schema once.
func loadShape() (*cue.Context, cue.Value) {
	shapeOnce.Do(func() {
		shapeCtx = cuecontext.New()
		shapeSchema = shapeCtx.CompileString(shapeSource, cue.Filename("dataset.cue"))
	})
	return shapeCtx, shapeSchema
}

// validateShape unifies the dataset with the CUE schema and requires a
// concrete result. Every violation is reported, not just the first.
func validateShape(ds *Dataset) error {
	shapeMu.Lock()
	defer shapeMu.Unlock()

	ctx, sch := loadShape()
	if err := sch.Err(); err != nil {
		return &ValidationError{Problems: []string{"dataset schema: " + err.Error()}}
	}

	data := ctx.Encode(shapeDocument(ds))
	if err := data.Err(); err != nil {
		return &ValidationError{Problems: cueProblems(err)}
	}

	unified := sch.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Problems: cueProblems(err)}
	}
	return nil
}

// shapeDocument converts the dataset to plain maps keyed by column name,
// with days as RFC 3339 strings, which is what the schema describes.
func shapeDocument(ds *Dataset) map[string]any {
	sailors := make([]any, len(ds.Sailors))
	for i, s := range ds.Sailors {
		sailors[i] = map[string]any{
			"sid":    s.ID,
			"sname":  s.Name,
			"rating": s.Rating,
			"age":    s.Age,
		}
	}

	boats := make([]any, len(ds.Boats))
	for i, b := range ds.Boats {
		boats[i] = map[string]any{
			"bid":    b.ID,
			"bname":  b.Name,
			"color":  b.Color,
			"length": b.Length,
		}
	}

	reserves := make([]any, len(ds.Reserves))
	for i, r := range ds.Reserves {
		reserves[i] = map[string]any{
			"sid": r.SailorID,
			"bid": r.BoatID,
			"day": r.Day.UTC().Format(time.RFC3339),
		}
	}

	return map[string]any{
		"name":     ds.Name,
		"sailors":  sailors,
		"boats":    boats,
		"reserves": reserves,
	}
}

// cueProblems flattens a CUE error list into one message per violation.
func cueProblems(err error) []string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(errs))
	for _, e := range errs {
		problems = append(problems, e.Error())
	}
	return problems
}
