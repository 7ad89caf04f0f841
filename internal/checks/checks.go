// Package checks holds the eight query-equivalence checks.
//
// Each check answers one relational question twice: once as a structured
// query built with queryir and compiled by querysql, once as a literal SQL
// statement. Verify runs both against the same data and compares the
// result sets row by row, in order.
//
// Both sides of every check impose an explicit ORDER BY (or produce a
// single aggregate row), so the comparison never depends on the order a
// backend happens to return rows in.
package checks

import (
	"fmt"
	"path"

	q "github.com/roach88/sailors/internal/queryir"
	"github.com/roach88/sailors/internal/schema"
)

// Check pairs a structured query with literal SQL answering the same question.
type Check struct {
	// ID is the 1-based position of the check.
	ID int

	// Name is the stable identifier used by filters and golden files.
	Name string

	// Description states the question in plain words.
	Description string

	// Build constructs the structured query. It is called on every run
	// and returns a fresh tree.
	Build func() (q.Query, error)

	// Literal is executed verbatim with no parameters.
	Literal string
}

var all = []Check{
	{
		ID:          1,
		Name:        "boat_reservation_counts",
		Description: "Reservation count, id and name of every reserved boat",
		Build:       buildBoatReservationCounts,
		Literal: "SELECT COUNT(b.bid), b.bid, b.bname FROM boats AS b, reserves AS r " +
			"WHERE r.bid = b.bid GROUP BY b.bid, b.bname ORDER BY b.bid",
	},
	{
		ID:          2,
		Name:        "reserved_all_red_boats",
		Description: "Sailors who reserved every red boat",
		Build:       buildReservedAllRedBoats,
		Literal: "SELECT s.sname, s.sid FROM sailors AS s, " +
			"(SELECT r.sid, COUNT(DISTINCT b.bid) AS r_boats FROM reserves AS r, boats AS b " +
			"WHERE b.bid = r.bid AND b.color = 'red' GROUP BY r.sid) AS t " +
			"WHERE t.sid = s.sid AND t.r_boats = (SELECT COUNT(*) FROM boats AS b WHERE b.color = 'red') " +
			"ORDER BY s.sid",
	},
	{
		ID:          3,
		Name:        "only_red_boats",
		Description: "Sailors who reserved red boats and no other color",
		Build:       buildOnlyRedBoats,
		Literal: "SELECT DISTINCT s.sname, s.sid FROM sailors AS s, " +
			"(SELECT s.sid FROM sailors AS s, reserves AS r, boats AS b " +
			"WHERE s.sid = r.sid AND b.bid = r.bid AND b.color = 'red') AS red_sailors " +
			"WHERE red_sailors.sid = s.sid AND red_sailors.sid NOT IN " +
			"(SELECT r.sid FROM reserves AS r, boats AS b WHERE b.bid = r.bid AND b.color <> 'red') " +
			"ORDER BY s.sid",
	},
	{
		ID:          4,
		Name:        "most_reserved_boat",
		Description: "The boat with the most reservations and its count",
		Build:       buildMostReservedBoat,
		Literal: "SELECT MAX(r.count_tot), r.bid FROM " +
			"(SELECT s.bid, COUNT(s.bid) AS count_tot FROM reserves AS s GROUP BY s.bid) AS r " +
			"GROUP BY r.bid ORDER BY MAX(r.count_tot) DESC, r.bid LIMIT 1",
	},
	{
		ID:          5,
		Name:        "never_reserved_red",
		Description: "Sailors who never reserved a red boat",
		Build:       buildNeverReservedRed,
		Literal: "SELECT s.sid, s.sname FROM sailors AS s WHERE s.sid NOT IN " +
			"(SELECT r.sid FROM reserves AS r, boats AS b WHERE b.bid = r.bid AND b.color = 'red') " +
			"ORDER BY s.sid",
	},
	{
		ID:          6,
		Name:        "average_age_rating_10",
		Description: "Average age of sailors rated 10",
		Build:       buildAverageAgeRating10,
		Literal:     "SELECT AVG(age) FROM sailors WHERE rating = 10",
	},
	{
		ID:          7,
		Name:        "youngest_per_rating",
		Description: "Youngest sailors of each rating level",
		Build:       buildYoungestPerRating,
		Literal: "SELECT sailors.sname, sailors.sid FROM sailors, " +
			"(SELECT s.rating, MIN(s.age) AS min_age FROM sailors AS s GROUP BY s.rating) AS sail " +
			"WHERE sailors.rating = sail.rating AND sailors.age = sail.min_age " +
			"ORDER BY sailors.sid",
	},
	{
		ID:          8,
		Name:        "top_sailor_per_boat",
		Description: "For each boat, the sailors who reserved it most often",
		Build:       buildTopSailorPerBoat,
		Literal: "SELECT res.sid, s.sname, res.bid, in_res.max_c FROM sailors AS s, " +
			"(SELECT r_table.bid, MAX(r_table.cnt) AS max_c FROM " +
			"(SELECT sid, bid, COUNT(*) AS cnt FROM reserves GROUP BY sid, bid) AS r_table " +
			"GROUP BY r_table.bid) AS in_res, " +
			"(SELECT sid, bid, COUNT(*) AS cnt FROM reserves GROUP BY sid, bid) AS res " +
			"WHERE res.bid = in_res.bid AND res.cnt = in_res.max_c AND s.sid = res.sid " +
			"ORDER BY res.bid, res.sid",
	},
}

// All returns the checks in order. The slice is a copy.
func All() []Check {
	out := make([]Check, len(all))
	copy(out, all)
	return out
}

// Lookup returns the check with the given name.
func Lookup(name string) (Check, bool) {
	for _, c := range all {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// Filter returns the checks whose names match the glob pattern, in order.
// An empty pattern matches every check.
func Filter(pattern string) ([]Check, error) {
	if pattern == "" {
		return All(), nil
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}
	var out []Check
	for _, c := range all {
		if ok, _ := path.Match(pattern, c.Name); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// build finishes a builder chain, keeping a nil Query on error.
func build(b *q.Builder) (q.Query, error) {
	sel, err := b.Build()
	if err != nil {
		return nil, err
	}
	return sel, nil
}

var red = q.Str("red")

func buildBoatReservationCounts() (q.Query, error) {
	return build(q.From(q.T(schema.BoatsTable, "b")).
		Join(q.T(schema.ReservesTable, "r"),
			q.Eq(q.C("r", schema.ReserveBoat), q.C("b", schema.BoatID))).
		Select(
			q.Count(q.C("b", schema.BoatID)),
			q.C("b", schema.BoatID),
			q.C("b", schema.BoatName),
		).
		GroupBy(q.C("b", schema.BoatID), q.C("b", schema.BoatName)).
		OrderBy(q.Asc(q.C("b", schema.BoatID))))
}

func buildReservedAllRedBoats() (q.Query, error) {
	redBoatsPerSailor, err := build(q.From(q.T(schema.ReservesTable, "r")).
		Join(q.T(schema.BoatsTable, "b"),
			q.Eq(q.C("b", schema.BoatID), q.C("r", schema.ReserveBoat))).
		Where(q.Eq(q.C("b", schema.BoatColor), red)).
		Select(q.C("r", schema.ReserveSailor)).
		SelectAs(q.CountDistinct(q.C("b", schema.BoatID)), "r_boats").
		GroupBy(q.C("r", schema.ReserveSailor)))
	if err != nil {
		return nil, fmt.Errorf("red boats per sailor: %w", err)
	}

	redBoats, err := build(q.From(q.T(schema.BoatsTable, "b")).
		Select(q.CountAll()).
		Where(q.Eq(q.C("b", schema.BoatColor), red)))
	if err != nil {
		return nil, fmt.Errorf("red boat count: %w", err)
	}

	return build(q.From(q.T(schema.SailorsTable, "s")).
		Join(q.D(redBoatsPerSailor, "t"),
			q.Eq(q.C("t", schema.ReserveSailor), q.C("s", schema.SailorID))).
		Where(q.Eq(q.C("t", "r_boats"), q.Scalar(redBoats))).
		Select(q.C("s", schema.SailorName), q.C("s", schema.SailorID)).
		OrderBy(q.Asc(q.C("s", schema.SailorID))))
}

func buildOnlyRedBoats() (q.Query, error) {
	redSailors, err := build(q.From(q.T(schema.SailorsTable, "s")).
		Join(q.T(schema.ReservesTable, "r"),
			q.Eq(q.C("s", schema.SailorID), q.C("r", schema.ReserveSailor))).
		Join(q.T(schema.BoatsTable, "b"),
			q.Eq(q.C("b", schema.BoatID), q.C("r", schema.ReserveBoat))).
		Where(q.Eq(q.C("b", schema.BoatColor), red)).
		Select(q.C("s", schema.SailorID)))
	if err != nil {
		return nil, fmt.Errorf("red sailors: %w", err)
	}

	otherColors, err := build(q.From(q.T(schema.ReservesTable, "r")).
		Join(q.T(schema.BoatsTable, "b"),
			q.Eq(q.C("b", schema.BoatID), q.C("r", schema.ReserveBoat))).
		Where(q.Ne(q.C("b", schema.BoatColor), red)).
		Select(q.C("r", schema.ReserveSailor)))
	if err != nil {
		return nil, fmt.Errorf("non-red sailors: %w", err)
	}

	return build(q.From(q.T(schema.SailorsTable, "s")).
		Join(q.D(redSailors, "red_sailors"),
			q.Eq(q.C("red_sailors", schema.SailorID), q.C("s", schema.SailorID))).
		Where(q.NotIn(q.C("red_sailors", schema.SailorID), otherColors)).
		Distinct().
		Select(q.C("s", schema.SailorName), q.C("s", schema.SailorID)).
		OrderBy(q.Asc(q.C("s", schema.SailorID))))
}

func buildMostReservedBoat() (q.Query, error) {
	totals, err := build(q.From(q.T(schema.ReservesTable, "s")).
		Select(q.C("s", schema.ReserveBoat)).
		SelectAs(q.Count(q.C("s", schema.ReserveBoat)), "count_tot").
		GroupBy(q.C("s", schema.ReserveBoat)))
	if err != nil {
		return nil, fmt.Errorf("reservation totals: %w", err)
	}

	maxTotal := q.Max(q.C("r", "count_tot"))
	return build(q.From(q.D(totals, "r")).
		Select(maxTotal, q.C("r", schema.ReserveBoat)).
		GroupBy(q.C("r", schema.ReserveBoat)).
		OrderBy(q.Desc(maxTotal), q.Asc(q.C("r", schema.ReserveBoat))).
		Limit(1))
}

func buildNeverReservedRed() (q.Query, error) {
	redReservers, err := build(q.From(q.T(schema.ReservesTable, "r")).
		Join(q.T(schema.BoatsTable, "b"),
			q.Eq(q.C("b", schema.BoatID), q.C("r", schema.ReserveBoat))).
		Where(q.Eq(q.C("b", schema.BoatColor), red)).
		Select(q.C("r", schema.ReserveSailor)))
	if err != nil {
		return nil, fmt.Errorf("red reservers: %w", err)
	}

	return build(q.From(q.T(schema.SailorsTable, "s")).
		Where(q.NotIn(q.C("s", schema.SailorID), redReservers)).
		Select(q.C("s", schema.SailorID), q.C("s", schema.SailorName)).
		OrderBy(q.Asc(q.C("s", schema.SailorID))))
}

func buildAverageAgeRating10() (q.Query, error) {
	return build(q.From(q.T(schema.SailorsTable, "")).
		Select(q.Avg(q.C("", schema.SailorAge))).
		Where(q.Eq(q.C("", schema.SailorRating), q.Int(10))))
}

func buildYoungestPerRating() (q.Query, error) {
	minAges, err := build(q.From(q.T(schema.SailorsTable, "s")).
		Select(q.C("s", schema.SailorRating)).
		SelectAs(q.Min(q.C("s", schema.SailorAge)), "min_age").
		GroupBy(q.C("s", schema.SailorRating)))
	if err != nil {
		return nil, fmt.Errorf("minimum age per rating: %w", err)
	}

	const self = schema.SailorsTable
	return build(q.From(q.T(schema.SailorsTable, ""), q.D(minAges, "sail")).
		Where(
			q.Eq(q.C(self, schema.SailorRating), q.C("sail", schema.SailorRating)),
			q.Eq(q.C(self, schema.SailorAge), q.C("sail", "min_age")),
		).
		Select(q.C(self, schema.SailorName), q.C(self, schema.SailorID)).
		OrderBy(q.Asc(q.C(self, schema.SailorID))))
}

func buildTopSailorPerBoat() (q.Query, error) {
	// Reservations per (sailor, boat) pair. Used twice: once to find each
	// boat's maximum, once to find who reached it.
	pairCounts, err := build(q.From(q.T(schema.ReservesTable, "")).
		Select(q.C("", schema.ReserveSailor), q.C("", schema.ReserveBoat)).
		SelectAs(q.CountAll(), "cnt").
		GroupBy(q.C("", schema.ReserveSailor), q.C("", schema.ReserveBoat)))
	if err != nil {
		return nil, fmt.Errorf("pair counts: %w", err)
	}

	maxPerBoat, err := build(q.From(q.D(pairCounts, "r_table")).
		Select(q.C("r_table", schema.ReserveBoat)).
		SelectAs(q.Max(q.C("r_table", "cnt")), "max_c").
		GroupBy(q.C("r_table", schema.ReserveBoat)))
	if err != nil {
		return nil, fmt.Errorf("max per boat: %w", err)
	}

	return build(q.From(
		q.T(schema.SailorsTable, "s"),
		q.D(maxPerBoat, "in_res"),
		q.D(pairCounts, "res"),
	).
		Where(
			q.Eq(q.C("res", schema.ReserveBoat), q.C("in_res", schema.ReserveBoat)),
			q.Eq(q.C("res", "cnt"), q.C("in_res", "max_c")),
			q.Eq(q.C("s", schema.SailorID), q.C("res", schema.ReserveSailor)),
		).
		Select(
			q.C("res", schema.ReserveSailor),
			q.C("s", schema.SailorName),
			q.C("res", schema.ReserveBoat),
			q.C("in_res", "max_c"),
		).
		OrderBy(q.Asc(q.C("res", schema.ReserveBoat)), q.Asc(q.C("res", schema.ReserveSailor))))
}
