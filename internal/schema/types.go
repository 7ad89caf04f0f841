package schema

import "time"

// Sailor is a row of the sailors table.
type Sailor struct {
	ID     int64   `db:"sid" yaml:"sid" json:"sid"`
	Name   string  `db:"sname" yaml:"sname" json:"sname"`
	Rating int64   `db:"rating" yaml:"rating" json:"rating"`
	Age    float64 `db:"age" yaml:"age" json:"age"`
}

// Boat is a row of the boats table.
// Deleting a boat removes its reservations (ON DELETE CASCADE).
type Boat struct {
	ID     int64  `db:"bid" yaml:"bid" json:"bid"`
	Name   string `db:"bname" yaml:"bname" json:"bname"`
	Color  string `db:"color" yaml:"color" json:"color"`
	Length int64  `db:"length" yaml:"length" json:"length"`
}

// Reservation is a row of the reserves table.
// The primary key is (sid, bid, day); sid and bid reference sailors and boats.
type Reservation struct {
	SailorID int64     `db:"sid" yaml:"sid" json:"sid"`
	BoatID   int64     `db:"bid" yaml:"bid" json:"bid"`
	Day      time.Time `db:"day" yaml:"day" json:"day"`
}
