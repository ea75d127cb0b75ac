package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return t, nil
}

// TruncateDay drops the clock part of t, keeping its calendar day in UTC
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is a half-open stay [CheckIn, CheckOut). The check-out day itself
// is free for the next guest.
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

type dateRangeWire struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(dateRangeWire{CheckIn: r.CheckIn.Format(DateLayout), CheckOut: r.CheckOut.Format(DateLayout)})
}

func (r *DateRange) UnmarshalJSON(data []byte) error {
	var w dateRangeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	in, err := ParseDate(w.CheckIn)
	if err != nil {
		return err
	}
	out, err := ParseDate(w.CheckOut)
	if err != nil {
		return err
	}
	*r = DateRange{CheckIn: in, CheckOut: out}
	return nil
}

func NewDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: TruncateDay(checkIn), CheckOut: TruncateDay(checkOut)}
}

// Valid reports whether the range spans at least one night
func (r DateRange) Valid() bool {
	return r.CheckOut.After(r.CheckIn)
}

// Overlaps reports whether two stays share at least one night
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// Nights is the number of nights between check-in and check-out
func (r DateRange) Nights() int {
	if !r.Valid() {
		return 0
	}
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}
