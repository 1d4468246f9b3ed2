package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar key format used throughout the archive:
// eight digits, e.g. "20130105".
const DateLayout = "20060102"

// ValueKind discriminates the two cell representations a day file can hold.
type ValueKind int

const (
	// Text is a cell that did not parse as a number ("NA", station names).
	Text ValueKind = iota
	// Number is a cell that parsed as a finite float64.
	Number
)

// Value is one cell of a decoded day file: either a finite number or the raw
// text the archive stored. Keeping the discrimination explicit lets downstream
// filtering drop non-numeric cells without sentinel substitution.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

// NumberValue wraps a finite float64. Non-finite inputs are stored as text so
// a NaN can never masquerade as a measurement.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return TextValue(fmt.Sprintf("%v", f))
	}
	return Value{Kind: Number, Num: f}
}

// TextValue wraps a raw string cell.
func TextValue(s string) Value {
	return Value{Kind: Text, Str: s}
}

// Float returns the numeric value and whether the cell holds one.
func (v Value) Float() (float64, bool) {
	if v.Kind != Number {
		return 0, false
	}
	return v.Num, true
}

// Record is one parsed observation row: a coordinate, the archive date it was
// loaded under, and the remaining columns keyed by their stored names.
// Records are immutable once parsed; they are owned by the cache entry that
// produced them and must not be mutated by consumers.
type Record struct {
	Lat     float64
	Lon     float64
	Date    string   // YYYYMMDD, stamped by the loader
	Month   string   // YYYYMM, derived from Date
	Columns []string // header names in stored order, shared across one day's rows
	Fields  map[string]Value
}

// Field looks up a stored column by exact name.
func (r Record) Field(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Point is the projection of a Record onto one logical variable. Every Point
// carries a finite Value; records that fail that are dropped at extraction.
type Point struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

// PollutantPoint is the enriched projection used for wind-field rendering and
// cross-variable correlation: the pollutant value plus its meteorological
// companions from the same row. Companion fields that did not resolve to a
// number are NaN-free zeros with Has* flags left false.
type PollutantPoint struct {
	Point
	Temp    float64 `json:"temp,omitempty"`
	RH      float64 `json:"rh,omitempty"`
	U       float64 `json:"u,omitempty"`
	V       float64 `json:"v,omitempty"`
	HasTemp bool    `json:"-"`
	HasRH   bool    `json:"-"`
	HasWind bool    `json:"-"`
}

// ParseDate validates an eight-digit calendar key.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return t, nil
}

// MonthOf derives the YYYYMM sub-period from a YYYYMMDD key. The input is
// assumed validated; short inputs come back unchanged.
func MonthOf(date string) string {
	if len(date) < 6 {
		return date
	}
	return date[:6]
}

// DatesBack enumerates up to count calendar keys walking backward from start
// (inclusive), stopping early at the earliest bound. An unparseable start or
// bound yields an empty slice.
func DatesBack(start string, count int, earliest string) []string {
	t, err := ParseDate(start)
	if err != nil || count <= 0 {
		return nil
	}
	var low time.Time
	if earliest != "" {
		low, err = ParseDate(earliest)
		if err != nil {
			return nil
		}
	}
	dates := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if earliest != "" && t.Before(low) {
			break
		}
		dates = append(dates, t.Format(DateLayout))
		t = t.AddDate(0, 0, -1)
	}
	return dates
}
