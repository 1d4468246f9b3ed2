package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrVariableNotFound reports that no stored column matched a logical
// variable under any strategy. Callers log it and render an empty state;
// it never aborts the pipeline.
var ErrVariableNotFound = errors.New("variable not found in any column")

// unitSuffixRe strips a parenthesized unit annotation from a column name,
// e.g. "PM2.5(微克每立方米)" -> "PM2.5". The archive's headers carry these
// inconsistently across months.
var unitSuffixRe = regexp.MustCompile(`\([^)]*\)`)

// matchStrategy is one column-name matching rule. Strategies are evaluated
// strictly in the order listed; the first column to satisfy one wins.
type matchStrategy struct {
	name  string
	match func(column, variable string) bool
}

var strategies = []matchStrategy{
	{"exact", func(col, v string) bool {
		return col == v
	}},
	{"whitespace", func(col, v string) bool {
		return strings.TrimSpace(col) == v
	}},
	{"unit-suffix", func(col, v string) bool {
		return strings.TrimSpace(unitSuffixRe.ReplaceAllString(col, "")) == v
	}},
	{"substring", func(col, v string) bool {
		return strings.Contains(col, v)
	}},
}

// Companion variables attached to enriched pollutant extraction.
const (
	VarTemp = "TEMP"
	VarRH   = "RH"
	VarU    = "U"
	VarV    = "V"
)

// Resolver maps logical variable names onto the columns actually present in a
// record set. The alias table extends each logical name with alternate stored
// spellings (loaded from configuration); matching itself runs the fixed
// strategy list over every candidate name.
type Resolver struct {
	aliases map[string][]string
}

// NewResolver builds a Resolver. aliases may be nil.
func NewResolver(aliases map[string][]string) *Resolver {
	return &Resolver{aliases: aliases}
}

// ResolveColumn finds the stored column for a logical variable, scanning the
// record's columns in stored order per strategy.
func (r *Resolver) ResolveColumn(rec Record, variable string) (string, bool) {
	candidates := append([]string{variable}, r.aliases[variable]...)
	for _, s := range strategies {
		for _, cand := range candidates {
			for _, col := range rec.Columns {
				if s.match(col, cand) {
					return col, true
				}
			}
		}
	}
	return "", false
}

// Extract projects records onto one logical variable. Records whose resolved
// cell is missing or non-numeric are dropped; the result never contains a
// non-finite value. When no record's columns resolve the variable at all,
// it returns an empty slice and ErrVariableNotFound.
func (r *Resolver) Extract(records []Record, variable string) ([]Point, error) {
	points := make([]Point, 0, len(records))
	resolvedAny := false
	var cache columnCache
	for _, rec := range records {
		// Day files can carry different headers across months; see
		// columnCache for why resolution is redone per header set.
		col, colOK := cache.resolve(r, rec, variable)
		if !colOK {
			continue
		}
		resolvedAny = true
		v, ok := rec.Fields[col]
		if !ok {
			continue
		}
		f, ok := v.Float()
		if !ok {
			continue
		}
		points = append(points, Point{Lat: rec.Lat, Lon: rec.Lon, Value: f, Date: rec.Date})
	}
	if !resolvedAny && len(records) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrVariableNotFound, variable)
	}
	return points, nil
}

// ExtractPollutant projects records onto one pollutant and attaches the
// meteorological companions (TEMP, RH, U, V) resolved from the same row.
// Only the pollutant value is mandatory; absent companions leave their
// Has* flags false.
func (r *Resolver) ExtractPollutant(records []Record, pollutant string) ([]PollutantPoint, error) {
	enriched := make([]PollutantPoint, 0, len(records))
	resolvedAny := false
	var cache columnCache
	for _, rec := range records {
		col, colOK := cache.resolve(r, rec, pollutant)
		if !colOK {
			continue
		}
		resolvedAny = true
		cell, ok := rec.Fields[col]
		if !ok {
			continue
		}
		f, ok := cell.Float()
		if !ok {
			continue
		}
		pp := PollutantPoint{Point: Point{Lat: rec.Lat, Lon: rec.Lon, Value: f, Date: rec.Date}}
		if t, ok := r.fieldValue(rec, VarTemp); ok {
			pp.Temp, pp.HasTemp = t, true
		}
		if h, ok := r.fieldValue(rec, VarRH); ok {
			pp.RH, pp.HasRH = h, true
		}
		u, uOK := r.fieldValue(rec, VarU)
		v, vOK := r.fieldValue(rec, VarV)
		if uOK && vOK {
			pp.U, pp.V, pp.HasWind = u, v, true
		}
		enriched = append(enriched, pp)
	}
	if !resolvedAny && len(records) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrVariableNotFound, pollutant)
	}
	return enriched, nil
}

// fieldValue resolves and reads one numeric field from a single record.
func (r *Resolver) fieldValue(rec Record, variable string) (float64, bool) {
	col, ok := r.ResolveColumn(rec, variable)
	if !ok {
		return 0, false
	}
	v, ok := rec.Fields[col]
	if !ok {
		return 0, false
	}
	return v.Float()
}

// columnCache memoizes one ResolveColumn result per header set. Records
// decoded from the same day file share their Columns slice, so identity of
// the backing array is enough to tell headers apart; any other slice forces
// a fresh resolution. Reusing a resolution across header sets would let a
// low-priority match from one day shadow a higher-priority column that only
// a later day carries.
type columnCache struct {
	cols  []string
	col   string
	colOK bool
}

func (c *columnCache) resolve(r *Resolver, rec Record, variable string) (string, bool) {
	if !sameColumns(c.cols, rec.Columns) {
		c.cols = rec.Columns
		c.col, c.colOK = r.ResolveColumn(rec, variable)
	}
	return c.col, c.colOK
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
