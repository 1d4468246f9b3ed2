package domain

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names recognized as the coordinate pair, compared case- and
// whitespace-insensitively.
var (
	latColumns = []string{"lat", "latitude"}
	lonColumns = []string{"lon", "lng", "longitude"}
)

// DecodeDayFile parses one day's delimited archive file into Records. The
// first row is the header; every following row produces a Record from the
// columns it has, so short or ragged rows are padded rather than rejected.
// Each Record is stamped with the given date and its derived month.
//
// Cells are coerced to numbers when they parse as one and kept as text
// otherwise; the resolver's numeric filtering relies on that distinction.
func DecodeDayFile(data []byte, date string) ([]Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Header names are kept verbatim (whitespace, unit suffixes and all);
	// normalizing them is the resolver's job. Only fully empty names, the
	// artifact of a trailing comma, are dropped.
	columns := make([]string, 0, len(header))
	for _, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		columns = append(columns, h)
	}

	month := MonthOf(date)
	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A row the CSV reader cannot tokenize at all is skipped;
			// everything tokenizable becomes a Record.
			continue
		}
		rec := Record{
			Date:    date,
			Month:   month,
			Columns: columns,
			Fields:  make(map[string]Value, len(columns)),
		}
		for i, col := range header {
			if i >= len(row) {
				break
			}
			if strings.TrimSpace(col) == "" {
				continue
			}
			rec.Fields[col] = coerceCell(row[i])
		}
		if v, ok := firstNumeric(rec, latColumns); ok {
			rec.Lat = v
		}
		if v, ok := firstNumeric(rec, lonColumns); ok {
			rec.Lon = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func coerceCell(cell string) Value {
	s := strings.TrimSpace(cell)
	if s == "" {
		return TextValue("")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberValue(f)
	}
	return TextValue(s)
}

func firstNumeric(rec Record, names []string) (float64, bool) {
	for _, col := range rec.Columns {
		norm := strings.ToLower(strings.TrimSpace(col))
		for _, name := range names {
			if norm != name {
				continue
			}
			if v, ok := rec.Fields[col]; ok {
				if f, ok := v.Float(); ok {
					return f, true
				}
			}
		}
	}
	return 0, false
}
