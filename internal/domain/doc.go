// Package domain models daily air-quality and meteorological grid
// measurements and the pure transformations the query API is built from.
//
// # Data Source
//
// Measurements arrive as one delimited text file per calendar day, stored in
// a path-addressed HTTP archive under
//
//	<root>/<YYYYMM>/<prefix>-<YYYYMMDD>00.csv
//
// The first row is a header; every later row is one observation at a
// latitude/longitude coordinate. Values are comma-separated and numeric
// columns are detected by successful numeric parse, so a cell is either a
// finite number or raw text (the upstream files use "NA" and empty cells for
// missing measurements).
//
// # Column Conventions
//
// Header names are inconsistent across months. The same logical variable can
// appear bare ("PM2.5"), with surrounding whitespace (" PM2.5 "), or with a
// parenthesized unit annotation, frequently in Chinese, e.g.
// "PM2.5(微克每立方米)". Headers sometimes end with a trailing comma, which
// shows up as an empty final column name. [Resolver] tolerates all of these
// via an ordered strategy list: exact match, whitespace-trimmed match,
// unit-suffix-stripped match, then substring match over the stored column
// order. The first strategy to hit a column wins.
//
// Recognized logical variables:
//
//	Pollutants:  PM2.5, PM10, SO2, NO2, CO, O3
//	Companions:  TEMP (temperature), RH (relative humidity),
//	             U, V (wind vector components)
//
// # Missing Values
//
// Cells that are empty, non-numeric, or NaN are dropped at extraction time,
// never substituted: a downstream statistic must not see a placeholder zero
// for missing data. [Point] therefore always carries a finite value.
package domain
