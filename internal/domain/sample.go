package domain

import "math"

// sampleGridSize is the fixed per-axis cell count used for spatial thinning.
const sampleGridSize = 50

// SampleSpatial reduces an unordered point set to at most maxCount points
// while preserving geographic spread. Inputs at or under the cap are returned
// unchanged. Otherwise the points' bounding box is partitioned into a
// 50x50 grid and only the first point landing in each cell is kept; if that
// still exceeds the cap, a fixed-stride pass trims to exactly maxCount.
//
// Both stages keep the earliest-encountered candidates, so repeated calls
// with the same input produce the same output.
func SampleSpatial(points []Point, maxCount int) []Point {
	if maxCount <= 0 || len(points) <= maxCount {
		return points
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	cellLat := (maxLat - minLat) / sampleGridSize
	cellLon := (maxLon - minLon) / sampleGridSize
	if cellLat == 0 && cellLon == 0 {
		// Degenerate box: every point shares one coordinate; stride only.
		return stridePoints(points, maxCount)
	}

	seen := make(map[int]bool, sampleGridSize*sampleGridSize)
	kept := make([]Point, 0, sampleGridSize*sampleGridSize)
	for _, p := range points {
		cell := gridIndex(p.Lat, minLat, cellLat)*sampleGridSize + gridIndex(p.Lon, minLon, cellLon)
		if seen[cell] {
			continue
		}
		seen[cell] = true
		kept = append(kept, p)
	}

	if len(kept) > maxCount {
		return stridePoints(kept, maxCount)
	}
	return kept
}

// gridIndex computes a cell index along one axis, clamped so points exactly
// on the upper bound stay inside the last cell.
func gridIndex(coord, min, cellSize float64) int {
	if cellSize == 0 {
		return 0
	}
	i := int(math.Floor((coord - min) / cellSize))
	if i < 0 {
		return 0
	}
	if i >= sampleGridSize {
		return sampleGridSize - 1
	}
	return i
}

// stridePoints keeps every Nth element in original relative order, reducing
// to at most target elements.
func stridePoints(points []Point, target int) []Point {
	if len(points) <= target {
		return points
	}
	stride := (len(points) + target - 1) / target
	out := make([]Point, 0, target)
	for i := 0; i < len(points) && len(out) < target; i += stride {
		out = append(out, points[i])
	}
	return out
}

// SampleVectors applies the same two-stage reduction to enriched points.
func SampleVectors(points []PollutantPoint, maxCount int) []PollutantPoint {
	if maxCount <= 0 || len(points) <= maxCount {
		return points
	}
	flat := make([]Point, len(points))
	index := make(map[Point]int, len(points))
	for i, p := range points {
		flat[i] = p.Point
		if _, dup := index[p.Point]; !dup {
			index[p.Point] = i
		}
	}
	sampled := SampleSpatial(flat, maxCount)
	out := make([]PollutantPoint, 0, len(sampled))
	for _, p := range sampled {
		out = append(out, points[index[p]])
	}
	return out
}
