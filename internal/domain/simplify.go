package domain

import "math"

// SimplifyMask runs Ramer-Douglas-Peucker over the lon/lat polyline and
// reports which points are kept. A segment whose farthest interior point lies
// within epsilon of the chord collapses to its endpoints; otherwise it is
// split at that point. Distances are in coordinate degrees.
func SimplifyMask(points []Coordinate, epsilon float64) []bool {
	n := len(points)
	mask := make([]bool, n)
	if n == 0 {
		return mask
	}
	mask[0] = true
	mask[n-1] = true

	type segment struct{ start, end int }
	stack := []segment{{0, n - 1}}
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seg.end-seg.start < 2 {
			continue
		}

		farthest, dmax := -1, 0.0
		a, b := points[seg.start], points[seg.end]
		for i := seg.start + 1; i < seg.end; i++ {
			if d := perpendicularDistance(points[i], a, b); d > dmax {
				farthest, dmax = i, d
			}
		}
		if farthest < 0 || dmax <= epsilon {
			continue
		}
		mask[farthest] = true
		stack = append(stack, segment{seg.start, farthest}, segment{farthest, seg.end})
	}
	return mask
}

// Simplify returns the points kept by SimplifyMask.
func Simplify(points []Coordinate, epsilon float64) []Coordinate {
	return applyMask(points, SimplifyMask(points, epsilon))
}

// stridedMask simplifies every stride-th point and spreads each decision over
// its stride window, padding with false to len(points).
func stridedMask(points []Coordinate, epsilon float64, stride int) []bool {
	stride = max(stride, 1)
	strided := make([]Coordinate, 0, len(points)/stride+1)
	for i := 0; i < len(points); i += stride {
		strided = append(strided, points[i])
	}

	full := make([]bool, len(points))
	for i, keep := range SimplifyMask(strided, epsilon) {
		if !keep {
			continue
		}
		for j := i * stride; j < (i+1)*stride && j < len(full); j++ {
			full[j] = true
		}
	}
	return full
}

// perpendicularDistance is the distance from p to the line through a and b,
// or to a when the chord has zero length.
func perpendicularDistance(p, a, b Coordinate) float64 {
	dx, dy := b.Lon-a.Lon, b.Lat-a.Lat
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return math.Hypot(p.Lon-a.Lon, p.Lat-a.Lat)
	}
	return math.Abs(dx*(a.Lat-p.Lat)-dy*(a.Lon-p.Lon)) / norm
}

func applyMask(points []Coordinate, mask []bool) []Coordinate {
	out := make([]Coordinate, 0, len(points))
	for i, keep := range mask {
		if keep {
			out = append(out, points[i])
		}
	}
	return out
}
