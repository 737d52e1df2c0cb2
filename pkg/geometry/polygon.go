package geometry

import "math"

// SignedArea returns the shoelace area of a closed ring.
// Counter-clockwise rings (in a y-up frame) are positive. Self-intersecting
// rings are not repaired.
func SignedArea(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].Cross(points[j])
	}
	return sum / 2
}

// Area returns the absolute shoelace area of a closed ring
func Area(points []Point) float64 {
	return math.Abs(SignedArea(points))
}

// PathLength returns the summed length of consecutive segments
func PathLength(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i-1].Distance(points[i])
	}
	return total
}

// Perimeter returns the length of a closed ring
func Perimeter(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	return PathLength(points) + points[len(points)-1].Distance(points[0])
}

// DistanceToSegment returns the distance from p to the segment a-b
func DistanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	lengthSq := ab.Dot(ab)
	if lengthSq == 0 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / lengthSq
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Mul(t)))
}

// DistanceToPath returns the smallest distance from p to any segment of an open path
func DistanceToPath(p Point, points []Point) float64 {
	switch len(points) {
	case 0:
		return math.Inf(1)
	case 1:
		return p.Distance(points[0])
	}
	best := math.Inf(1)
	for i := 1; i < len(points); i++ {
		best = math.Min(best, DistanceToSegment(p, points[i-1], points[i]))
	}
	return best
}

// DistanceToRing is DistanceToPath including the closing segment
func DistanceToRing(p Point, points []Point) float64 {
	d := DistanceToPath(p, points)
	if len(points) > 2 {
		d = math.Min(d, DistanceToSegment(p, points[len(points)-1], points[0]))
	}
	return d
}

// ContainsPoint tests a point against a closed ring using the even-odd rule
func ContainsPoint(points []Point, p Point) bool {
	inside := false
	n := len(points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := points[i], points[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}
