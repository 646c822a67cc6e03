package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/trajectory.engine/internal/numeric"
)

// coordEps is the coordinate tolerance, shared with the numeric kernel.
const coordEps = numeric.Epsilon

// distPointSegment returns the distance from p to the segment [a,b].
func distPointSegment(p, a, b orb.Point) float64 {
	return math.Sqrt(planar.DistanceSquared(closestOnSegment(p, a, b), p))
}

func closestOnSegment(p, a, b orb.Point) orb.Point {
	dx, dy := b[0]-a[0], b[1]-a[1]
	den := dx*dx + dy*dy
	if den == 0 {
		return a
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / den
	t = numeric.Clamp(t, 0, 1)
	return orb.Point{a[0] + t*dx, a[1] + t*dy}
}

// SegSegKind classifies the intersection of two planar segments.
type SegSegKind uint8

const (
	SegSegNone SegSegKind = iota
	SegSegPoint
	SegSegOverlap
)

// SegSegIntersection intersects segments [p1,p2] and [q1,q2]. For a point
// intersection it returns the point and its fraction along [p1,p2]; for a
// collinear overlap it returns the fraction range [t0,t1] of the shared part
// on [p1,p2].
func SegSegIntersection(p1, p2, q1, q2 orb.Point) (kind SegSegKind, at orb.Point, t0, t1 float64) {
	rX, rY := p2[0]-p1[0], p2[1]-p1[1]
	sX, sY := q2[0]-q1[0], q2[1]-q1[1]
	den := rX*sY - rY*sX
	qpX, qpY := q1[0]-p1[0], q1[1]-p1[1]
	if math.Abs(den) < coordEps {
		// parallel; collinear when (q1-p1) x r vanishes
		if math.Abs(qpX*rY-qpY*rX) >= coordEps {
			return SegSegNone, orb.Point{}, 0, 0
		}
		den2 := rX*rX + rY*rY
		if den2 == 0 {
			// degenerate first segment
			if distPointSegment(p1, q1, q2) < coordEps {
				return SegSegPoint, p1, 0, 0
			}
			return SegSegNone, orb.Point{}, 0, 0
		}
		ta := (qpX*rX + qpY*rY) / den2
		tb := ta + (sX*rX+sY*rY)/den2
		lo, hi := math.Min(ta, tb), math.Max(ta, tb)
		lo, hi = math.Max(lo, 0), math.Min(hi, 1)
		if lo > hi {
			return SegSegNone, orb.Point{}, 0, 0
		}
		if hi-lo < coordEps {
			return SegSegPoint, orb.Point{p1[0] + lo*rX, p1[1] + lo*rY}, lo, lo
		}
		return SegSegOverlap, orb.Point{p1[0] + lo*rX, p1[1] + lo*rY}, lo, hi
	}
	t := (qpX*sY - qpY*sX) / den
	u := (qpX*rY - qpY*rX) / den
	if t < -coordEps || t > 1+coordEps || u < -coordEps || u > 1+coordEps {
		return SegSegNone, orb.Point{}, 0, 0
	}
	t = numeric.Clamp(t, 0, 1)
	return SegSegPoint, orb.Point{p1[0] + t*rX, p1[1] + t*rY}, t, t
}

// LocateOnSegment returns the fraction of p along [a,b], or -1 when p is not
// on the segment.
func LocateOnSegment(a, b, p orb.Point) float64 {
	if distPointSegment(p, a, b) >= coordEps {
		return -1
	}
	dx, dy := b[0]-a[0], b[1]-a[1]
	den := dx*dx + dy*dy
	if den == 0 {
		return 0
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / den
	return numeric.Clamp(t, 0, 1)
}

// LineLocatePoint returns the fraction of the closest point to p along the
// line's length, like ST_LineLocatePoint.
func LineLocatePoint(ls orb.LineString, p orb.Point) float64 {
	if len(ls) < 2 {
		return 0
	}
	total := 0.0
	lens := make([]float64, len(ls)-1)
	for i := 0; i+1 < len(ls); i++ {
		lens[i] = planar.Distance(ls[i], ls[i+1])
		total += lens[i]
	}
	if total == 0 {
		return 0
	}
	best := math.Inf(1)
	bestAt := 0.0
	walked := 0.0
	for i := 0; i+1 < len(ls); i++ {
		cp := closestOnSegment(p, ls[i], ls[i+1])
		d := planar.Distance(cp, p)
		if d < best {
			best = d
			frac := 0.0
			if lens[i] > 0 {
				frac = planar.Distance(ls[i], cp) / lens[i]
			}
			bestAt = (walked + frac*lens[i]) / total
		}
		walked += lens[i]
	}
	return numeric.Clamp(bestAt, 0, 1)
}

// LineInterpolatePoint returns the point at fraction f of the line's length,
// like ST_LineInterpolatePoint.
func LineInterpolatePoint(ls orb.LineString, f float64) orb.Point {
	if len(ls) == 0 {
		return orb.Point{}
	}
	if len(ls) == 1 || f <= 0 {
		return ls[0]
	}
	if f >= 1 {
		return ls[len(ls)-1]
	}
	total := 0.0
	for i := 0; i+1 < len(ls); i++ {
		total += planar.Distance(ls[i], ls[i+1])
	}
	target := f * total
	for i := 0; i+1 < len(ls); i++ {
		l := planar.Distance(ls[i], ls[i+1])
		if target <= l || i == len(ls)-2 {
			if l == 0 {
				return ls[i]
			}
			t := target / l
			return orb.Point{ls[i][0] + t*(ls[i+1][0]-ls[i][0]), ls[i][1] + t*(ls[i+1][1]-ls[i][1])}
		}
		target -= l
	}
	return ls[len(ls)-1]
}

// LineSubstring returns the part of the line between fractions from and to,
// like ST_LineSubstring.
func LineSubstring(ls orb.LineString, from, to float64) orb.LineString {
	if from > to {
		from, to = to, from
	}
	from = numeric.Clamp(from, 0, 1)
	to = numeric.Clamp(to, 0, 1)
	if len(ls) < 2 || from == to {
		return orb.LineString{LineInterpolatePoint(ls, from)}
	}
	total := 0.0
	for i := 0; i+1 < len(ls); i++ {
		total += planar.Distance(ls[i], ls[i+1])
	}
	start, end := from*total, to*total
	var out orb.LineString
	walked := 0.0
	out = append(out, LineInterpolatePoint(ls, from))
	for i := 0; i+1 < len(ls); i++ {
		l := planar.Distance(ls[i], ls[i+1])
		edgeEnd := walked + l
		if edgeEnd > start && edgeEnd < end {
			out = append(out, ls[i+1])
		}
		walked = edgeEnd
		if walked >= end {
			break
		}
	}
	out = append(out, LineInterpolatePoint(ls, to))
	return out
}

// InterpolatePoint linearly interpolates between two kernel points at
// fraction f, carrying z when both endpoints have it.
func InterpolatePoint(a, b Point, f float64) Point {
	r := Point{
		X:    a.X + f*(b.X-a.X),
		Y:    a.Y + f*(b.Y-a.Y),
		HasZ: a.HasZ && b.HasZ,
	}
	if r.HasZ {
		r.Z = a.Z + f*(b.Z-a.Z)
	}
	return r
}
