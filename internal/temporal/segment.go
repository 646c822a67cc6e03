package temporal

import (
	"math"

	"github.com/banshee-data/trajectory.engine/internal/geo"
	"github.com/banshee-data/trajectory.engine/internal/numeric"
)

// Segment kernel: per-segment intersection with values, with other
// synchronized segments, turning points, and the within-radius solver.
// Timestamps are microseconds; ratios are taken in float64 and mapped back.

// segHitKind classifies a segment/value or segment/segment intersection.
type segHitKind uint8

const (
	segHitNone segHitKind = iota
	segHitAt              // a single timestamp
	segHitWhole           // the whole segment satisfies the condition
)

// intersectValue returns the timestamp at which the segment equals target.
func (sg segment) intersectValue(target Value) (TS, segHitKind) {
	a, b := sg.a, sg.b
	if sg.interp == InterpStep || a.Val.Equal(b.Val) {
		if a.Val.Equal(target) {
			return a.T, segHitWhole
		}
		if sg.interp == InterpStep {
			return 0, segHitNone
		}
	}
	switch a.Val.Type {
	case BTFloat:
		v1, v2, tv := a.Val.F, b.Val.F, target.F
		if (tv < v1 && tv < v2) || (tv > v1 && tv > v2) {
			return 0, segHitNone
		}
		f := (tv - v1) / (v2 - v1)
		return fracToTS(a.T, b.T, f), segHitAt
	case BTGeomPoint, BTGeogPoint:
		f, ok := locateOnMovingSegment(a.Val.P, b.Val.P, target.P)
		if !ok {
			return 0, segHitNone
		}
		return fracToTS(a.T, b.T, f), segHitAt
	}
	return 0, segHitNone
}

// locateOnMovingSegment returns the fraction of p along segment [a,b], with
// a per-axis consistency check against the interpolated position.
func locateOnMovingSegment(a, b, p geo.Point) (float64, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	den := dx*dx + dy*dy
	var dz float64
	if a.HasZ && b.HasZ {
		dz = b.Z - a.Z
		den += dz * dz
	}
	if den == 0 {
		if a.EqualEps(p, numeric.Epsilon) {
			return 0, true
		}
		return 0, false
	}
	num := (p.X-a.X)*dx + (p.Y-a.Y)*dy
	if a.HasZ && p.HasZ {
		num += (p.Z - a.Z) * dz
	}
	f := num / den
	if f < 0 || f > 1 {
		return 0, false
	}
	if !geo.InterpolatePoint(a, b, f).EqualEps(p, numeric.Epsilon) {
		return 0, false
	}
	return f, true
}

// intersectSegment returns the timestamp at which two synchronized segments
// (same [a.T, b.T] interval) take the same value.
func (sg segment) intersectSegment(o segment) (TS, segHitKind) {
	a1, b1, a2, b2 := sg.a, sg.b, o.a, o.b
	lin1 := sg.interp == InterpLinear && !a1.Val.Equal(b1.Val)
	lin2 := o.interp == InterpLinear && !a2.Val.Equal(b2.Val)
	if !lin1 && !lin2 {
		if a1.Val.Equal(a2.Val) {
			return a1.T, segHitWhole
		}
		return 0, segHitNone
	}
	switch a1.Val.Type {
	case BTInt, BTFloat:
		// f1(u) = v1 + (w1-v1) u, f2(u) = v2 + (w2-v2) u on u in [0,1]
		v1, w1 := a1.Val.Number(), b1.Val.Number()
		v2, w2 := a2.Val.Number(), b2.Val.Number()
		den := (w1 - v1) - (w2 - v2)
		if den == 0 {
			if numeric.Float8Eq(v1, v2) {
				return a1.T, segHitWhole
			}
			return 0, segHitNone
		}
		u := (v2 - v1) / den
		if u < 0 || u > 1 {
			return 0, segHitNone
		}
		return fracToTS(a1.T, b1.T, u), segHitAt
	case BTGeomPoint, BTGeogPoint:
		// |P1(u) - P2(u)|^2 = a u^2 + b u + c; coincidence at its zeros
		qa, qb, qc := distanceQuadratic(a1.Val.P, b1.Val.P, a2.Val.P, b2.Val.P)
		if qa == 0 && qb == 0 {
			if qc < numeric.Epsilon {
				return a1.T, segHitWhole
			}
			return 0, segHitNone
		}
		u1, u2, n := numeric.SolveQuadratic(qa, qb, qc)
		for _, u := range []float64{u1, u2}[:n] {
			if u >= 0 && u <= 1 {
				return fracToTS(a1.T, b1.T, u), segHitAt
			}
		}
		return 0, segHitNone
	}
	return 0, segHitNone
}

// distanceQuadratic expands the squared distance of two moving points into
// the quadratic a u^2 + b u + c over the normalized parameter u.
func distanceQuadratic(s1, e1, s2, e2 geo.Point) (a, b, c float64) {
	// velocity and offset deltas per axis
	avx := (e1.X - s1.X) - (e2.X - s2.X)
	avy := (e1.Y - s1.Y) - (e2.Y - s2.Y)
	apx := s1.X - s2.X
	apy := s1.Y - s2.Y
	a = avx*avx + avy*avy
	b = 2 * (avx*apx + avy*apy)
	c = apx*apx + apy*apy
	if s1.HasZ && s2.HasZ {
		avz := (e1.Z - s1.Z) - (e2.Z - s2.Z)
		apz := s1.Z - s2.Z
		a += avz * avz
		b += 2 * avz * apz
		c += apz * apz
	}
	return a, b, c
}

// distanceTurningPoint returns the timestamp at which the distance between
// two synchronized linear segments reaches a local extremum strictly inside
// the segment interval.
func distanceTurningPoint(a1, b1, a2, b2 TInstant, lower, upper TS) (TS, Value, bool) {
	switch a1.Val.Type {
	case BTInt, BTFloat:
		// |f - g| bends where f and g cross
		v1, w1, v2, w2 := a1.Val.Number(), b1.Val.Number(), a2.Val.Number(), b2.Val.Number()
		den := (w1 - v1) - (w2 - v2)
		if den == 0 {
			return 0, Value{}, false
		}
		u := (v2 - v1) / den
		if u <= 0 || u >= 1 {
			return 0, Value{}, false
		}
		return fracToTS(lower, upper, u), Float(0), true
	case BTGeomPoint, BTGeogPoint:
		qa, qb, _ := distanceQuadratic(a1.Val.P, b1.Val.P, a2.Val.P, b2.Val.P)
		if qa == 0 {
			return 0, Value{}, false
		}
		u := -qb / (2 * qa)
		if u <= 0 || u >= 1 {
			return 0, Value{}, false
		}
		ts := fracToTS(lower, upper, u)
		p1 := geo.InterpolatePoint(a1.Val.P, b1.Val.P, u)
		p2 := geo.InterpolatePoint(a2.Val.P, b2.Val.P, u)
		return ts, Float(p1.Distance(p2)), true
	}
	return 0, Value{}, false
}

// DWithinSegment solves, on one synchronized segment pair, the timestamps at
// which the distance between two moving points equals d. It returns 0, 1 or
// 2 timestamps t1 <= t2; with 2 solutions the closed interval [t1, t2] is
// within distance d.
//
// Parallel equal-speed points degrade the quadratic to a constant: the
// answer is the whole interval or nothing.
func DWithinSegment(sv1, ev1, sv2, ev2 geo.Point, lower, upper TS, d float64) (TS, TS, int) {
	qa, qb, qc := distanceQuadratic(sv1, ev1, sv2, ev2)
	qc -= d * d
	if qa == 0 && qb == 0 {
		if qc <= 0 {
			return lower, upper, 2
		}
		return 0, 0, 0
	}
	if qa == 0 {
		// squared distance is linear in u; within d where qb*u + qc <= 0
		u := -qc / qb
		inside0 := qc <= 0
		if u < 0 || u > 1 {
			// no crossing inside the interval: the sign at u=0 decides
			if inside0 {
				return lower, upper, 2
			}
			return 0, 0, 0
		}
		ts := fracToTS(lower, upper, u)
		if inside0 {
			return lower, ts, 2
		}
		return ts, upper, 2
	}
	u1, u2, n := numeric.SolveQuadratic(qa, qb, qc)
	if n == 0 {
		// opens upward and never reaches the radius
		return 0, 0, 0
	}
	if n == 1 {
		if u1 < 0 || u1 > 1 {
			return 0, 0, 0
		}
		ts := fracToTS(lower, upper, u1)
		return ts, ts, 1
	}
	// two crossings: within d on [u1, u2] since the quadratic opens upward
	if u2 < 0 || u1 > 1 {
		return 0, 0, 0
	}
	lo := math.Max(0, u1)
	hi := math.Min(1, u2)
	if math.Abs(hi-lo) < numeric.Epsilon {
		ts := fracToTS(lower, upper, lo)
		return ts, ts, 1
	}
	return fracToTS(lower, upper, lo), fracToTS(lower, upper, hi), 2
}

// fracToTS maps a normalized fraction back into the timestamp interval.
func fracToTS(lower, upper TS, f float64) TS {
	return lower + TS(f*float64(upper-lower))
}
