// Package tpoint implements the moving-point side of the temporal engine:
// trajectories and their derived accessors, restriction to geometries and
// spatiotemporal boxes with simple-fragment decomposition, and the MF-JSON
// representation.
package tpoint

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/banshee-data/trajectory.engine/internal/geo"
	"github.com/banshee-data/trajectory.engine/internal/numeric"
	"github.com/banshee-data/trajectory.engine/internal/temporal"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

func checkPoint(t temporal.Temporal) error {
	if t == nil {
		return fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	if !t.BaseType().IsPoint() {
		return fmt.Errorf("%w: expected a temporal point, got %s", terrors.ErrTypeMismatch, t.BaseType())
	}
	return nil
}

// Trajectory returns the 2D geometry traced by a temporal point: a point or
// multipoint for discrete subtypes, a linestring (or multilinestring) for
// continuous ones.
func Trajectory(t temporal.Temporal) (geo.Geom, error) {
	if err := checkPoint(t); err != nil {
		return geo.Geom{}, err
	}
	switch t.Subtype() {
	case temporal.SubInstant:
		return geo.MakeGeomPoint(t.Instants()[0].Val.P, t.SRID()), nil
	case temporal.SubInstantSet:
		mp := make(orb.MultiPoint, 0, t.NumInstants())
		for _, in := range t.Instants() {
			mp = append(mp, in.Val.P.Orb())
		}
		return geo.FromOrb(mp, t.SRID()), nil
	case temporal.SubSequence:
		return seqTrajectory(t.Instants(), t.SRID()), nil
	default:
		ss := t.(*temporal.TSequenceSet)
		mls := make(orb.MultiLineString, 0, ss.NumSequences())
		for _, s := range ss.Sequences() {
			tr := seqTrajectory(s.Instants(), t.SRID())
			if ls, ok := tr.G.(orb.LineString); ok {
				mls = append(mls, ls)
			}
		}
		return geo.FromOrb(mls, t.SRID()), nil
	}
}

func seqTrajectory(insts []temporal.TInstant, srid int32) geo.Geom {
	if len(insts) == 1 {
		return geo.MakeGeomPoint(insts[0].Val.P, srid)
	}
	pts := make([]geo.Point, len(insts))
	for i, in := range insts {
		pts[i] = in.Val.P
	}
	return geo.MakeLine(pts, srid)
}

// Length returns the length of the trajectory in the unit of the point's
// metric (meters for geography).
func Length(t temporal.Temporal) (float64, error) {
	if err := checkPoint(t); err != nil {
		return 0, err
	}
	var total float64
	forEachSequence(t, func(insts []temporal.TInstant) {
		for i := 0; i+1 < len(insts); i++ {
			total += insts[i].Val.Distance(insts[i+1].Val)
		}
	})
	return total, nil
}

// CumulativeLength returns the distance travelled as a linear temporal
// float.
func CumulativeLength(t temporal.Temporal) (temporal.Temporal, error) {
	if err := checkPoint(t); err != nil {
		return nil, err
	}
	var seqs []*temporal.TSequence
	var base float64
	var errOut error
	forEachSequence(t, func(insts []temporal.TInstant) {
		if errOut != nil {
			return
		}
		out := make([]temporal.TInstant, len(insts))
		acc := base
		for i, in := range insts {
			if i > 0 {
				acc += insts[i-1].Val.Distance(in.Val)
			}
			out[i] = temporal.TInstant{Val: temporal.Float(acc), T: in.T}
		}
		base = acc
		seq, err := temporal.NewSequence(out, true, true, temporal.InterpLinear, false)
		if err != nil {
			errOut = err
			return
		}
		seqs = append(seqs, seq)
	})
	if errOut != nil {
		return nil, errOut
	}
	if len(seqs) == 1 {
		return seqs[0], nil
	}
	return temporal.NewSequenceSet(seqs, false)
}

// Speed returns the speed in units per second as a step temporal float:
// constant on every segment.
func Speed(t temporal.Temporal) (temporal.Temporal, error) {
	if err := checkPoint(t); err != nil {
		return nil, err
	}
	if t.Subtype() == temporal.SubInstant || t.Subtype() == temporal.SubInstantSet {
		return nil, fmt.Errorf("%w: speed needs a continuous temporal point", terrors.ErrInvalidArg)
	}
	var seqs []*temporal.TSequence
	var errOut error
	forEachSequence(t, func(insts []temporal.TInstant) {
		if errOut != nil {
			return
		}
		out := make([]temporal.TInstant, len(insts))
		for i := range insts {
			j := i
			if j == len(insts)-1 {
				j = len(insts) - 2
			}
			if j < 0 {
				j = 0
			}
			var v float64
			if len(insts) > 1 {
				dt := float64(insts[j+1].T-insts[j].T) / 1e6 // seconds
				if dt > 0 {
					v = insts[j].Val.Distance(insts[j+1].Val) / dt
				}
			}
			out[i] = temporal.TInstant{Val: temporal.Float(v), T: insts[i].T}
		}
		seq, err := temporal.NewSequence(out, true, true, temporal.InterpStep, true)
		if err != nil {
			errOut = err
			return
		}
		seqs = append(seqs, seq)
	})
	if errOut != nil {
		return nil, errOut
	}
	if len(seqs) == 1 {
		return seqs[0], nil
	}
	return temporal.NewSequenceSet(seqs, false)
}

// Azimuth returns the heading of a 2D moving point in radians as a step
// temporal float, one constant value per moving segment. Zero-length
// segments are skipped.
func Azimuth(t temporal.Temporal) (temporal.Temporal, error) {
	if err := checkPoint(t); err != nil {
		return nil, err
	}
	if t.Subtype() == temporal.SubInstant || t.Subtype() == temporal.SubInstantSet {
		return nil, fmt.Errorf("%w: azimuth needs a continuous temporal point", terrors.ErrInvalidArg)
	}
	var seqs []*temporal.TSequence
	var errOut error
	forEachSequence(t, func(insts []temporal.TInstant) {
		if errOut != nil {
			return
		}
		var out []temporal.TInstant
		for i := 0; i+1 < len(insts); i++ {
			a, b := insts[i].Val.P, insts[i+1].Val.P
			if a.EqualEps(b, numeric.Epsilon) {
				continue
			}
			az := azimuth(a, b)
			out = append(out, temporal.TInstant{Val: temporal.Float(az), T: insts[i].T})
			out = append(out, temporal.TInstant{Val: temporal.Float(az), T: insts[i+1].T})
		}
		if len(out) == 0 {
			return
		}
		// collapse duplicate timestamps keeping the later segment's heading
		dedup := out[:1]
		for _, in := range out[1:] {
			if in.T == dedup[len(dedup)-1].T {
				dedup[len(dedup)-1] = in
				continue
			}
			dedup = append(dedup, in)
		}
		seq, err := temporal.NewSequence(dedup, true, true, temporal.InterpStep, true)
		if err != nil {
			errOut = err
			return
		}
		seqs = append(seqs, seq)
	})
	if errOut != nil {
		return nil, errOut
	}
	switch len(seqs) {
	case 0:
		return nil, nil
	case 1:
		return seqs[0], nil
	default:
		return temporal.NewSequenceSet(seqs, false)
	}
}

// azimuth is the heading from a to b, clockwise from north in [0, 2pi).
func azimuth(a, b geo.Point) float64 {
	az := math.Atan2(b.X-a.X, b.Y-a.Y)
	if az < 0 {
		az += 2 * math.Pi
	}
	return az
}

// TwCentroid returns the time-weighted centroid of a temporal point.
func TwCentroid(t temporal.Temporal) (geo.Point, error) {
	if err := checkPoint(t); err != nil {
		return geo.Point{}, err
	}
	insts := t.Instants()
	if len(insts) == 1 || t.Subtype() == temporal.SubInstant {
		return insts[0].Val.P, nil
	}
	if t.Subtype() == temporal.SubInstantSet {
		var sx, sy float64
		for _, in := range insts {
			sx += in.Val.P.X
			sy += in.Val.P.Y
		}
		n := float64(len(insts))
		return geo.MakePoint(sx/n, sy/n), nil
	}
	var sx, sy, w float64
	forEachSequence(t, func(seq []temporal.TInstant) {
		for i := 0; i+1 < len(seq); i++ {
			dt := float64(seq[i+1].T - seq[i].T)
			mx := (seq[i].Val.P.X + seq[i+1].Val.P.X) / 2
			my := (seq[i].Val.P.Y + seq[i+1].Val.P.Y) / 2
			sx += mx * dt
			sy += my * dt
			w += dt
		}
	})
	if w == 0 {
		return insts[0].Val.P, nil
	}
	return geo.MakePoint(sx/w, sy/w), nil
}

// Round rounds every coordinate of a temporal point to the given number of
// decimal digits. Rounding is idempotent.
func Round(t temporal.Temporal, digits int) (temporal.Temporal, error) {
	if err := checkPoint(t); err != nil {
		return nil, err
	}
	return temporal.MapValues(t, func(v temporal.Value) temporal.Value {
		p := v.P
		p.X = numeric.Round(p.X, digits)
		p.Y = numeric.Round(p.Y, digits)
		if p.HasZ {
			p.Z = numeric.Round(p.Z, digits)
		}
		r := v
		r.P = p
		return r
	})
}

// forEachSequence visits the instant runs of a temporal: one run per
// sequence, or a single run for discrete subtypes.
func forEachSequence(t temporal.Temporal, f func([]temporal.TInstant)) {
	switch v := t.(type) {
	case *temporal.TSequenceSet:
		for _, s := range v.Sequences() {
			f(s.Instants())
		}
	default:
		f(t.Instants())
	}
}
