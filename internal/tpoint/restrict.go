package tpoint

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/banshee-data/trajectory.engine/internal/box"
	"github.com/banshee-data/trajectory.engine/internal/geo"
	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/temporal"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Restriction of temporal points to geometries and spatiotemporal boxes.
//
// The geometry path follows the box-prune / simplify / intersect pipeline:
// every linear sequence is first decomposed into simple (non-self-intersecting)
// fragments, then each fragment's segments are clipped against the geometry
// and the inside time spans are assembled into a span set that drives the
// ordinary time restriction. Synthesized crossings belong to the at side.

// AtGeometry restricts a temporal point to the timestamps it spends inside
// the geometry, with an optional z-span filter for 3D points. The scan is
// O(segments x edges) and checks ctx once per fragment.
func AtGeometry(ctx context.Context, t temporal.Temporal, g geo.Geom, zspan *span.Span) (temporal.Temporal, error) {
	if err := checkPoint(t); err != nil {
		return nil, err
	}
	if g.IsEmpty() {
		return nil, nil
	}
	if t.BaseType() == temporal.BTGeogPoint {
		return nil, fmt.Errorf("%w: geometry restriction needs planar points", terrors.ErrMixedDimensions)
	}
	// bounding-box prune
	tb, err := temporal.STBoxOf(t)
	if err != nil {
		return nil, err
	}
	gb := boundToSTBox(g.G.Bound(), t.SRID())
	if ok, err := tb.Overlaps(gb); err != nil || !ok {
		return nil, err
	}

	inside, err := insideSpans(ctx, t, g)
	if err != nil {
		return nil, err
	}
	if inside.IsEmpty() {
		return nil, nil
	}
	r, err := temporal.AtPeriodSet(t, inside)
	if err != nil || r == nil {
		return nil, err
	}
	if zspan != nil {
		return filterZ(r, *zspan)
	}
	return r, nil
}

// MinusGeometry restricts to the complement of AtGeometry within the
// original time domain.
func MinusGeometry(ctx context.Context, t temporal.Temporal, g geo.Geom, zspan *span.Span) (temporal.Temporal, error) {
	at, err := AtGeometry(ctx, t, g, zspan)
	if err != nil {
		return nil, err
	}
	var atTS span.SpanSet
	if at != nil {
		atTS = at.Timespan()
	}
	comp := t.Timespan().MinusSet(atTS)
	if comp.IsEmpty() {
		return nil, nil
	}
	return temporal.AtPeriodSet(t, comp)
}

// insideSpans computes the time spans a temporal point spends inside g.
func insideSpans(ctx context.Context, t temporal.Temporal, g geo.Geom) (span.SpanSet, error) {
	var spans []span.Span
	switch v := t.(type) {
	case *temporal.TInstant:
		if g.ContainsPoint(v.Val.P) {
			spans = append(spans, span.Instant(v.T))
		}
	case *temporal.TInstantSet:
		for _, in := range v.Instants() {
			if g.ContainsPoint(in.Val.P) {
				spans = append(spans, span.Instant(in.T))
			}
		}
	case *temporal.TSequence:
		s, err := seqInsideSpans(ctx, v, g)
		if err != nil {
			return span.SpanSet{}, err
		}
		spans = append(spans, s...)
	case *temporal.TSequenceSet:
		for _, seq := range v.Sequences() {
			s, err := seqInsideSpans(ctx, seq, g)
			if err != nil {
				return span.SpanSet{}, err
			}
			spans = append(spans, s...)
		}
	}
	return span.MakeSet(spans)
}

// seqInsideSpans decomposes the sequence into simple fragments and clips
// each against the geometry.
func seqInsideSpans(ctx context.Context, s *temporal.TSequence, g geo.Geom) ([]span.Span, error) {
	if s.Interpolation() == temporal.InterpStep {
		return stepInsideSpans(s, g), nil
	}
	frags, err := simpleFragments(ctx, s.Instants())
	if err != nil {
		return nil, err
	}
	edges := g.Segments()
	var out []span.Span
	for _, frag := range frags {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: geometry restriction", terrors.ErrCancelled)
		}
		for i := 0; i+1 < len(frag); i++ {
			out = append(out, segmentInsideSpans(frag[i], frag[i+1], g, edges)...)
		}
	}
	return out, nil
}

// stepInsideSpans handles step interpolation: the point sits still between
// samples, so membership is decided sample by sample.
func stepInsideSpans(s *temporal.TSequence, g geo.Geom) []span.Span {
	insts := s.Instants()
	var out []span.Span
	for i, in := range insts {
		if !g.ContainsPoint(in.Val.P) {
			continue
		}
		if i == len(insts)-1 {
			if s.UpperInc() {
				out = append(out, span.Instant(in.T))
			}
			continue
		}
		lowerInc := true
		if i == 0 {
			lowerInc = s.LowerInc()
		}
		p, err := span.MakePeriod(in.T, insts[i+1].T, lowerInc, false)
		if err == nil {
			out = append(out, p)
		}
	}
	return out
}

// segmentInsideSpans clips one linear segment against the geometry: the
// crossing parameters against every edge split the segment, and each piece
// is classified by its midpoint.
func segmentInsideSpans(a, b temporal.TInstant, g geo.Geom, edges [][2]orb.Point) []span.Span {
	pa, pb := a.Val.P.Orb(), b.Val.P.Orb()
	if pa == pb {
		if g.ContainsPoint(a.Val.P) {
			p, err := span.MakePeriod(a.T, b.T, true, true)
			if err == nil {
				return []span.Span{p}
			}
		}
		return nil
	}
	cuts := []float64{0, 1}
	for _, e := range edges {
		kind, _, t0, t1 := geo.SegSegIntersection(pa, pb, e[0], e[1])
		switch kind {
		case geo.SegSegPoint:
			cuts = append(cuts, t0)
		case geo.SegSegOverlap:
			cuts = append(cuts, t0, t1)
		}
	}
	sortFloats(cuts)
	var out []span.Span
	for i := 0; i+1 < len(cuts); i++ {
		lo, hi := cuts[i], cuts[i+1]
		if hi-lo <= 0 {
			continue
		}
		mid := geo.InterpolatePoint(a.Val.P, b.Val.P, (lo+hi)/2)
		if !g.ContainsPoint(mid) {
			continue
		}
		tLo := fracToTS(a.T, b.T, lo)
		tHi := fracToTS(a.T, b.T, hi)
		if tLo == tHi {
			out = append(out, span.Instant(tLo))
			continue
		}
		p, err := span.MakePeriod(tLo, tHi, true, true)
		if err == nil {
			out = append(out, p)
		}
	}
	// a tangential touch contributes a single crossing instant even when
	// both neighboring pieces lie outside
	for _, c := range cuts {
		at := geo.InterpolatePoint(a.Val.P, b.Val.P, c)
		if g.ContainsPoint(at) {
			out = append(out, span.Instant(fracToTS(a.T, b.T, c)))
		}
	}
	return out
}

// simpleFragments splits an instant run into maximal sub-runs whose planar
// trajectories do not self-intersect. The pairwise segment scan is the
// O(n^2) part guarded by the cancellation flag.
func simpleFragments(ctx context.Context, insts []temporal.TInstant) ([][]temporal.TInstant, error) {
	if len(insts) <= 2 {
		return [][]temporal.TInstant{insts}, nil
	}
	var out [][]temporal.TInstant
	start := 0
	for i := 1; i < len(insts)-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: self-intersection scan", terrors.ErrCancelled)
		}
		// does segment [i, i+1] hit any earlier segment of the fragment?
		cur := insts[i].Val.P.Orb()
		next := insts[i+1].Val.P.Orb()
		hit := false
		for j := start; j < i-1; j++ {
			kind, _, _, _ := geo.SegSegIntersection(
				insts[j].Val.P.Orb(), insts[j+1].Val.P.Orb(), cur, next)
			if kind != geo.SegSegNone {
				hit = true
				break
			}
		}
		if hit {
			out = append(out, insts[start:i+1])
			start = i
		}
	}
	out = append(out, insts[start:])
	return out, nil
}

// AtSTBox restricts a temporal point to a spatiotemporal box: the time axis
// clips the domain, the xy axes clip through the rectangle geometry, and the
// z axis filters through the z-span path.
func AtSTBox(ctx context.Context, t temporal.Temporal, b box.STBox) (temporal.Temporal, error) {
	if err := checkPoint(t); err != nil {
		return nil, err
	}
	cur := t
	var err error
	if b.HasTime() {
		cur, err = temporal.AtPeriod(cur, *b.Time)
		if err != nil || cur == nil {
			return nil, err
		}
	}
	if b.HasX {
		rect := orb.Polygon{{
			{b.XMin, b.YMin}, {b.XMax, b.YMin}, {b.XMax, b.YMax}, {b.XMin, b.YMax}, {b.XMin, b.YMin},
		}}
		var zspan *span.Span
		if b.HasZ {
			zs, err := span.Make(b.ZMin, b.ZMax, true, true, span.Float)
			if err != nil {
				return nil, err
			}
			zspan = &zs
		}
		cur, err = AtGeometry(ctx, cur, geo.FromOrb(rect, b.SRID), zspan)
		if err != nil || cur == nil {
			return nil, err
		}
	}
	return cur, nil
}

// MinusSTBox restricts to the complement of AtSTBox.
func MinusSTBox(ctx context.Context, t temporal.Temporal, b box.STBox) (temporal.Temporal, error) {
	at, err := AtSTBox(ctx, t, b)
	if err != nil {
		return nil, err
	}
	var atTS span.SpanSet
	if at != nil {
		atTS = at.Timespan()
	}
	comp := t.Timespan().MinusSet(atTS)
	if comp.IsEmpty() {
		return nil, nil
	}
	return temporal.AtPeriodSet(t, comp)
}

// filterZ keeps the timestamps whose z coordinate lies inside the span.
func filterZ(t temporal.Temporal, zs span.Span) (temporal.Temporal, error) {
	elev, err := temporal.MapValues(t, func(v temporal.Value) temporal.Value {
		return temporal.Float(v.P.Z)
	})
	if err != nil {
		return nil, err
	}
	zin, err := temporal.AtSpan(elev, zs)
	if err != nil || zin == nil {
		return nil, err
	}
	return temporal.AtPeriodSet(t, zin.Timespan())
}

func boundToSTBox(b orb.Bound, srid int32) box.STBox {
	st, _ := box.MakeSTBox(box.STBox{
		HasX: true, SRID: srid,
		XMin: b.Min[0], XMax: b.Max[0], YMin: b.Min[1], YMax: b.Max[1],
	})
	return st
}

func fracToTS(lower, upper int64, f float64) int64 {
	return lower + int64(f*float64(upper-lower))
}

func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
