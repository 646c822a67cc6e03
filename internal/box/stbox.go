package box

import (
	"fmt"
	"math"

	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// earthRadiusM matches the mean radius used for geodetic expansion.
const earthRadiusM = 6371008.8

// STBox bounds a temporal point: an optional axis-aligned xy(z) box and an
// optional time span. Geodetic boxes carry lon/lat degrees in x/y.
type STBox struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
	Time       *span.Span

	HasX     bool
	HasZ     bool
	Geodetic bool
	SRID     int32
}

// MakeSTBox validates the coordinate ordering and flag combinations.
func MakeSTBox(b STBox) (STBox, error) {
	if !b.HasX && b.Time == nil {
		return STBox{}, fmt.Errorf("%w: STBox needs at least one axis", terrors.ErrInvalidArg)
	}
	if b.HasZ && !b.HasX {
		return STBox{}, fmt.Errorf("%w: Z axis without XY", terrors.ErrInvalidArg)
	}
	if b.Geodetic && !b.HasX {
		return STBox{}, fmt.Errorf("%w: geodetic box without spatial axis", terrors.ErrInvalidArg)
	}
	if b.HasX && (b.XMin > b.XMax || b.YMin > b.YMax) {
		return STBox{}, fmt.Errorf("%w: inverted spatial bounds", terrors.ErrInvalidArg)
	}
	if b.HasZ && b.ZMin > b.ZMax {
		return STBox{}, fmt.Errorf("%w: inverted z bounds", terrors.ErrInvalidArg)
	}
	if b.Time != nil && b.Time.Basetype != span.Timestamp {
		return STBox{}, fmt.Errorf("%w: STBox time axis must be a timestamp span", terrors.ErrInvalidArg)
	}
	b.Time = cloneSpan(b.Time)
	return b, nil
}

func (b STBox) HasTime() bool { return b.Time != nil }

func (b STBox) String() string {
	kind := "STBox"
	if b.Geodetic {
		kind = "GeodSTBox"
	}
	switch {
	case b.HasX && b.HasZ && b.HasTime():
		return fmt.Sprintf("%s Z((%g,%g,%g),(%g,%g,%g),%s)", kind, b.XMin, b.YMin, b.ZMin, b.XMax, b.YMax, b.ZMax, b.Time)
	case b.HasX && b.HasTime():
		return fmt.Sprintf("%s((%g,%g),(%g,%g),%s)", kind, b.XMin, b.YMin, b.XMax, b.YMax, b.Time)
	case b.HasX && b.HasZ:
		return fmt.Sprintf("%s Z((%g,%g,%g),(%g,%g,%g))", kind, b.XMin, b.YMin, b.ZMin, b.XMax, b.YMax, b.ZMax)
	case b.HasX:
		return fmt.Sprintf("%s((%g,%g),(%g,%g))", kind, b.XMin, b.YMin, b.XMax, b.YMax)
	default:
		return fmt.Sprintf("%s(%s)", kind, b.Time)
	}
}

// checkCompatible enforces the same-SRID / same-model rule for binary ops
// when both boxes carry a spatial axis.
func (b STBox) checkCompatible(o STBox) error {
	if b.HasX && o.HasX {
		if b.SRID != o.SRID {
			return fmt.Errorf("%w: SRID %d vs %d", terrors.ErrMixedDimensions, b.SRID, o.SRID)
		}
		if b.Geodetic != o.Geodetic {
			return fmt.Errorf("%w: geodetic vs planar", terrors.ErrMixedDimensions)
		}
	}
	if !(b.HasX && o.HasX) && !(b.HasTime() && o.HasTime()) {
		return fmt.Errorf("%w: STBoxes share no axis", terrors.ErrInvalidArg)
	}
	return nil
}

// Equal reports structural equality.
func (b STBox) Equal(o STBox) bool {
	if b.HasX != o.HasX || b.HasZ != o.HasZ || b.Geodetic != o.Geodetic ||
		b.SRID != o.SRID || b.HasTime() != o.HasTime() {
		return false
	}
	if b.HasX && (b.XMin != o.XMin || b.XMax != o.XMax || b.YMin != o.YMin || b.YMax != o.YMax) {
		return false
	}
	if b.HasZ && (b.ZMin != o.ZMin || b.ZMax != o.ZMax) {
		return false
	}
	if b.HasTime() && *b.Time != *o.Time {
		return false
	}
	return true
}

// Contains reports b containing o on every common axis.
func (b STBox) Contains(o STBox) (bool, error) {
	if err := b.checkCompatible(o); err != nil {
		return false, err
	}
	if b.HasX && o.HasX {
		if o.XMin < b.XMin || o.XMax > b.XMax || o.YMin < b.YMin || o.YMax > b.YMax {
			return false, nil
		}
		if b.HasZ && o.HasZ && (o.ZMin < b.ZMin || o.ZMax > b.ZMax) {
			return false, nil
		}
	}
	if b.HasTime() && o.HasTime() && !b.Time.Contains(*o.Time) {
		return false, nil
	}
	return true, nil
}

func (b STBox) Contained(o STBox) (bool, error) { return o.Contains(b) }

// Overlaps reports intersection on every common axis.
func (b STBox) Overlaps(o STBox) (bool, error) {
	if err := b.checkCompatible(o); err != nil {
		return false, err
	}
	if b.HasX && o.HasX {
		if b.XMax < o.XMin || o.XMax < b.XMin || b.YMax < o.YMin || o.YMax < b.YMin {
			return false, nil
		}
		if b.HasZ && o.HasZ && (b.ZMax < o.ZMin || o.ZMax < b.ZMin) {
			return false, nil
		}
	}
	if b.HasTime() && o.HasTime() && !b.Time.Overlaps(*o.Time) {
		return false, nil
	}
	return true, nil
}

// Same reports equality on the common axes.
func (b STBox) Same(o STBox) (bool, error) {
	if err := b.checkCompatible(o); err != nil {
		return false, err
	}
	if b.HasX && o.HasX {
		if b.XMin != o.XMin || b.XMax != o.XMax || b.YMin != o.YMin || b.YMax != o.YMax {
			return false, nil
		}
		if b.HasZ && o.HasZ && (b.ZMin != o.ZMin || b.ZMax != o.ZMax) {
			return false, nil
		}
	}
	if b.HasTime() && o.HasTime() && *b.Time != *o.Time {
		return false, nil
	}
	return true, nil
}

// Adjacent reports a degenerate intersection on some common axis while the
// closures of the boxes still touch on every common axis.
func (b STBox) Adjacent(o STBox) (bool, error) {
	if err := b.checkCompatible(o); err != nil {
		return false, err
	}
	touch := false
	if b.HasX && o.HasX {
		if b.XMax < o.XMin || o.XMax < b.XMin || b.YMax < o.YMin || o.YMax < b.YMin {
			return false, nil
		}
		if b.XMax == o.XMin || o.XMax == b.XMin || b.YMax == o.YMin || o.YMax == b.YMin {
			touch = true
		}
		if b.HasZ && o.HasZ {
			if b.ZMax < o.ZMin || o.ZMax < b.ZMin {
				return false, nil
			}
			if b.ZMax == o.ZMin || o.ZMax == b.ZMin {
				touch = true
			}
		}
	}
	if b.HasTime() && o.HasTime() {
		switch {
		case b.Time.Adjacent(*o.Time):
			touch = true
		case !b.Time.Overlaps(*o.Time):
			return false, nil
		}
	}
	return touch, nil
}

// Positional predicates. left/right is the x axis, below/above the y axis,
// front/back the z axis, before/after the time axis.
func (b STBox) Left(o STBox) (bool, error)  { return b.posX(o, func() bool { return b.XMax < o.XMin }) }
func (b STBox) Right(o STBox) (bool, error) { return b.posX(o, func() bool { return b.XMin > o.XMax }) }
func (b STBox) OverLeft(o STBox) (bool, error) {
	return b.posX(o, func() bool { return b.XMax <= o.XMax })
}
func (b STBox) OverRight(o STBox) (bool, error) {
	return b.posX(o, func() bool { return b.XMin >= o.XMin })
}
func (b STBox) Below(o STBox) (bool, error) { return b.posX(o, func() bool { return b.YMax < o.YMin }) }
func (b STBox) Above(o STBox) (bool, error) { return b.posX(o, func() bool { return b.YMin > o.YMax }) }
func (b STBox) OverBelow(o STBox) (bool, error) {
	return b.posX(o, func() bool { return b.YMax <= o.YMax })
}
func (b STBox) OverAbove(o STBox) (bool, error) {
	return b.posX(o, func() bool { return b.YMin >= o.YMin })
}
func (b STBox) Front(o STBox) (bool, error) { return b.posZ(o, func() bool { return b.ZMax < o.ZMin }) }
func (b STBox) Back(o STBox) (bool, error)  { return b.posZ(o, func() bool { return b.ZMin > o.ZMax }) }
func (b STBox) OverFront(o STBox) (bool, error) {
	return b.posZ(o, func() bool { return b.ZMax <= o.ZMax })
}
func (b STBox) OverBack(o STBox) (bool, error) {
	return b.posZ(o, func() bool { return b.ZMin >= o.ZMin })
}
func (b STBox) Before(o STBox) (bool, error) {
	return b.posT(o, func(a, c span.Span) bool { return a.Before(c) })
}
func (b STBox) After(o STBox) (bool, error) {
	return b.posT(o, func(a, c span.Span) bool { return a.After(c) })
}
func (b STBox) OverBefore(o STBox) (bool, error) {
	return b.posT(o, func(a, c span.Span) bool { return a.OverBefore(c) })
}
func (b STBox) OverAfter(o STBox) (bool, error) {
	return b.posT(o, func(a, c span.Span) bool { return a.OverAfter(c) })
}

func (b STBox) posX(o STBox, f func() bool) (bool, error) {
	if !b.HasX || !o.HasX {
		return false, fmt.Errorf("%w: spatial axis missing", terrors.ErrInvalidArg)
	}
	if err := b.checkCompatible(o); err != nil {
		return false, err
	}
	return f(), nil
}

func (b STBox) posZ(o STBox, f func() bool) (bool, error) {
	if !b.HasZ || !o.HasZ {
		return false, fmt.Errorf("%w: z axis missing", terrors.ErrInvalidArg)
	}
	if err := b.checkCompatible(o); err != nil {
		return false, err
	}
	return f(), nil
}

func (b STBox) posT(o STBox, f func(a, c span.Span) bool) (bool, error) {
	if !b.HasTime() || !o.HasTime() {
		return false, fmt.Errorf("%w: time axis missing", terrors.ErrInvalidArg)
	}
	return f(*b.Time, *o.Time), nil
}

// Union merges the axes common to both inputs.
func (b STBox) Union(o STBox) (STBox, error) {
	if err := b.checkCompatible(o); err != nil {
		return STBox{}, err
	}
	var r STBox
	if b.HasX && o.HasX {
		r.HasX = true
		r.SRID = b.SRID
		r.Geodetic = b.Geodetic
		r.XMin, r.XMax = math.Min(b.XMin, o.XMin), math.Max(b.XMax, o.XMax)
		r.YMin, r.YMax = math.Min(b.YMin, o.YMin), math.Max(b.YMax, o.YMax)
		if b.HasZ && o.HasZ {
			r.HasZ = true
			r.ZMin, r.ZMax = math.Min(b.ZMin, o.ZMin), math.Max(b.ZMax, o.ZMax)
		}
	}
	if b.HasTime() && o.HasTime() {
		u, err := b.Time.Union(*o.Time, false)
		if err != nil {
			return STBox{}, err
		}
		hull, _ := u.Hull()
		r.Time = &hull
	}
	return MakeSTBox(r)
}

// Intersection intersects per axis; ok=false when any common axis is
// disjoint.
func (b STBox) Intersection(o STBox) (STBox, bool, error) {
	ov, err := b.Overlaps(o)
	if err != nil {
		return STBox{}, false, err
	}
	if !ov {
		return STBox{}, false, nil
	}
	var r STBox
	if b.HasX && o.HasX {
		r.HasX = true
		r.SRID = b.SRID
		r.Geodetic = b.Geodetic
		r.XMin, r.XMax = math.Max(b.XMin, o.XMin), math.Min(b.XMax, o.XMax)
		r.YMin, r.YMax = math.Max(b.YMin, o.YMin), math.Min(b.YMax, o.YMax)
		if b.HasZ && o.HasZ {
			r.HasZ = true
			r.ZMin, r.ZMax = math.Max(b.ZMin, o.ZMin), math.Min(b.ZMax, o.ZMax)
		}
	}
	if b.HasTime() && o.HasTime() {
		s, ok := b.Time.Intersection(*o.Time)
		if !ok {
			return STBox{}, false, nil
		}
		r.Time = &s
	}
	res, err := MakeSTBox(r)
	if err != nil {
		return STBox{}, false, err
	}
	return res, true, nil
}

// ExpandSpace inflates the spatial axes by +-d. For planar boxes d is in the
// box's units; for geodetic boxes d is meters converted to an angular delta
// on the sphere, with the longitude delta widened by the highest latitude.
func (b STBox) ExpandSpace(d float64) (STBox, error) {
	if !b.HasX {
		return STBox{}, fmt.Errorf("%w: no spatial axis to expand", terrors.ErrInvalidArg)
	}
	r := b
	r.Time = cloneSpan(b.Time)
	if !b.Geodetic {
		r.XMin -= d
		r.XMax += d
		r.YMin -= d
		r.YMax += d
		if b.HasZ {
			r.ZMin -= d
			r.ZMax += d
		}
		return r, nil
	}
	// metric expansion on the sphere
	dLat := d / earthRadiusM * 180 / math.Pi
	maxLat := math.Max(math.Abs(b.YMin), math.Abs(b.YMax))
	cos := math.Cos(math.Min(maxLat+dLat, 89.5) * math.Pi / 180)
	dLon := dLat / cos
	r.YMin = math.Max(r.YMin-dLat, -90)
	r.YMax = math.Min(r.YMax+dLat, 90)
	r.XMin -= dLon
	r.XMax += dLon
	if b.HasZ {
		r.ZMin -= d
		r.ZMax += d
	}
	return r, nil
}

// ExpandTime inflates the time axis by +-d microseconds.
func (b STBox) ExpandTime(d int64) (STBox, error) {
	if !b.HasTime() {
		return STBox{}, fmt.Errorf("%w: no time axis to expand", terrors.ErrInvalidArg)
	}
	r := b
	r.Time = cloneSpan(b.Time)
	*r.Time = r.Time.Expand(float64(d))
	return r, nil
}

// NearestApproachDistance returns 0 when the boxes intersect on all present
// axes, +Inf when the time axes are disjoint, and otherwise the Euclidean
// gap on the spatial axes.
func (b STBox) NearestApproachDistance(o STBox) (float64, error) {
	if err := b.checkCompatible(o); err != nil {
		return 0, err
	}
	if b.HasTime() && o.HasTime() && !b.Time.Overlaps(*o.Time) {
		return math.Inf(1), nil
	}
	if !(b.HasX && o.HasX) {
		return 0, nil
	}
	gap := func(min1, max1, min2, max2 float64) float64 {
		if max1 < min2 {
			return min2 - max1
		}
		if max2 < min1 {
			return min1 - max2
		}
		return 0
	}
	dx := gap(b.XMin, b.XMax, o.XMin, o.XMax)
	dy := gap(b.YMin, b.YMax, o.YMin, o.YMax)
	dz := 0.0
	if b.HasZ && o.HasZ {
		dz = gap(b.ZMin, b.ZMax, o.ZMin, o.ZMax)
	}
	return math.Sqrt(dx*dx + dy*dy + dz*dz), nil
}
