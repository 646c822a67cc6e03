// Package geo wraps the external 2D geometry library (paulmach/orb) behind
// the small collaborator surface the temporal engine needs: predicates,
// linear referencing and WKT/WKB codecs. The engine never assumes
// sub-epsilon precision from this package; threshold logic lives in the
// numeric kernel.
//
// orb is strictly 2D. Three-dimensional moving points carry their z
// coordinate in Point and the kernel handles the z axis itself; geometry
// restrictors (polygons, lines) are planar with an optional z-span filter at
// the restriction layer.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Point is the moving-point base value: a 2D or 3D position. Geodetic
// interpretation (lon/lat degrees) is a property of the owning temporal
// value, not of the point.
type Point struct {
	X, Y, Z float64
	HasZ    bool
}

// MakePoint builds a 2D point.
func MakePoint(x, y float64) Point { return Point{X: x, Y: y} }

// MakePointZ builds a 3D point.
func MakePointZ(x, y, z float64) Point { return Point{X: x, Y: y, Z: z, HasZ: true} }

// Orb projects the point to orb's 2D representation.
func (p Point) Orb() orb.Point { return orb.Point{p.X, p.Y} }

func (p Point) String() string {
	if p.HasZ {
		return fmt.Sprintf("POINT Z (%g %g %g)", p.X, p.Y, p.Z)
	}
	return fmt.Sprintf("POINT (%g %g)", p.X, p.Y)
}

// Equal reports exact coordinate equality, including dimensionality.
func (p Point) Equal(o Point) bool {
	return p.X == o.X && p.Y == o.Y && p.HasZ == o.HasZ && (!p.HasZ || p.Z == o.Z)
}

// EqualEps reports coordinate equality within eps on every axis.
func (p Point) EqualEps(o Point, eps float64) bool {
	if p.HasZ != o.HasZ {
		return false
	}
	if math.Abs(p.X-o.X) >= eps || math.Abs(p.Y-o.Y) >= eps {
		return false
	}
	return !p.HasZ || math.Abs(p.Z-o.Z) < eps
}

// Distance returns the planar Euclidean distance, using z when both points
// carry it.
func (p Point) Distance(o Point) float64 {
	dx, dy := p.X-o.X, p.Y-o.Y
	if p.HasZ && o.HasZ {
		dz := p.Z - o.Z
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return math.Hypot(dx, dy)
}

// DistanceGeodetic returns the great-circle distance in meters between two
// lon/lat points.
func (p Point) DistanceGeodetic(o Point) float64 {
	return orbgeo.Distance(p.Orb(), o.Orb())
}

// Geom is an opaque geometry handle: an orb geometry plus SRID.
type Geom struct {
	G    orb.Geometry
	SRID int32
}

// FromOrb wraps an orb geometry.
func FromOrb(g orb.Geometry, srid int32) Geom { return Geom{G: g, SRID: srid} }

// IsEmpty reports a nil or empty geometry.
func (g Geom) IsEmpty() bool {
	if g.G == nil {
		return true
	}
	switch v := g.G.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiLineString:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0
	case orb.MultiPolygon:
		return len(v) == 0
	case orb.Collection:
		return len(v) == 0
	}
	return false
}

// Type returns orb's geometry tag ("Point", "Polygon", ...).
func (g Geom) Type() string {
	if g.G == nil {
		return ""
	}
	return g.G.GeoJSONType()
}

// WKT serializes through orb's encoder.
func (g Geom) WKT() string { return wkt.MarshalString(g.G) }

// WKB serializes through orb's encoder.
func (g Geom) WKB() ([]byte, error) { return wkb.Marshal(g.G) }

// ParseWKT parses through orb's decoder.
func ParseWKT(s string, srid int32) (Geom, error) {
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return Geom{}, fmt.Errorf("%w: %v", terrors.ErrInvalidArg, err)
	}
	return Geom{G: g, SRID: srid}, nil
}

// ParseWKB parses through orb's decoder.
func ParseWKB(b []byte, srid int32) (Geom, error) {
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return Geom{}, fmt.Errorf("%w: %v", terrors.ErrInvalidArg, err)
	}
	return Geom{G: g, SRID: srid}, nil
}

// MakeLine builds a linestring geometry from points.
func MakeLine(pts []Point, srid int32) Geom {
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = p.Orb()
	}
	return Geom{G: ls, SRID: srid}
}

// MakeGeomPoint builds a point geometry.
func MakeGeomPoint(p Point, srid int32) Geom { return Geom{G: p.Orb(), SRID: srid} }

// ContainsPoint reports whether the geometry covers the 2D point. Boundary
// points count as inside; the restriction layer resolves boundary ownership.
func (g Geom) ContainsPoint(p Point) bool {
	pt := p.Orb()
	switch v := g.G.(type) {
	case orb.Point:
		return pointsCoincide(v, pt)
	case orb.MultiPoint:
		for _, m := range v {
			if pointsCoincide(m, pt) {
				return true
			}
		}
		return false
	case orb.LineString:
		return pointOnLine(v, pt)
	case orb.MultiLineString:
		for _, ls := range v {
			if pointOnLine(ls, pt) {
				return true
			}
		}
		return false
	case orb.Ring:
		return planar.RingContains(v, pt)
	case orb.Polygon:
		return planar.PolygonContains(v, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(v, pt)
	case orb.Collection:
		for _, m := range v {
			if (Geom{G: m, SRID: g.SRID}).ContainsPoint(p) {
				return true
			}
		}
		return false
	}
	return false
}

func pointsCoincide(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) < coordEps && math.Abs(a[1]-b[1]) < coordEps
}

func pointOnLine(ls orb.LineString, p orb.Point) bool {
	for i := 0; i+1 < len(ls); i++ {
		if distPointSegment(p, ls[i], ls[i+1]) < coordEps {
			return true
		}
	}
	return false
}

// DistanceToPoint returns the planar distance from the geometry to a point,
// 0 when the geometry covers it.
func (g Geom) DistanceToPoint(p Point) float64 {
	if g.IsEmpty() {
		return math.Inf(1)
	}
	if g.ContainsPoint(p) {
		return 0
	}
	pt := p.Orb()
	best := math.Inf(1)
	switch v := g.G.(type) {
	case orb.Point:
		best = planar.Distance(v, pt)
	case orb.MultiPoint:
		for _, m := range v {
			best = math.Min(best, planar.Distance(m, pt))
		}
	case orb.Collection:
		for _, m := range v {
			best = math.Min(best, (Geom{G: m, SRID: g.SRID}).DistanceToPoint(p))
		}
	default:
		for _, e := range g.Segments() {
			best = math.Min(best, distPointSegment(pt, e[0], e[1]))
		}
	}
	return best
}

// DWithinPoint reports distance(g, p) <= d.
func (g Geom) DWithinPoint(p Point, d float64) bool {
	return g.DistanceToPoint(p) <= d
}

// Boundary returns the boundary of a polygon (its rings as lines), the
// endpoints of a line, or an empty geometry for points.
func (g Geom) Boundary() Geom {
	switch v := g.G.(type) {
	case orb.Polygon:
		mls := make(orb.MultiLineString, len(v))
		for i, ring := range v {
			mls[i] = orb.LineString(ring)
		}
		return Geom{G: mls, SRID: g.SRID}
	case orb.LineString:
		if len(v) == 0 {
			return Geom{G: orb.MultiPoint{}, SRID: g.SRID}
		}
		return Geom{G: orb.MultiPoint{v[0], v[len(v)-1]}, SRID: g.SRID}
	default:
		return Geom{G: orb.MultiPoint{}, SRID: g.SRID}
	}
}

// Rings yields every ring of a polygonal geometry as a closed point slice.
func (g Geom) Rings() []orb.Ring {
	switch v := g.G.(type) {
	case orb.Ring:
		return []orb.Ring{v}
	case orb.Polygon:
		return v
	case orb.MultiPolygon:
		var out []orb.Ring
		for _, poly := range v {
			out = append(out, poly...)
		}
		return out
	case orb.Collection:
		var out []orb.Ring
		for _, m := range v {
			out = append(out, (Geom{G: m}).Rings()...)
		}
		return out
	}
	return nil
}

// Segments yields every edge of a lineal or polygonal geometry.
func (g Geom) Segments() [][2]orb.Point {
	var out [][2]orb.Point
	emit := func(pts []orb.Point) {
		for i := 0; i+1 < len(pts); i++ {
			out = append(out, [2]orb.Point{pts[i], pts[i+1]})
		}
	}
	switch v := g.G.(type) {
	case orb.LineString:
		emit(v)
	case orb.MultiLineString:
		for _, ls := range v {
			emit(ls)
		}
	case orb.Ring:
		emit(v)
	case orb.Polygon, orb.MultiPolygon, orb.Collection:
		for _, r := range g.Rings() {
			emit(r)
		}
		if c, ok := v.(orb.Collection); ok {
			for _, m := range c {
				switch m.(type) {
				case orb.LineString, orb.MultiLineString:
					out = append(out, (Geom{G: m}).Segments()...)
				}
			}
		}
	}
	return out
}

// Transformer is the SRID registry / projection collaborator. The engine
// never reprojects on its own; a host wires an implementation in and the
// registry location comes from the configuration.
type Transformer interface {
	// Transform reprojects a geometry into the target SRID.
	Transform(g Geom, targetSRID int32) (Geom, error)

	// TransformPipeline reprojects along an explicit projection pipeline,
	// forward or inverse.
	TransformPipeline(g Geom, pipeline string, targetSRID int32, forward bool) (Geom, error)
}
