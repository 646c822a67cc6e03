package tpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/trajectory.engine/internal/geo"
	"github.com/banshee-data/trajectory.engine/internal/temporal"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// MF-JSON (Moving Features JSON) representation of temporal points. The
// encoder emits "type", "interpolation", "crs" for a non-zero SRID, either
// "coordinates" and "datetimes" or, for sequence sets, "sequences" that
// carry their own, and "bbox" for every subtype but the instant; the decoder
// accepts exactly what the encoder produces.

type mfjsonCRS struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

type mfjsonSequence struct {
	Coordinates [][]float64 `json:"coordinates"`
	Datetimes   []string    `json:"datetimes"`
	LowerInc    bool        `json:"lower_inc"`
	UpperInc    bool        `json:"upper_inc"`
}

type mfjsonDoc struct {
	Type          string           `json:"type"`
	CRS           *mfjsonCRS       `json:"crs,omitempty"`
	Coordinates   [][]float64      `json:"coordinates,omitempty"`
	Datetimes     []string         `json:"datetimes,omitempty"`
	Sequences     []mfjsonSequence `json:"sequences,omitempty"`
	LowerInc      *bool            `json:"lower_inc,omitempty"`
	UpperInc      *bool            `json:"upper_inc,omitempty"`
	Interpolation string           `json:"interpolation"`
	BBox          []float64        `json:"bbox,omitempty"`
}

const mfjsonTimeLayout = "2006-01-02T15:04:05.999999Z"

func coordOf(p geo.Point) []float64 {
	if p.HasZ {
		return []float64{p.X, p.Y, p.Z}
	}
	return []float64{p.X, p.Y}
}

func datetimeOf(ts int64) string {
	return time.UnixMicro(ts).UTC().Format(mfjsonTimeLayout)
}

// AsMFJSON serializes a temporal point.
func AsMFJSON(t temporal.Temporal) ([]byte, error) {
	if err := checkPoint(t); err != nil {
		return nil, err
	}
	doc := mfjsonDoc{Type: "MovingPoint"}
	if srid := t.SRID(); srid != 0 {
		doc.CRS = &mfjsonCRS{
			Type:       "Name",
			Properties: map[string]string{"name": fmt.Sprintf("EPSG:%d", srid)},
		}
	}
	switch t.Interpolation() {
	case temporal.InterpLinear:
		doc.Interpolation = "Linear"
	case temporal.InterpStep:
		doc.Interpolation = "Step"
	default:
		doc.Interpolation = "Discrete"
	}
	fill := func(insts []temporal.TInstant) ([][]float64, []string) {
		coords := make([][]float64, len(insts))
		times := make([]string, len(insts))
		for i, in := range insts {
			coords[i] = coordOf(in.Val.P)
			times[i] = datetimeOf(in.T)
		}
		return coords, times
	}
	switch v := t.(type) {
	case *temporal.TInstant, *temporal.TInstantSet:
		doc.Coordinates, doc.Datetimes = fill(t.Instants())
	case *temporal.TSequence:
		doc.Coordinates, doc.Datetimes = fill(v.Instants())
		li, ui := v.LowerInc(), v.UpperInc()
		doc.LowerInc, doc.UpperInc = &li, &ui
	case *temporal.TSequenceSet:
		for _, s := range v.Sequences() {
			coords, times := fill(s.Instants())
			doc.Sequences = append(doc.Sequences, mfjsonSequence{
				Coordinates: coords,
				Datetimes:   times,
				LowerInc:    s.LowerInc(),
				UpperInc:    s.UpperInc(),
			})
		}
	}
	if t.Subtype() != temporal.SubInstant {
		if st, err := temporal.STBoxOf(t); err == nil {
			if st.HasZ {
				doc.BBox = []float64{st.XMin, st.YMin, st.ZMin, st.XMax, st.YMax, st.ZMax}
			} else {
				doc.BBox = []float64{st.XMin, st.YMin, st.XMax, st.YMax}
			}
		}
	}
	return json.Marshal(doc)
}

// FromMFJSON parses a temporal point produced by AsMFJSON. geodetic selects
// the geography base type.
func FromMFJSON(data []byte, geodetic bool) (temporal.Temporal, error) {
	var doc mfjsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: mfjson: %v", terrors.ErrInvalidArg, err)
	}
	if doc.Type != "MovingPoint" {
		return nil, fmt.Errorf("%w: mfjson type %q", terrors.ErrInvalidArg, doc.Type)
	}
	srid := int32(0)
	if doc.CRS != nil {
		fmt.Sscanf(doc.CRS.Properties["name"], "EPSG:%d", &srid)
	}
	var interp temporal.Interp
	switch doc.Interpolation {
	case "Linear":
		interp = temporal.InterpLinear
	case "Step":
		interp = temporal.InterpStep
	case "Discrete":
		interp = temporal.InterpDiscrete
	default:
		return nil, fmt.Errorf("%w: mfjson interpolation %q", terrors.ErrInvalidArg, doc.Interpolation)
	}
	parseInstants := func(coords [][]float64, times []string) ([]temporal.TInstant, error) {
		if len(coords) != len(times) || len(coords) == 0 {
			return nil, fmt.Errorf("%w: mfjson coordinates and datetimes mismatch", terrors.ErrInvalidArg)
		}
		insts := make([]temporal.TInstant, len(coords))
		for i := range coords {
			var p geo.Point
			switch len(coords[i]) {
			case 2:
				p = geo.MakePoint(coords[i][0], coords[i][1])
			case 3:
				p = geo.MakePointZ(coords[i][0], coords[i][1], coords[i][2])
			default:
				return nil, fmt.Errorf("%w: mfjson coordinate arity %d", terrors.ErrInvalidArg, len(coords[i]))
			}
			ts, err := time.Parse(time.RFC3339Nano, times[i])
			if err != nil {
				return nil, fmt.Errorf("%w: mfjson datetime: %v", terrors.ErrInvalidArg, err)
			}
			v := temporal.GeomPoint(p)
			if geodetic {
				v = temporal.GeogPoint(p)
			}
			insts[i] = temporal.TInstant{Val: v, T: ts.UnixMicro()}
		}
		return insts, nil
	}
	if len(doc.Sequences) > 0 {
		seqs := make([]*temporal.TSequence, 0, len(doc.Sequences))
		for _, s := range doc.Sequences {
			insts, err := parseInstants(s.Coordinates, s.Datetimes)
			if err != nil {
				return nil, err
			}
			withSRID(insts, srid)
			seq, err := temporal.NewSequence(insts, s.LowerInc, s.UpperInc, interp, false)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, seq)
		}
		return temporal.NewSequenceSet(seqs, false)
	}
	insts, err := parseInstants(doc.Coordinates, doc.Datetimes)
	if err != nil {
		return nil, err
	}
	withSRID(insts, srid)
	if doc.LowerInc != nil && doc.UpperInc != nil {
		return temporal.NewSequence(insts, *doc.LowerInc, *doc.UpperInc, interp, false)
	}
	if len(insts) == 1 {
		return temporal.NewPointInstant(insts[0].Val, insts[0].T, srid), nil
	}
	return temporal.NewInstantSet(insts)
}

func withSRID(insts []temporal.TInstant, srid int32) {
	if srid == 0 {
		return
	}
	for i := range insts {
		insts[i] = *temporal.NewPointInstant(insts[i].Val, insts[i].T, srid)
	}
}
