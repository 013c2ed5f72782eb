package route

import (
	"fmt"
	"io"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

const (
	invalidAltitude  = 0xFFFF
	invalidPosition  = 0x7FFFFFFF
	semicirclesToDeg = 11930464.7111 // 2^31 / 180
)

// ParseFIT reads the record messages of a FIT activity or course file.
// Records without a position are skipped, records without altitude keep a
// nil elevation and are then dropped like GPX points without <ele>.
func ParseFIT(r io.Reader) (*Trace, error) {
	dec := decoder.New(r)

	var points []Point
	for dec.Next() {
		fit, err := dec.Decode()
		if err != nil {
			return nil, &TraceError{Reason: fmt.Sprintf("decoding FIT: %v", err), Err: ErrMalformedTrace}
		}
		for i := range fit.Messages {
			if fit.Messages[i].Num != typedef.MesgNumRecord {
				continue
			}
			if p, ok := fitPoint(&fit.Messages[i]); ok {
				points = append(points, p)
			}
		}
	}
	return NewTrace(points)
}

func fitPoint(msg *proto.Message) (Point, bool) {
	rec := mesgdef.NewRecord(msg)
	if rec.PositionLat == invalidPosition || rec.PositionLong == invalidPosition {
		return Point{}, false
	}

	p := Point{
		Lat: float64(rec.PositionLat) / semicirclesToDeg,
		Lon: float64(rec.PositionLong) / semicirclesToDeg,
	}
	if rec.Altitude != invalidAltitude {
		alt := float64(rec.Altitude)/5 - 500
		p.Elevation = &alt
	}
	return p, true
}
