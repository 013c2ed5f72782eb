package route

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

const earthRadiusM = 6371000.0

var (
	// ErrNotEnoughPoints is returned when a trace has fewer than two points with elevation
	ErrNotEnoughPoints = errors.New("not enough points with elevation (minimum 2)")
	// ErrMalformedTrace is returned when the file cannot be decoded
	ErrMalformedTrace = errors.New("malformed trace file")
	// ErrUnsupportedFormat is returned by ParseFile for unknown extensions
	ErrUnsupportedFormat = errors.New("unsupported trace format")
)

// TraceError describes why a route file could not be used. It unwraps to
// one of the package sentinels.
type TraceError struct {
	Source string
	Reason string
	Err    error
}

func (e *TraceError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%s: %v: %s", e.Source, e.Err, e.Reason)
}

func (e *TraceError) Unwrap() error { return e.Err }

// Point is one position on a route. Elevation is nil when the source had none.
type Point struct {
	Lat       float64
	Lon       float64
	Elevation *float64
}

// Trace is an ordered list of points with elevation and their cumulative
// distance from the first point.
type Trace struct {
	Points    []Point
	DistanceM []float64
}

// Len returns the number of points
func (t *Trace) Len() int { return len(t.Points) }

// Altitudes returns the elevation of every point
func (t *Trace) Altitudes() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = *p.Elevation
	}
	return out
}

// NewTrace keeps the points that carry an elevation and accumulates the
// haversine distance between consecutive kept points.
func NewTrace(points []Point) (*Trace, error) {
	t := &Trace{}
	for _, p := range points {
		if p.Elevation == nil {
			continue
		}
		d := 0.0
		if n := len(t.Points); n > 0 {
			prev := t.Points[n-1]
			d = t.DistanceM[n-1] + Haversine(prev.Lat, prev.Lon, p.Lat, p.Lon)
		}
		t.Points = append(t.Points, p)
		t.DistanceM = append(t.DistanceM, d)
	}

	if len(t.Points) < 2 {
		return nil, &TraceError{
			Reason: fmt.Sprintf("found %d of %d points with elevation", len(t.Points), len(points)),
			Err:    ErrNotEnoughPoints,
		}
	}
	return t, nil
}

// Haversine returns the great-circle distance in meters between two coordinates
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// ParseFile opens a .gpx or .fit file and parses it by extension
func ParseFile(path string) (*Trace, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var parse func(f *os.File) (*Trace, error)
	switch ext {
	case ".gpx":
		parse = func(f *os.File) (*Trace, error) { return ParseGPX(f) }
	case ".fit":
		parse = func(f *os.File) (*Trace, error) { return ParseFIT(f) }
	default:
		return nil, &TraceError{Source: path, Reason: fmt.Sprintf("extension %q", ext), Err: ErrUnsupportedFormat}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening route file: %w", err)
	}
	defer f.Close()

	t, err := parse(f)
	if err != nil {
		var te *TraceError
		if errors.As(err, &te) && te.Source == "" {
			te.Source = filepath.Base(path)
		}
		log.WithField("path", path).WithError(err).Warn("Route parse failed")
		return nil, err
	}

	log.WithFields(log.Fields{
		"path":   path,
		"points": t.Len(),
		"km":     t.DistanceM[t.Len()-1] / 1000,
	}).Debug("Route parsed")
	return t, nil
}
