package route

import (
	"encoding/xml"
	"io"
)

type gpxPoint struct {
	Lat       float64  `xml:"lat,attr"`
	Lon       float64  `xml:"lon,attr"`
	Elevation *float64 `xml:"ele"`
}

type gpxDoc struct {
	XMLName xml.Name `xml:"gpx"`
	Tracks  []struct {
		Segments []struct {
			Points []gpxPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

// ParseGPX reads every track point of every segment of every track, in
// document order. Points without <ele> are dropped.
func ParseGPX(r io.Reader) (*Trace, error) {
	var doc gpxDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &TraceError{Reason: err.Error(), Err: ErrMalformedTrace}
	}

	var points []Point
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				points = append(points, Point{Lat: p.Lat, Lon: p.Lon, Elevation: p.Elevation})
			}
		}
	}
	return NewTrace(points)
}
