package route

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailrunner/internal/activity"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Col</name>
    <trkseg>
      <trkpt lat="45.0000" lon="6.0000"><ele>1000</ele></trkpt>
      <trkpt lat="45.0010" lon="6.0000"><ele>1010</ele></trkpt>
      <trkpt lat="45.0020" lon="6.0000"></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="45.0030" lon="6.0000"><ele>1030</ele></trkpt>
      <trkpt lat="45.0040" lon="6.0000"><ele>1000</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

func elev(v float64) *float64 { return &v }

// line builds a trace heading north in steps of about 111 m.
func line(alts ...float64) *Trace {
	pts := make([]Point, len(alts))
	for i, a := range alts {
		pts[i] = Point{Lat: 45 + float64(i)*0.001, Lon: 6, Elevation: elev(a)}
	}
	t, err := NewTrace(pts)
	if err != nil {
		panic(err)
	}
	return t
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(45, 6, 45, 6), 1e-9)
	// one degree of latitude
	assert.InDelta(t, 111195, Haversine(0, 0, 1, 0), 1)
	assert.InDelta(t, Haversine(45, 6, 46, 7), Haversine(46, 7, 45, 6), 1e-6)
}

func TestParseGPX(t *testing.T) {
	tr, err := ParseGPX(strings.NewReader(sampleGPX))
	require.NoError(t, err)

	require.Equal(t, 4, tr.Len(), "point without ele dropped, segments joined")
	assert.Equal(t, 0.0, tr.DistanceM[0])
	assert.Equal(t, []float64{1000, 1010, 1030, 1000}, tr.Altitudes())
	for i := 1; i < tr.Len(); i++ {
		assert.Greater(t, tr.DistanceM[i], tr.DistanceM[i-1])
	}
	// the dropped point does not break the distance chain
	assert.InDelta(t, Haversine(45.001, 6, 45.003, 6), tr.DistanceM[2]-tr.DistanceM[1], 1e-6)
}

func TestParseGPXErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not xml", "this is not a gpx", ErrMalformedTrace},
		{"truncated", `<gpx><trk><trkseg><trkpt lat="1" lon="1">`, ErrMalformedTrace},
		{"no elevation", `<gpx><trk><trkseg>
			<trkpt lat="1" lon="1"></trkpt><trkpt lat="1.1" lon="1"></trkpt>
			</trkseg></trk></gpx>`, ErrNotEnoughPoints},
		{"single point", `<gpx><trk><trkseg>
			<trkpt lat="1" lon="1"><ele>5</ele></trkpt>
			</trkseg></trk></gpx>`, ErrNotEnoughPoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGPX(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var te *TraceError
			require.ErrorAs(t, err, &te)
			assert.NotEmpty(t, te.Reason)
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	gpxPath := filepath.Join(dir, "race.GPX")
	require.NoError(t, os.WriteFile(gpxPath, []byte(sampleGPX), 0o600))
	tr, err := ParseFile(gpxPath)
	require.NoError(t, err)
	assert.Equal(t, 4, tr.Len())

	_, err = ParseFile(filepath.Join(dir, "race.kml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	badPath := filepath.Join(dir, "bad.gpx")
	require.NoError(t, os.WriteFile(badPath, []byte("<gpx>"), 0o600))
	_, err = ParseFile(badPath)
	var te *TraceError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "bad.gpx", te.Source)
	assert.Contains(t, err.Error(), "bad.gpx")
}

func TestParseFITGarbage(t *testing.T) {
	_, err := ParseFIT(bytes.NewReader([]byte("definitely not a fit file")))
	require.Error(t, err)
	var te *TraceError
	assert.ErrorAs(t, err, &te)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		slope float64
		want  SlopeClass
	}{
		{0, Flat},
		{3, Flat},
		{-3, Flat},
		{3.01, GentleUphill},
		{6, GentleUphill},
		{10, ModerateUphill},
		{15, SteepUphill},
		{15.5, VerySteepUphill},
		{-6, GentleDownhill},
		{-10, ModerateDownhill},
		{-15, SteepDownhill},
		{-40, VerySteepDownhill},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.slope), "slope %v", tt.slope)
	}
}

func TestAnalyze(t *testing.T) {
	tr := line(100, 110, 105, 105, 130)
	p := Analyze(tr)

	assert.InDelta(t, tr.DistanceM[4], p.TotalDistanceM, 1e-9)
	assert.Equal(t, 35.0, p.PositiveElevationM)
	assert.Equal(t, 5.0, p.NegativeElevationM)
	assert.Equal(t, 100.0, p.AltitudeMin)
	assert.Equal(t, 130.0, p.AltitudeMax)
	assert.InDelta(t, 110, p.AltitudeAvg, 1e-9)
	assert.Equal(t, 4, p.Segments)

	step := tr.DistanceM[1]
	assert.InDelta(t, 25/step*100, p.SlopeMax, 1e-9)
	assert.InDelta(t, -5/step*100, p.SlopeMin, 1e-9)

	total := 0
	pct := 0.0
	for _, b := range p.Distribution {
		total += b.Count
		pct += b.Percent
	}
	assert.Equal(t, p.Segments, total)
	assert.InDelta(t, 100, pct, 1e-9)
	assert.Len(t, p.Distribution, 9)

	flat := p.Bucket(Flat)
	assert.Equal(t, 1, flat.Count)
	assert.InDelta(t, p.TotalDistanceM/4, flat.DistanceM, 1e-9)
	assert.InDelta(t, step, flat.ExactDistanceM, 0.01)
	assert.Equal(t, 1, p.Bucket(ModerateUphill).Count)
	assert.Equal(t, 1, p.Bucket(VerySteepUphill).Count)
	assert.Equal(t, 1, p.Bucket(GentleDownhill).Count)
}

func TestAnalyzeSkipsZeroLengthSegments(t *testing.T) {
	pts := []Point{
		{Lat: 45, Lon: 6, Elevation: elev(100)},
		{Lat: 45, Lon: 6, Elevation: elev(104)},
		{Lat: 45.001, Lon: 6, Elevation: elev(104)},
	}
	tr, err := NewTrace(pts)
	require.NoError(t, err)

	p := Analyze(tr)
	assert.Equal(t, 1, p.Segments)
	assert.Equal(t, 4.0, p.PositiveElevationM, "climbing still counts on stationary pairs")
	assert.Equal(t, 1, p.Bucket(Flat).Count)
}

func TestAnalyzeStationaryTrace(t *testing.T) {
	tr, err := NewTrace([]Point{
		{Lat: 45, Lon: 6, Elevation: elev(100)},
		{Lat: 45, Lon: 6, Elevation: elev(101)},
	})
	require.NoError(t, err)

	p := Analyze(tr)
	assert.Equal(t, 0, p.Segments)
	assert.False(t, math.IsNaN(p.SlopeAvg))
	for _, b := range p.Distribution {
		assert.Zero(t, b.Percent)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name      string
		env       TrainingEnvelope
		race      RaceDemand
		score     float64
		band      ReadinessBand
		weeks     int
		distLevel AdviceLevel
		elevLevel AdviceLevel
	}{
		{
			name:      "ready",
			env:       TrainingEnvelope{MaxDistanceKm: 30, MaxElevationM: 1500},
			race:      RaceDemand{DistanceKm: 30, ElevationM: 1500},
			score:     100,
			band:      BandReady,
			weeks:     4,
			distLevel: AdviceOK,
			elevLevel: AdviceOK,
		},
		{
			name:      "improving",
			env:       TrainingEnvelope{MaxDistanceKm: 21, MaxElevationM: 900},
			race:      RaceDemand{DistanceKm: 30, ElevationM: 1500},
			score:     65,
			band:      BandImproving,
			weeks:     8,
			distLevel: AdviceInfo,
			elevLevel: AdviceInfo,
		},
		{
			name:      "needs work",
			env:       TrainingEnvelope{MaxDistanceKm: 10, MaxElevationM: 300},
			race:      RaceDemand{DistanceKm: 40, ElevationM: 2000},
			score:     20,
			band:      BandNeedsWork,
			weeks:     12,
			distLevel: AdviceWarning,
			elevLevel: AdviceWarning,
		},
		{
			name:      "capped above race",
			env:       TrainingEnvelope{MaxDistanceKm: 50, MaxElevationM: 100},
			race:      RaceDemand{DistanceKm: 25, ElevationM: 1000},
			score:     55,
			band:      BandImproving,
			weeks:     8,
			distLevel: AdviceOK,
			elevLevel: AdviceWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Readiness(tt.env, tt.race)
			assert.InDelta(t, tt.score, r.Score, 1e-9)
			assert.Equal(t, tt.band, r.Band)
			assert.Equal(t, tt.weeks, r.WeeksNeeded)
			assert.Equal(t, tt.distLevel, r.DistanceAdvice.Level)
			assert.Equal(t, tt.elevLevel, r.ElevationAdvice.Level)
			assert.LessOrEqual(t, r.DistanceScore, 100.0)
			assert.LessOrEqual(t, r.ElevationScore, 100.0)
		})
	}

	r := Readiness(TrainingEnvelope{MaxDistanceKm: 21, MaxElevationM: 900}, RaceDemand{DistanceKm: 30, ElevationM: 1500})
	assert.InDelta(t, 24, r.DistanceAdvice.Target, 1e-9)
	assert.InDelta(t, 1050, r.ElevationAdvice.Target, 1e-9)
	assert.InDelta(t, 5, r.RaceElevationPct, 1e-9)
}

func TestEnvelope(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mk := func(daysAgo int, km, elev float64) activity.Record {
		return activity.Renormalize([]activity.Record{{
			StartDate:      now.AddDate(0, 0, -daysAgo),
			DistanceM:      km * 1000,
			ElevationGainM: elev,
		}})[0]
	}
	records := []activity.Record{
		mk(3, 20, 800),
		mk(10, 12, 200),
		mk(70, 42, 2500), // outside the window
	}

	env := Envelope(records, now)
	assert.Equal(t, 2, env.Activities)
	assert.Equal(t, 20.0, env.MaxDistanceKm)
	assert.Equal(t, 800.0, env.MaxElevationM)
	assert.InDelta(t, 4, env.WeeklyDistanceKm(), 1e-9)
	assert.InDelta(t, 125, env.WeeklyElevationM(), 1e-9)
	assert.InDelta(t, (4.0+200.0/12000*100)/2, env.AvgElevationPct, 1e-9)
}
