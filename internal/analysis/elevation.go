package analysis

// RunnerLevel selects the climbing penalty of the elevation model
type RunnerLevel string

const (
	Beginner     RunnerLevel = "beginner"
	Intermediate RunnerLevel = "intermediate"
	Advanced     RunnerLevel = "advanced"
)

// penaltyPer100m is the extra minutes per 100 m of climbing
var penaltyPer100m = map[RunnerLevel]float64{
	Beginner:     6.0,
	Intermediate: 4.5,
	Advanced:     3.0,
}

// PenaltyPer100m returns the level's minutes per 100 m, intermediate if unknown.
func (l RunnerLevel) PenaltyPer100m() float64 {
	if p, ok := penaltyPer100m[l]; ok {
		return p
	}
	return penaltyPer100m[Intermediate]
}

// ElevationAdjustment breaks down an elevation-adjusted prediction
type ElevationAdjustment struct {
	FlatTimeS     float64
	PenaltyS      float64 // before fatigue
	FatigueFactor float64
	AdjustedTimeS float64
}

// AdjustForElevation adds the climbing cost to a flat-terrain time. The
// penalty grows with distance through a fatigue factor; the flat time does not.
func AdjustForElevation(flatTimeS, elevationGainM, distanceM float64, level RunnerLevel) ElevationAdjustment {
	penalty := elevationGainM / 100 * level.PenaltyPer100m() * 60
	fatigue := 1 + (distanceM/1000/100)*0.1

	return ElevationAdjustment{
		FlatTimeS:     flatTimeS,
		PenaltyS:      penalty,
		FatigueFactor: fatigue,
		AdjustedTimeS: flatTimeS + penalty*fatigue,
	}
}
