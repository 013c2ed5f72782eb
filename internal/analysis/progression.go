package analysis

import "errors"

// monthlyCeilingPct is the improvement per month considered sustainable
const monthlyCeilingPct = 2.5

// weeksPerMonth converts weekly rates to monthly ones
const weeksPerMonth = 4.33

var ErrNoWeeks = errors.New("weeks available must be positive")

// Feasibility is the verdict on a target time
type Feasibility string

const (
	Realistic     Feasibility = "Realistic"
	Ambitious     Feasibility = "Ambitious"
	VeryAmbitious Feasibility = "Very ambitious"
)

// ProgressionPlan describes the improvement needed to reach a target time
type ProgressionPlan struct {
	TimeDiffS         float64
	TimeDiffPct       float64
	WeeklyImproveS    float64
	WeeklyImprovePct  float64
	MonthlyImprovePct float64
	Feasibility       Feasibility
	Difficulty        string
}

// Progression computes the weekly and monthly improvement needed to go from
// currentS to targetS within weeks, and classifies it.
func Progression(currentS, targetS, weeks float64) (ProgressionPlan, error) {
	if weeks <= 0 {
		return ProgressionPlan{}, ErrNoWeeks
	}
	if currentS <= 0 {
		return ProgressionPlan{}, errors.New("current time must be positive")
	}

	diff := currentS - targetS
	diffPct := diff / currentS * 100
	weeklyPct := diffPct / weeks
	monthly := weeks / weeksPerMonth * weeklyPct

	plan := ProgressionPlan{
		TimeDiffS:         diff,
		TimeDiffPct:       diffPct,
		WeeklyImproveS:    diff / weeks,
		WeeklyImprovePct:  weeklyPct,
		MonthlyImprovePct: monthly,
	}

	switch {
	case monthly <= monthlyCeilingPct:
		plan.Feasibility = Realistic
		plan.Difficulty = "Moderate"
		if monthly < monthlyCeilingPct*0.6 {
			plan.Difficulty = "Easy"
		}
	case monthly <= monthlyCeilingPct*1.5:
		plan.Feasibility = Ambitious
		plan.Difficulty = "Hard"
	default:
		plan.Feasibility = VeryAmbitious
		plan.Difficulty = "Very hard"
	}
	return plan, nil
}
