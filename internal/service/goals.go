package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trailrunner/internal/analysis"
	"trailrunner/internal/store"
)

// GoalInput is the user-editable part of a race goal. Zero pace and penalty
// use the estimation defaults.
type GoalInput struct {
	Name             string
	Date             time.Time
	DistanceKm       float64
	ElevationM       float64
	RaceType         store.RaceType
	PaceEstimation   float64
	ElevationPenalty float64
}

func (in GoalInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("goal name is required")
	}
	if in.Date.IsZero() {
		return errors.New("goal date is required")
	}
	if in.DistanceKm <= 0 {
		return errors.New("goal distance must be positive")
	}
	if in.ElevationM < 0 {
		return errors.New("goal elevation must not be negative")
	}
	return nil
}

// GoalService manages race goals and season progress
type GoalService struct {
	store     *store.Store
	query     *QueryService
	athleteID int64
	now       func() time.Time
}

// NewGoalService creates a goal service for one athlete
func NewGoalService(st *store.Store, query *QueryService, athleteID int64) *GoalService {
	return &GoalService{store: st, query: query, athleteID: athleteID, now: time.Now}
}

// Create stores a new goal with a fresh id and an estimated finish time
func (s *GoalService) Create(in GoalInput) (*store.RaceGoal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	g := &store.RaceGoal{
		ID:        uuid.New().String(),
		AthleteID: s.athleteID,
		CreatedAt: s.now().UTC(),
	}
	apply(g, in)
	if err := s.store.SaveGoal(g); err != nil {
		return nil, fmt.Errorf("saving goal: %w", err)
	}
	return g, nil
}

// Update replaces the editable fields of an existing goal
func (s *GoalService) Update(id string, in GoalInput) (*store.RaceGoal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	g, err := s.store.GetGoal(s.athleteID, id)
	if err != nil {
		return nil, err
	}
	apply(g, in)
	if err := s.store.UpdateGoal(g); err != nil {
		return nil, fmt.Errorf("updating goal: %w", err)
	}
	return g, nil
}

// Delete removes a goal
func (s *GoalService) Delete(id string) error {
	return s.store.DeleteGoal(s.athleteID, id)
}

// List returns the goals ordered by race date
func (s *GoalService) List() ([]store.RaceGoal, error) {
	return s.store.ListGoals(s.athleteID)
}

func apply(g *store.RaceGoal, in GoalInput) {
	g.Name = strings.TrimSpace(in.Name)
	g.Date = in.Date
	g.DistanceKm = in.DistanceKm
	g.ElevationM = in.ElevationM
	g.RaceType = in.RaceType
	if g.RaceType == "" {
		g.RaceType = store.RaceTrail
	}
	g.PaceEstimation = in.PaceEstimation
	if g.PaceEstimation <= 0 {
		g.PaceEstimation = analysis.DefaultGoalPace
	}
	g.ElevationPenalty = in.ElevationPenalty
	if g.ElevationPenalty <= 0 {
		g.ElevationPenalty = analysis.DefaultGoalPenalty
	}
	g.EstimatedTimeHours = analysis.EstimateGoalTime(g.DistanceKm, g.ElevationM, g.PaceEstimation, g.ElevationPenalty)
}

// SeasonReport is the progress of every goal against season training
type SeasonReport struct {
	SeasonStart time.Time
	Totals      analysis.TrainingTotals
	Goals       []analysis.GoalProgress
}

// Season sums training since the season start and measures each goal.
// Past goals are included with a negative countdown.
func (s *GoalService) Season() (*SeasonReport, error) {
	goals, err := s.List()
	if err != nil {
		return nil, err
	}

	rep := &SeasonReport{SeasonStart: analysis.SeasonStart(goals)}
	if len(goals) == 0 {
		return rep, nil
	}

	records, err := s.query.Activities(Window{From: rep.SeasonStart})
	if err != nil {
		return nil, err
	}
	rep.Totals = analysis.Totals(records)

	now := s.now()
	for _, g := range goals {
		rep.Goals = append(rep.Goals, analysis.Progress(g, rep.Totals, now))
	}
	return rep, nil
}
