package srs

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultReviewIntervals is the spaced repetition curve in days, indexed by
// mastery level. Levels past the end reuse the last entry.
var DefaultReviewIntervals = []int{1, 3, 7, 14, 30, 60, 90, 180}

// ErrInvalidParams is returned when a ParamsConfig describes an unusable curve.
var ErrInvalidParams = errors.New("invalid SRS parameters")

// Params defines all configurable parameters for the memorization algorithm
type Params struct {
	// ReviewIntervals holds the days until the next review per mastery level.
	// It is non-empty and non-decreasing.
	ReviewIntervals []int

	// InitialReviewDays schedules the first review of a newly started subject.
	InitialReviewDays int

	// Accuracy bands
	ExcellentAccuracy int // at or above: mastery +1, progress + ExcellentProgressGain
	GoodAccuracy      int // at or above: progress + GoodProgressGain; below: progress - PoorProgressPenalty

	ExcellentProgressGain int
	GoodProgressGain      int
	PoorProgressPenalty   int

	// Status thresholds
	MasteredProgress  int
	MasteredLevel     int
	ReviewingProgress int

	// Review priority thresholds, in whole days overdue
	HighPriorityAfterDays int // strictly more than this is high
	LowPriorityBelowDays  int // strictly less than this is low
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values keep the defaults.
type ParamsConfig struct {
	ReviewIntervals   []int
	InitialReviewDays int

	ExcellentAccuracy int
	GoodAccuracy      int

	ExcellentProgressGain int
	GoodProgressGain      int
	PoorProgressPenalty   int

	MasteredProgress  int
	MasteredLevel     int
	ReviewingProgress int

	HighPriorityAfterDays int
	LowPriorityBelowDays  int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		ReviewIntervals:   slices.Clone(DefaultReviewIntervals),
		InitialReviewDays: 1,

		ExcellentAccuracy: 90,
		GoodAccuracy:      70,

		ExcellentProgressGain: 10,
		GoodProgressGain:      5,
		PoorProgressPenalty:   5,

		MasteredProgress:  100,
		MasteredLevel:     3,
		ReviewingProgress: 50,

		HighPriorityAfterDays: 7,
		LowPriorityBelowDays:  2,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if len(config.ReviewIntervals) > 0 {
		params.ReviewIntervals = slices.Clone(config.ReviewIntervals)
	}
	if config.InitialReviewDays > 0 {
		params.InitialReviewDays = config.InitialReviewDays
	}

	// Accuracy bands
	if config.ExcellentAccuracy > 0 {
		params.ExcellentAccuracy = config.ExcellentAccuracy
	}
	if config.GoodAccuracy > 0 {
		params.GoodAccuracy = config.GoodAccuracy
	}

	// Progress steps
	if config.ExcellentProgressGain > 0 {
		params.ExcellentProgressGain = config.ExcellentProgressGain
	}
	if config.GoodProgressGain > 0 {
		params.GoodProgressGain = config.GoodProgressGain
	}
	if config.PoorProgressPenalty > 0 {
		params.PoorProgressPenalty = config.PoorProgressPenalty
	}

	// Status thresholds
	if config.MasteredProgress > 0 {
		params.MasteredProgress = config.MasteredProgress
	}
	if config.MasteredLevel > 0 {
		params.MasteredLevel = config.MasteredLevel
	}
	if config.ReviewingProgress > 0 {
		params.ReviewingProgress = config.ReviewingProgress
	}

	// Priorities
	if config.HighPriorityAfterDays > 0 {
		params.HighPriorityAfterDays = config.HighPriorityAfterDays
	}
	if config.LowPriorityBelowDays > 0 {
		params.LowPriorityBelowDays = config.LowPriorityBelowDays
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks that the interval curve is usable and that the accuracy
// bands are ordered.
func (p *Params) Validate() error {
	if len(p.ReviewIntervals) == 0 {
		return fmt.Errorf("%w: review intervals cannot be empty", ErrInvalidParams)
	}
	for i, days := range p.ReviewIntervals {
		if days < 1 {
			return fmt.Errorf("%w: review interval %d must be at least 1 day", ErrInvalidParams, i)
		}
		if i > 0 && days < p.ReviewIntervals[i-1] {
			return fmt.Errorf("%w: review intervals must be non-decreasing", ErrInvalidParams)
		}
	}
	if p.GoodAccuracy > p.ExcellentAccuracy {
		return fmt.Errorf("%w: good accuracy band exceeds excellent band", ErrInvalidParams)
	}
	if p.ExcellentAccuracy > 100 {
		return fmt.Errorf("%w: accuracy bands must be within 0-100", ErrInvalidParams)
	}
	if p.LowPriorityBelowDays > p.HighPriorityAfterDays+1 {
		return fmt.Errorf("%w: low priority window overlaps high priority", ErrInvalidParams)
	}
	return nil
}

// Accuracy bands reported by Band.
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandPoor      = "poor"
)

// Band names the accuracy band a clamped score falls in.
func (p *Params) Band(accuracy int) string {
	switch accuracy = clampAccuracy(accuracy); {
	case accuracy >= p.ExcellentAccuracy:
		return BandExcellent
	case accuracy >= p.GoodAccuracy:
		return BandGood
	default:
		return BandPoor
	}
}
