package gradebook

import (
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// Weights holds the nominal weight of each grade component. Weights need not
// sum to 1; the final-grade computation renormalizes to the nominal total.
type Weights struct {
	Quizzes    float64 `yaml:"quizzes" json:"quizzes"`
	Midterm    float64 `yaml:"midterm" json:"midterm"`
	Final      float64 `yaml:"final" json:"final"`
	Attendance float64 `yaml:"attendance" json:"attendance"`
}

// Total returns the nominal weight total across all components.
func (w Weights) Total() float64 {
	return w.Quizzes + w.Midterm + w.Final + w.Attendance
}

// Validate checks that no weight is negative.
func (w Weights) Validate() error {
	if w.Quizzes < 0 || w.Midterm < 0 || w.Final < 0 || w.Attendance < 0 {
		return shared.ErrNegativeWeight
	}
	return nil
}

// GradeScale maps a letter to the minimum numeric grade for that letter.
// The scale need not be the canonical {A:90, B:80, C:70, D:60, F:0}; any
// threshold set resolves via greatest-lower-bound selection.
type GradeScale map[Letter]float64

// DefaultGradeScale returns the canonical ten-point scale.
func DefaultGradeScale() GradeScale {
	return GradeScale{
		LetterA: 90,
		LetterB: 80,
		LetterC: 70,
		LetterD: 60,
		LetterF: 0,
	}
}

// Validate checks that the scale has at least one entry.
func (s GradeScale) Validate() error {
	if len(s) == 0 {
		return shared.ErrInvalidGradeScale
	}
	return nil
}

// Policy is the process-wide grading configuration, supplied externally and
// read-only for the grade-computation core.
type Policy struct {
	Weights         Weights    `yaml:"weights" json:"weights"`
	Scale           GradeScale `yaml:"grade_scale" json:"grade_scale"`
	AtRiskThreshold float64    `yaml:"at_risk_threshold" json:"at_risk_threshold"`
}

// DefaultPolicy returns a conventional grading policy: 25% quizzes,
// 30% midterm, 35% final, 10% attendance, at-risk below 60.
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Quizzes:    0.25,
			Midterm:    0.30,
			Final:      0.35,
			Attendance: 0.10,
		},
		Scale:           DefaultGradeScale(),
		AtRiskThreshold: 60,
	}
}

// Validate checks the policy for structural problems. A policy whose weights
// are all zero is structurally valid but yields unknown final grades; the
// core degrades rather than failing loudly.
func (p Policy) Validate() error {
	if err := p.Weights.Validate(); err != nil {
		return err
	}
	return p.Scale.Validate()
}
