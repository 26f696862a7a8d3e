// Package gradebook contains the grade-computation core: student records,
// the grading policy, and the deterministic transformation from raw scores
// into weighted final grades and letter grades.
//
// Every operation in this package is a pure function of its inputs. Missing
// data is modeled as an explicit unknown Score, never as a sentinel inside
// the 0-100 range, and unknowns propagate: a record without both exam scores
// has no final grade, and an unknown final grade maps to the N/A letter.
package gradebook

import (
	"encoding/json"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE VALUE OBJECT
// ══════════════════════════════════════════════════════════════════════════════

// Score is a numeric score that may be unknown. The zero value is unknown.
type Score struct {
	value float64
	known bool
}

// NewScore creates a known Score.
func NewScore(v float64) Score {
	return Score{value: v, known: true}
}

// UnknownScore returns the unknown Score.
func UnknownScore() Score {
	return Score{}
}

// ScoreFromPtr converts an optional float into a Score. A nil pointer is unknown.
func ScoreFromPtr(p *float64) Score {
	if p == nil {
		return UnknownScore()
	}
	return NewScore(*p)
}

// Known reports whether the score holds a value.
func (s Score) Known() bool {
	return s.known
}

// Value returns the numeric value. It is only meaningful when Known is true.
func (s Score) Value() float64 {
	return s.value
}

// Get returns the value and whether it is known.
func (s Score) Get() (float64, bool) {
	return s.value, s.known
}

// Ptr returns the value as an optional float for persistence. Unknown is nil.
func (s Score) Ptr() *float64 {
	if !s.known {
		return nil
	}
	v := s.value
	return &v
}

// InRange reports whether the score is unknown or within [0, 100].
// Raw inputs are expected to be range-validated by the ingestion layer;
// this is the check that layer applies.
func (s Score) InRange() bool {
	return !s.known || (s.value >= 0 && s.value <= 100)
}

// String returns the score value or "N/A" when unknown.
func (s Score) String() string {
	if !s.known {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", s.value)
}

// MarshalJSON encodes a known score as a number and an unknown score as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.known {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON decodes null as unknown and a number as a known score.
func (s *Score) UnmarshalJSON(data []byte) error {
	var p *float64
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = ScoreFromPtr(p)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LETTER GRADE VALUE OBJECT
// ══════════════════════════════════════════════════════════════════════════════

// Letter is a letter grade.
type Letter string

const (
	LetterA  Letter = "A"
	LetterB  Letter = "B"
	LetterC  Letter = "C"
	LetterD  Letter = "D"
	LetterF  Letter = "F"
	LetterNA Letter = "N/A"
)

// Letters is the closed set of letter grades, in display order.
var Letters = []Letter{LetterA, LetterB, LetterC, LetterD, LetterF, LetterNA}

// IsValid reports whether the letter belongs to the closed grade set.
func (l Letter) IsValid() bool {
	switch l {
	case LetterA, LetterB, LetterC, LetterD, LetterF, LetterNA:
		return true
	}
	return false
}

// String returns the string representation.
func (l Letter) String() string {
	return string(l)
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT RECORD
// ══════════════════════════════════════════════════════════════════════════════

// NumQuizzes is the number of quiz slots per student record.
const NumQuizzes = 5

// UnknownSection is the grouping key for records without a section.
const UnknownSection = "Unknown"

// StudentRecord holds one student's raw and derived performance data.
//
// Raw fields are immutable once ingested. Derived fields are write-once
// outputs of Enrich, computed solely from the record's own raw fields plus
// the grading policy - never from other records.
type StudentRecord struct {
	// Identity
	StudentID string `json:"student_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Section   string `json:"section"`

	// Raw inputs, each in [0,100] or unknown.
	Quizzes    [NumQuizzes]Score `json:"quizzes"`
	Midterm    Score             `json:"midterm"`
	Final      Score             `json:"final"`
	Attendance Score             `json:"attendance_percent"`

	// Derived fields, absent until computed by Enrich.
	QuizAverage Score  `json:"quiz_average"`
	FinalGrade  Score  `json:"final_grade"`
	LetterGrade Letter `json:"letter_grade"`
	Improvement Score  `json:"improvement"`
}

// FullName returns "First Last" with empty parts trimmed away.
func (r StudentRecord) FullName() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// SectionKey returns the section, or UnknownSection when it is empty.
func (r StudentRecord) SectionKey() string {
	if r.Section == "" {
		return UnknownSection
	}
	return r.Section
}

// HasExams reports whether both midterm and final are known. Records without
// both exams have no defined final grade regardless of other inputs.
func (r StudentRecord) HasExams() bool {
	return r.Midterm.Known() && r.Final.Known()
}

// Graded reports whether the record carries a known derived final grade.
func (r StudentRecord) Graded() bool {
	return r.FinalGrade.Known()
}
