package gradebook

import (
	"sort"
)

// QuizAverage returns the unweighted arithmetic mean of the known quiz
// scores, or unknown when no quiz score is known. No outlier handling.
func QuizAverage(r StudentRecord) Score {
	var sum float64
	var n int
	for _, q := range r.Quizzes {
		if v, ok := q.Get(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return UnknownScore()
	}
	return NewScore(sum / float64(n))
}

// FinalGrade computes the weighted final grade for a record.
//
// Both midterm and final must be known, otherwise the result is unknown.
// The weighted sum runs over exactly the known components, and the achieved
// score is rescaled to the nominal weight total so that missing optional
// components (quiz average, attendance) do not deflate the grade. A zero
// accumulated weight yields unknown. No rounding is applied here; rounding
// belongs to presentation.
func FinalGrade(r StudentRecord, w Weights) Score {
	midterm, midtermKnown := r.Midterm.Get()
	final, finalKnown := r.Final.Get()
	if !midtermKnown || !finalKnown {
		return UnknownScore()
	}

	var grade, totalWeight float64

	if quizAvg, ok := QuizAverage(r).Get(); ok {
		grade += quizAvg * w.Quizzes
		totalWeight += w.Quizzes
	}

	grade += midterm * w.Midterm
	totalWeight += w.Midterm

	grade += final * w.Final
	totalWeight += w.Final

	if attendance, ok := r.Attendance.Get(); ok {
		grade += attendance * w.Attendance
		totalWeight += w.Attendance
	}

	if totalWeight <= 0 {
		return UnknownScore()
	}
	return NewScore(grade / totalWeight * w.Total())
}

// LetterFor maps a numeric grade onto the scale: entries are ordered by
// threshold descending and the first letter whose threshold is at or below
// the grade wins. Equal thresholds are broken by letter descending
// (reverse-alphabetical), a fixed documented rule. An unknown grade maps to
// N/A; a grade below every threshold maps to F.
func LetterFor(grade Score, scale GradeScale) Letter {
	g, known := grade.Get()
	if !known {
		return LetterNA
	}

	type entry struct {
		letter Letter
		min    float64
	}
	entries := make([]entry, 0, len(scale))
	for letter, min := range scale {
		entries = append(entries, entry{letter: letter, min: min})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].min != entries[j].min {
			return entries[i].min > entries[j].min
		}
		return entries[i].letter > entries[j].letter
	})

	for _, e := range entries {
		if g >= e.min {
			return e.letter
		}
	}
	return LetterF
}

// Improvement returns the signed midterm-to-final percentage change, or
// unknown when either exam is unknown or the midterm is exactly zero
// (division guard).
func Improvement(r StudentRecord) Score {
	midterm, midtermKnown := r.Midterm.Get()
	final, finalKnown := r.Final.Get()
	if !midtermKnown || !finalKnown || midterm == 0 {
		return UnknownScore()
	}
	return NewScore((final - midterm) / midterm * 100)
}

// EnrichRecord returns a copy of the record with all derived fields computed
// under the given policy. The input record is not modified.
func EnrichRecord(r StudentRecord, p Policy) StudentRecord {
	enriched := r
	enriched.QuizAverage = QuizAverage(r)
	enriched.FinalGrade = FinalGrade(r, p.Weights)
	enriched.LetterGrade = LetterFor(enriched.FinalGrade, p.Scale)
	enriched.Improvement = Improvement(r)
	return enriched
}

// Enrich applies EnrichRecord to every record and returns a new slice in the
// same order. The input slice and its records are never mutated; ownership
// of the output transfers to the caller.
func Enrich(records []StudentRecord, p Policy) []StudentRecord {
	enriched := make([]StudentRecord, len(records))
	for i, r := range records {
		enriched[i] = EnrichRecord(r, p)
	}
	return enriched
}
