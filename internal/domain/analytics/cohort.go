package analytics

import (
	"sort"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

// KnownFinalGrades extracts the known final grades of a record collection,
// in input order. Records without a known final grade are skipped.
func KnownFinalGrades(records []gradebook.StudentRecord) []float64 {
	grades := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.FinalGrade.Get(); ok {
			grades = append(grades, v)
		}
	}
	return grades
}

// GradeDistribution counts records per letter grade over the closed set
// {A,B,C,D,F,N/A}. Every letter is present in the result, zero-initialized
// before counting. Letters outside the set count under N/A.
func GradeDistribution(records []gradebook.StudentRecord) map[gradebook.Letter]int {
	distribution := make(map[gradebook.Letter]int, len(gradebook.Letters))
	for _, letter := range gradebook.Letters {
		distribution[letter] = 0
	}

	for _, r := range records {
		letter := r.LetterGrade
		if _, ok := distribution[letter]; ok {
			distribution[letter]++
		} else {
			distribution[gradebook.LetterNA]++
		}
	}
	return distribution
}

// IdentifyAtRisk returns the records whose final grade is known and strictly
// below the threshold, preserving original relative order. A record with an
// unknown final grade is never at risk.
func IdentifyAtRisk(records []gradebook.StudentRecord, threshold float64) []gradebook.StudentRecord {
	atRisk := make([]gradebook.StudentRecord, 0)
	for _, r := range records {
		if v, ok := r.FinalGrade.Get(); ok && v < threshold {
			atRisk = append(atRisk, r)
		}
	}
	return atRisk
}

// SectionComparison groups records by section (records without a section
// fall under gradebook.UnknownSection) and computes a Summary per group over
// the known final grades only. A group without known grades yields the
// all-unknown summary with count 0.
func SectionComparison(records []gradebook.StudentRecord) map[string]Summary {
	grades := make(map[string][]float64)
	for _, r := range records {
		key := r.SectionKey()
		if _, ok := grades[key]; !ok {
			grades[key] = make([]float64, 0)
		}
		if v, ok := r.FinalGrade.Get(); ok {
			grades[key] = append(grades[key], v)
		}
	}

	stats := make(map[string]Summary, len(grades))
	for section, values := range grades {
		stats[section] = ComputeStats(values)
	}
	return stats
}

// TopPerformers returns the n records with the highest known final grades,
// descending. Ties keep original relative order (stable sort on grade only),
// so equal grades never reorder arbitrarily. Records without a known final
// grade are excluded.
func TopPerformers(records []gradebook.StudentRecord, n int) []gradebook.StudentRecord {
	graded := make([]gradebook.StudentRecord, 0, len(records))
	for _, r := range records {
		if r.Graded() {
			graded = append(graded, r)
		}
	}

	sort.SliceStable(graded, func(i, j int) bool {
		return graded[i].FinalGrade.Value() > graded[j].FinalGrade.Value()
	})

	if n < 0 {
		n = 0
	}
	if n > len(graded) {
		n = len(graded)
	}
	return graded[:n]
}
