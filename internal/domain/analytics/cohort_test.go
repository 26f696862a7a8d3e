package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

func graded(id, section string, grade float64, letter gradebook.Letter) gradebook.StudentRecord {
	return gradebook.StudentRecord{
		StudentID:   id,
		Section:     section,
		FinalGrade:  gradebook.NewScore(grade),
		LetterGrade: letter,
	}
}

func ungraded(id, section string) gradebook.StudentRecord {
	return gradebook.StudentRecord{
		StudentID:   id,
		Section:     section,
		LetterGrade: gradebook.LetterNA,
	}
}

func TestGradeDistribution(t *testing.T) {
	records := []gradebook.StudentRecord{
		graded("1", "A1", 95, gradebook.LetterA),
		graded("2", "A1", 91, gradebook.LetterA),
		graded("3", "A1", 85, gradebook.LetterB),
		graded("4", "A1", 75, gradebook.LetterC),
		graded("5", "A1", 30, gradebook.LetterF),
	}

	dist := GradeDistribution(records)

	assert.Equal(t, map[gradebook.Letter]int{
		gradebook.LetterA:  2,
		gradebook.LetterB:  1,
		gradebook.LetterC:  1,
		gradebook.LetterD:  0,
		gradebook.LetterF:  1,
		gradebook.LetterNA: 0,
	}, dist)
}

func TestGradeDistribution_UnrecognizedLetterCountsAsNA(t *testing.T) {
	records := []gradebook.StudentRecord{
		{StudentID: "1", LetterGrade: gradebook.Letter("X")},
		{StudentID: "2"}, // never enriched, empty letter
	}

	dist := GradeDistribution(records)
	assert.Equal(t, 2, dist[gradebook.LetterNA])
	assert.Len(t, dist, 6)
}

func TestIdentifyAtRisk(t *testing.T) {
	records := []gradebook.StudentRecord{
		graded("1", "", 55, gradebook.LetterF),
		graded("2", "", 75, gradebook.LetterC),
		graded("3", "", 58, gradebook.LetterF),
		graded("4", "", 85, gradebook.LetterB),
	}

	atRisk := IdentifyAtRisk(records, 60)

	require.Len(t, atRisk, 2)
	assert.Equal(t, "1", atRisk[0].StudentID)
	assert.Equal(t, "3", atRisk[1].StudentID)
}

func TestIdentifyAtRisk_UnknownGradeIsNeverAtRisk(t *testing.T) {
	records := []gradebook.StudentRecord{
		ungraded("1", ""),
		graded("2", "", 10, gradebook.LetterF),
	}

	atRisk := IdentifyAtRisk(records, 60)
	require.Len(t, atRisk, 1)
	assert.Equal(t, "2", atRisk[0].StudentID)
}

func TestSectionComparison(t *testing.T) {
	records := []gradebook.StudentRecord{
		graded("1", "morning", 80, gradebook.LetterB),
		graded("2", "morning", 90, gradebook.LetterA),
		graded("3", "evening", 70, gradebook.LetterC),
		ungraded("4", "evening"),
		ungraded("5", ""),
	}

	stats := SectionComparison(records)

	require.Len(t, stats, 3)
	assert.Equal(t, 2, stats["morning"].Count)
	assert.Equal(t, 85.0, stats["morning"].Mean.Value())
	assert.Equal(t, 1, stats["evening"].Count)

	// Records without a section group under the sentinel key; with no known
	// grades the group carries the all-unknown summary.
	unknown, ok := stats[gradebook.UnknownSection]
	require.True(t, ok)
	assert.Equal(t, 0, unknown.Count)
	assert.False(t, unknown.Mean.Known())
}

func TestTopPerformers(t *testing.T) {
	records := []gradebook.StudentRecord{
		graded("1", "", 70, gradebook.LetterC),
		graded("2", "", 90, gradebook.LetterA),
		ungraded("3", ""),
		graded("4", "", 90, gradebook.LetterA),
		graded("5", "", 80, gradebook.LetterB),
	}

	top := TopPerformers(records, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "2", top[0].StudentID)
	assert.Equal(t, "4", top[1].StudentID) // tie with "2" keeps input order
	assert.Equal(t, "5", top[2].StudentID)
}

func TestTopPerformers_Bounds(t *testing.T) {
	records := []gradebook.StudentRecord{
		graded("1", "", 70, gradebook.LetterC),
		ungraded("2", ""),
	}

	assert.Len(t, TopPerformers(records, 10), 1)
	assert.Empty(t, TopPerformers(records, 0))
	assert.Empty(t, TopPerformers(records, -1))

	// Input order untouched.
	assert.Equal(t, "1", records[0].StudentID)
	assert.Equal(t, "2", records[1].StudentID)
}

func TestKnownFinalGrades(t *testing.T) {
	records := []gradebook.StudentRecord{
		graded("1", "", 70, gradebook.LetterC),
		ungraded("2", ""),
		graded("3", "", 55, gradebook.LetterF),
	}

	assert.Equal(t, []float64{70, 55}, KnownFinalGrades(records))
}
