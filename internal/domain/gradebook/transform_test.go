package gradebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func record(quizzes []*float64, midterm, final, attendance *float64) StudentRecord {
	r := StudentRecord{StudentID: "s1"}
	for i, q := range quizzes {
		if i < NumQuizzes {
			r.Quizzes[i] = ScoreFromPtr(q)
		}
	}
	r.Midterm = ScoreFromPtr(midterm)
	r.Final = ScoreFromPtr(final)
	r.Attendance = ScoreFromPtr(attendance)
	return r
}

func TestQuizAverage(t *testing.T) {
	t.Run("ignores unknown quizzes", func(t *testing.T) {
		r := record([]*float64{ptr(80), nil, ptr(90), nil, ptr(70)}, nil, nil, nil)
		avg := QuizAverage(r)
		require.True(t, avg.Known())
		assert.InDelta(t, 80.0, avg.Value(), 1e-9)
	})

	t.Run("unknown when no quizzes", func(t *testing.T) {
		r := record(nil, ptr(50), ptr(60), nil)
		assert.False(t, QuizAverage(r).Known())
	})

	t.Run("single quiz", func(t *testing.T) {
		r := record([]*float64{nil, nil, nil, nil, ptr(42)}, nil, nil, nil)
		avg := QuizAverage(r)
		require.True(t, avg.Known())
		assert.InDelta(t, 42.0, avg.Value(), 1e-9)
	})
}

func TestFinalGrade(t *testing.T) {
	weights := Weights{Quizzes: 0.25, Midterm: 0.30, Final: 0.35, Attendance: 0.10}

	t.Run("unknown without midterm regardless of other inputs", func(t *testing.T) {
		r := record([]*float64{ptr(80)}, nil, ptr(90), ptr(95))
		assert.False(t, FinalGrade(r, weights).Known())
	})

	t.Run("unknown without final", func(t *testing.T) {
		r := record([]*float64{ptr(80)}, ptr(70), nil, ptr(95))
		assert.False(t, FinalGrade(r, weights).Known())
	})

	t.Run("all components present", func(t *testing.T) {
		r := record([]*float64{ptr(80), ptr(80), ptr(80), ptr(80), ptr(80)}, ptr(70), ptr(90), ptr(100))
		g := FinalGrade(r, weights)
		require.True(t, g.Known())
		// 80*0.25 + 70*0.30 + 90*0.35 + 100*0.10 over full weight 1.0
		assert.InDelta(t, 82.5, g.Value(), 1e-9)
	})

	t.Run("missing optional components renormalize to nominal scale", func(t *testing.T) {
		// No quizzes, no attendance: graded on midterm+final rescaled.
		r := record(nil, ptr(70), ptr(90), nil)
		g := FinalGrade(r, weights)
		require.True(t, g.Known())
		achieved := 70*0.30 + 90*0.35
		expected := achieved / (0.30 + 0.35) * 1.0
		assert.InDelta(t, expected, g.Value(), 1e-9)
	})

	t.Run("zero weights on quizzes and attendance reduce to exam average", func(t *testing.T) {
		w := Weights{Quizzes: 0, Midterm: 0.5, Final: 0.5, Attendance: 0}
		r := record([]*float64{ptr(10)}, ptr(70), ptr(90), ptr(5))
		g := FinalGrade(r, w)
		require.True(t, g.Known())
		assert.InDelta(t, 80.0, g.Value(), 1e-9)
	})

	t.Run("all-zero weights degrade to unknown", func(t *testing.T) {
		w := Weights{}
		r := record(nil, ptr(70), ptr(90), nil)
		assert.False(t, FinalGrade(r, w).Known())
	})
}

func TestLetterFor(t *testing.T) {
	scale := DefaultGradeScale()

	t.Run("monotonic over the canonical scale", func(t *testing.T) {
		cases := []struct {
			grade  float64
			letter Letter
		}{
			{95, LetterA},
			{90, LetterA},
			{85, LetterB},
			{75, LetterC},
			{65, LetterD},
			{55, LetterF},
			{0, LetterF},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.letter, LetterFor(NewScore(tc.grade), scale), "grade %.0f", tc.grade)
		}
	})

	t.Run("unknown grade is N/A", func(t *testing.T) {
		assert.Equal(t, LetterNA, LetterFor(UnknownScore(), scale))
	})

	t.Run("non-canonical scale with gaps", func(t *testing.T) {
		custom := GradeScale{LetterA: 85, LetterC: 50}
		assert.Equal(t, LetterA, LetterFor(NewScore(85), custom))
		assert.Equal(t, LetterC, LetterFor(NewScore(84.9), custom))
		// Below every threshold falls through to F.
		assert.Equal(t, LetterF, LetterFor(NewScore(49), custom))
	})

	t.Run("equal thresholds break ties reverse-alphabetically", func(t *testing.T) {
		custom := GradeScale{LetterB: 80, LetterC: 80, LetterF: 0}
		assert.Equal(t, LetterC, LetterFor(NewScore(85), custom))
	})
}

func TestImprovement(t *testing.T) {
	t.Run("positive change", func(t *testing.T) {
		g := Improvement(record(nil, ptr(70), ptr(84), nil))
		require.True(t, g.Known())
		assert.InDelta(t, 20.0, g.Value(), 1e-9)
	})

	t.Run("negative change", func(t *testing.T) {
		g := Improvement(record(nil, ptr(90), ptr(81), nil))
		require.True(t, g.Known())
		assert.InDelta(t, -10.0, g.Value(), 1e-9)
	})

	t.Run("zero midterm is unknown", func(t *testing.T) {
		assert.False(t, Improvement(record(nil, ptr(0), ptr(50), nil)).Known())
	})

	t.Run("missing exam is unknown", func(t *testing.T) {
		assert.False(t, Improvement(record(nil, nil, ptr(50), nil)).Known())
		assert.False(t, Improvement(record(nil, ptr(50), nil, nil)).Known())
	})
}

func TestEnrich(t *testing.T) {
	policy := DefaultPolicy()

	t.Run("does not mutate input and preserves order", func(t *testing.T) {
		records := []StudentRecord{
			record(nil, ptr(70), ptr(84), nil),
			record(nil, nil, ptr(60), nil),
		}
		records[0].StudentID = "a"
		records[1].StudentID = "b"

		enriched := Enrich(records, policy)

		require.Len(t, enriched, 2)
		assert.Equal(t, "a", enriched[0].StudentID)
		assert.Equal(t, "b", enriched[1].StudentID)

		// Inputs keep their zero-valued derived fields.
		assert.False(t, records[0].FinalGrade.Known())
		assert.Equal(t, Letter(""), records[0].LetterGrade)

		assert.True(t, enriched[0].FinalGrade.Known())
		assert.Equal(t, LetterNA, enriched[1].LetterGrade)
		assert.False(t, enriched[1].FinalGrade.Known())
	})

	t.Run("derived fields are consistent", func(t *testing.T) {
		r := record([]*float64{ptr(100)}, ptr(80), ptr(100), ptr(90))
		e := EnrichRecord(r, policy)
		assert.Equal(t, QuizAverage(r), e.QuizAverage)
		assert.Equal(t, FinalGrade(r, policy.Weights), e.FinalGrade)
		assert.Equal(t, LetterFor(e.FinalGrade, policy.Scale), e.LetterGrade)
		assert.Equal(t, Improvement(r), e.Improvement)
	})
}

func TestScoreJSON(t *testing.T) {
	t.Run("known score round-trips", func(t *testing.T) {
		data, err := NewScore(87.5).MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, "87.5", string(data))

		var s Score
		require.NoError(t, s.UnmarshalJSON(data))
		assert.Equal(t, NewScore(87.5), s)
	})

	t.Run("unknown score is null", func(t *testing.T) {
		data, err := UnknownScore().MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, "null", string(data))

		var s Score
		require.NoError(t, s.UnmarshalJSON([]byte("null")))
		assert.False(t, s.Known())
	})
}
