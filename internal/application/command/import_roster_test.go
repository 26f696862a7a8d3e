package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// fakeRepo is an in-memory gradebook.Repository for handler tests.
type fakeRepo struct {
	records []gradebook.StudentRecord
	batches []gradebook.ImportBatch

	upsertCalls  int
	derivedCalls int
}

func (f *fakeRepo) UpsertRecords(_ context.Context, records []gradebook.StudentRecord) error {
	f.upsertCalls++
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeRepo) UpdateDerived(_ context.Context, records []gradebook.StudentRecord) error {
	f.derivedCalls++
	byID := make(map[string]gradebook.StudentRecord, len(records))
	for _, r := range records {
		byID[r.StudentID] = r
	}
	for i, r := range f.records {
		if updated, ok := byID[r.StudentID]; ok {
			f.records[i] = updated
		}
	}
	return nil
}

func (f *fakeRepo) GetByStudentID(_ context.Context, studentID string) (*gradebook.StudentRecord, error) {
	for i := range f.records {
		if f.records[i].StudentID == studentID {
			return &f.records[i], nil
		}
	}
	return nil, shared.ErrRecordNotFound
}

func (f *fakeRepo) ListAll(_ context.Context) ([]gradebook.StudentRecord, error) {
	out := make([]gradebook.StudentRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeRepo) ListBySection(_ context.Context, section string) ([]gradebook.StudentRecord, error) {
	var out []gradebook.StudentRecord
	for _, r := range f.records {
		if r.SectionKey() == section {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Count(_ context.Context) (int, error) {
	return len(f.records), nil
}

func (f *fakeRepo) RecordImportBatch(_ context.Context, batch gradebook.ImportBatch) error {
	f.batches = append(f.batches, batch)
	return nil
}

// fakePublisher collects published events.
type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(_ context.Context, event shared.Event) error {
	f.events = append(f.events, event)
	return nil
}

func fptr(v float64) *float64 { return &v }

func fullInput(id, section string) RecordInput {
	return RecordInput{
		StudentID: id,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Section:   section,
		Quiz1:     fptr(80), Quiz2: fptr(85), Quiz3: fptr(90), Quiz4: fptr(75), Quiz5: fptr(95),
		Midterm:           fptr(70),
		Final:             fptr(88),
		AttendancePercent: fptr(100),
	}
}

func TestImportRosterHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("imports and enriches records", func(t *testing.T) {
		repo := &fakeRepo{}
		bus := &fakePublisher{}
		h := NewImportRosterHandler(repo, bus, gradebook.DefaultPolicy(), nil)

		result, err := h.Handle(ctx, ImportRosterCommand{
			Records: []RecordInput{
				fullInput("s1", "A"),
				fullInput("s2", "B"),
				{StudentID: "s3", Section: "A"}, // no scores at all
			},
			ImportedBy: "prof@example.edu",
		})
		require.NoError(t, err)

		assert.Equal(t, 3, result.Imported)
		assert.Equal(t, 2, result.Sections)
		assert.Equal(t, 2, result.Graded)
		assert.NotEmpty(t, result.BatchID)

		require.Len(t, repo.records, 3)
		assert.True(t, repo.records[0].FinalGrade.Known(), "derived fields must be persisted")
		assert.False(t, repo.records[2].FinalGrade.Known())
		assert.Equal(t, gradebook.LetterNA, repo.records[2].LetterGrade)

		require.Len(t, repo.batches, 1)
		assert.Equal(t, "prof@example.edu", repo.batches[0].ImportedBy)

		require.Len(t, bus.events, 1)
		assert.Equal(t, shared.EventRosterImported, bus.events[0].EventType())
	})

	t.Run("rejects empty roster", func(t *testing.T) {
		h := NewImportRosterHandler(&fakeRepo{}, nil, gradebook.DefaultPolicy(), nil)

		_, err := h.Handle(ctx, ImportRosterCommand{})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects duplicate student IDs", func(t *testing.T) {
		repo := &fakeRepo{}
		h := NewImportRosterHandler(repo, nil, gradebook.DefaultPolicy(), nil)

		_, err := h.Handle(ctx, ImportRosterCommand{
			Records: []RecordInput{fullInput("s1", "A"), fullInput("s1", "B")},
		})
		require.Error(t, err)
		assert.True(t, shared.IsAlreadyExists(err))
		assert.Zero(t, repo.upsertCalls, "nothing may be written on rejection")
	})

	t.Run("rejects out-of-range scores", func(t *testing.T) {
		h := NewImportRosterHandler(&fakeRepo{}, nil, gradebook.DefaultPolicy(), nil)

		in := fullInput("s1", "A")
		in.Midterm = fptr(101)

		_, err := h.Handle(ctx, ImportRosterCommand{Records: []RecordInput{in}})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects missing student ID", func(t *testing.T) {
		h := NewImportRosterHandler(&fakeRepo{}, nil, gradebook.DefaultPolicy(), nil)

		_, err := h.Handle(ctx, ImportRosterCommand{Records: []RecordInput{{Section: "A"}}})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestRecomputeGradesHandler(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*fakeRepo, *fakePublisher) {
		t.Helper()
		repo := &fakeRepo{}
		h := NewImportRosterHandler(repo, nil, gradebook.DefaultPolicy(), nil)
		_, err := h.Handle(ctx, ImportRosterCommand{
			Records: []RecordInput{fullInput("s1", "A"), {StudentID: "s2"}},
		})
		require.NoError(t, err)
		return repo, &fakePublisher{}
	}

	t.Run("replaces derived fields under a new policy", func(t *testing.T) {
		repo, bus := seed(t)
		h := NewRecomputeGradesHandler(repo, bus, gradebook.DefaultPolicy(), nil)

		before, err := repo.GetByStudentID(ctx, "s1")
		require.NoError(t, err)
		require.True(t, before.FinalGrade.Known())
		beforeGrade := before.FinalGrade.Value()

		override := gradebook.DefaultPolicy()
		override.Weights = gradebook.Weights{Quizzes: 0, Midterm: 0, Final: 1, Attendance: 0}

		result, err := h.Handle(ctx, RecomputeGradesCommand{Policy: &override})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Records)
		assert.Equal(t, 1, result.Graded)
		assert.Equal(t, 1, repo.derivedCalls)

		after, err := repo.GetByStudentID(ctx, "s1")
		require.NoError(t, err)
		require.True(t, after.FinalGrade.Known())
		assert.NotEqual(t, beforeGrade, after.FinalGrade.Value())
		assert.InDelta(t, 88.0, after.FinalGrade.Value(), 1e-9)

		require.Len(t, bus.events, 1)
		assert.Equal(t, shared.EventGradesRecomputed, bus.events[0].EventType())
	})

	t.Run("empty gradebook is a no-op", func(t *testing.T) {
		repo := &fakeRepo{}
		h := NewRecomputeGradesHandler(repo, nil, gradebook.DefaultPolicy(), nil)

		result, err := h.Handle(ctx, RecomputeGradesCommand{})
		require.NoError(t, err)
		assert.Zero(t, result.Records)
		assert.Zero(t, repo.derivedCalls)
	})

	t.Run("rejects an invalid policy override", func(t *testing.T) {
		repo, _ := seed(t)
		h := NewRecomputeGradesHandler(repo, nil, gradebook.DefaultPolicy(), nil)

		bad := gradebook.DefaultPolicy()
		bad.Weights = gradebook.Weights{Quizzes: -1, Midterm: 1, Final: 1, Attendance: 0}

		_, err := h.Handle(ctx, RecomputeGradesCommand{Policy: &bad})
		require.Error(t, err)
		assert.Zero(t, repo.derivedCalls)
	})
}
