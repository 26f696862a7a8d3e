package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT RECORD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRecordRepository implements gradebook.Repository for PostgreSQL.
type StudentRecordRepository struct {
	conn *Connection
}

// NewStudentRecordRepository creates a new StudentRecordRepository.
func NewStudentRecordRepository(conn *Connection) *StudentRecordRepository {
	return &StudentRecordRepository{conn: conn}
}

const recordColumns = `
	student_id, first_name, last_name, section,
	quiz1, quiz2, quiz3, quiz4, quiz5,
	midterm_score, final_score, attendance_percent,
	quiz_average, final_grade, letter_grade, improvement
`

// ─────────────────────────────────────────────────────────────────────────────
// Write Operations
// ─────────────────────────────────────────────────────────────────────────────

// UpsertRecords stores raw and derived fields for the given records. New
// records get the next free import positions; re-imported students keep their
// original position so listings stay in first-import order.
func (r *StudentRecordRepository) UpsertRecords(ctx context.Context, records []gradebook.StudentRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO student_records (
			student_id, first_name, last_name, section, position,
			quiz1, quiz2, quiz3, quiz4, quiz5,
			midterm_score, final_score, attendance_percent,
			quiz_average, final_grade, letter_grade, improvement,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
		ON CONFLICT (student_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			section = EXCLUDED.section,
			quiz1 = EXCLUDED.quiz1,
			quiz2 = EXCLUDED.quiz2,
			quiz3 = EXCLUDED.quiz3,
			quiz4 = EXCLUDED.quiz4,
			quiz5 = EXCLUDED.quiz5,
			midterm_score = EXCLUDED.midterm_score,
			final_score = EXCLUDED.final_score,
			attendance_percent = EXCLUDED.attendance_percent,
			quiz_average = EXCLUDED.quiz_average,
			final_grade = EXCLUDED.final_grade,
			letter_grade = EXCLUDED.letter_grade,
			improvement = EXCLUDED.improvement,
			updated_at = EXCLUDED.updated_at
	`

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var nextPosition int
		err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM student_records`).Scan(&nextPosition)
		if err != nil {
			return fmt.Errorf("failed to read next import position: %w", err)
		}

		now := time.Now().UTC()
		for _, rec := range records {
			_, err := tx.Exec(ctx, query,
				rec.StudentID,
				rec.FirstName,
				rec.LastName,
				rec.Section,
				nextPosition,
				rec.Quizzes[0].Ptr(),
				rec.Quizzes[1].Ptr(),
				rec.Quizzes[2].Ptr(),
				rec.Quizzes[3].Ptr(),
				rec.Quizzes[4].Ptr(),
				rec.Midterm.Ptr(),
				rec.Final.Ptr(),
				rec.Attendance.Ptr(),
				rec.QuizAverage.Ptr(),
				rec.FinalGrade.Ptr(),
				string(rec.LetterGrade),
				rec.Improvement.Ptr(),
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert record %s: %w", rec.StudentID, err)
			}
			// Gaps in position are harmless; only the ordering matters.
			nextPosition++
		}
		return nil
	})
}

// UpdateDerived replaces the derived fields of existing records.
func (r *StudentRecordRepository) UpdateDerived(ctx context.Context, records []gradebook.StudentRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		UPDATE student_records SET
			quiz_average = $1,
			final_grade = $2,
			letter_grade = $3,
			improvement = $4,
			updated_at = $5
		WHERE student_id = $6
	`

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, rec := range records {
			_, err := tx.Exec(ctx, query,
				rec.QuizAverage.Ptr(),
				rec.FinalGrade.Ptr(),
				string(rec.LetterGrade),
				rec.Improvement.Ptr(),
				now,
				rec.StudentID,
			)
			if err != nil {
				return fmt.Errorf("failed to update derived fields for %s: %w", rec.StudentID, err)
			}
		}
		return nil
	})
}

// RecordImportBatch stores import batch metadata.
func (r *StudentRecordRepository) RecordImportBatch(ctx context.Context, batch gradebook.ImportBatch) error {
	query := `
		INSERT INTO import_batches (id, imported, sections, imported_by, imported_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		batch.ID,
		batch.Imported,
		batch.Sections,
		batch.ImportedBy,
		batch.ImportedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record import batch: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Read Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetByStudentID returns a single record.
func (r *StudentRecordRepository) GetByStudentID(ctx context.Context, studentID string) (*gradebook.StudentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM student_records WHERE student_id = $1`

	rec, err := scanRecord(r.conn.QueryRow(ctx, query, studentID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record %s: %w", studentID, err)
	}
	return rec, nil
}

// ListAll returns all records ordered by import position.
func (r *StudentRecordRepository) ListAll(ctx context.Context) ([]gradebook.StudentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM student_records ORDER BY position`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListBySection returns the records of one section, in import order.
func (r *StudentRecordRepository) ListBySection(ctx context.Context, section string) ([]gradebook.StudentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM student_records WHERE section = $1 ORDER BY position`

	rows, err := r.conn.Query(ctx, query, section)
	if err != nil {
		return nil, fmt.Errorf("failed to list section %q: %w", section, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Count returns the number of stored records.
func (r *StudentRecordRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM student_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanRecord(row pgx.Row) (*gradebook.StudentRecord, error) {
	var rec gradebook.StudentRecord
	var quizzes [gradebook.NumQuizzes]*float64
	var midterm, final, attendance *float64
	var quizAverage, finalGrade, improvement *float64
	var letter string

	err := row.Scan(
		&rec.StudentID,
		&rec.FirstName,
		&rec.LastName,
		&rec.Section,
		&quizzes[0],
		&quizzes[1],
		&quizzes[2],
		&quizzes[3],
		&quizzes[4],
		&midterm,
		&final,
		&attendance,
		&quizAverage,
		&finalGrade,
		&letter,
		&improvement,
	)
	if err != nil {
		return nil, err
	}

	for i := range quizzes {
		rec.Quizzes[i] = gradebook.ScoreFromPtr(quizzes[i])
	}
	rec.Midterm = gradebook.ScoreFromPtr(midterm)
	rec.Final = gradebook.ScoreFromPtr(final)
	rec.Attendance = gradebook.ScoreFromPtr(attendance)
	rec.QuizAverage = gradebook.ScoreFromPtr(quizAverage)
	rec.FinalGrade = gradebook.ScoreFromPtr(finalGrade)
	rec.LetterGrade = gradebook.Letter(letter)
	rec.Improvement = gradebook.ScoreFromPtr(improvement)

	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]gradebook.StudentRecord, error) {
	var records []gradebook.StudentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
