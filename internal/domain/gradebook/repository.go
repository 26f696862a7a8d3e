package gradebook

import (
	"context"
	"time"
)

// ImportBatch records metadata about one roster import.
type ImportBatch struct {
	ID         string
	Imported   int
	Sections   int
	ImportedBy string
	ImportedAt time.Time
}

// Repository is the persistence contract for student records. Raw fields are
// written once at import time; derived fields are replaced wholesale when
// grades are (re)computed under a policy.
type Repository interface {
	// UpsertRecords stores raw and derived fields for the given records,
	// replacing existing records with the same student ID.
	UpsertRecords(ctx context.Context, records []StudentRecord) error

	// UpdateDerived replaces the derived fields of existing records.
	UpdateDerived(ctx context.Context, records []StudentRecord) error

	// GetByStudentID returns a single record.
	// Returns shared.ErrRecordNotFound when absent.
	GetByStudentID(ctx context.Context, studentID string) (*StudentRecord, error)

	// ListAll returns all records ordered by import position.
	ListAll(ctx context.Context) ([]StudentRecord, error)

	// ListBySection returns the records of one section, in import order.
	ListBySection(ctx context.Context, section string) ([]StudentRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// RecordImportBatch stores import batch metadata.
	RecordImportBatch(ctx context.Context, batch ImportBatch) error
}
