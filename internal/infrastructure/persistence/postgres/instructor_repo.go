package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/academ-hub/gradebook-analytics/internal/domain/instructor"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INSTRUCTOR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InstructorRepository implements instructor.Repository for PostgreSQL.
type InstructorRepository struct {
	conn *Connection
}

// NewInstructorRepository creates a new InstructorRepository.
func NewInstructorRepository(conn *Connection) *InstructorRepository {
	return &InstructorRepository{conn: conn}
}

const instructorColumns = `
	id, email, display_name, api_key_id, api_key_hash, is_admin, created_at, updated_at
`

// Create stores a new instructor.
func (r *InstructorRepository) Create(ctx context.Context, ins *instructor.Instructor) error {
	query := `
		INSERT INTO instructors (
			id, email, display_name, api_key_id, api_key_hash, is_admin, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		ins.ID,
		ins.Email,
		ins.DisplayName,
		ins.APIKeyID,
		ins.APIKeyHash,
		ins.Admin,
		ins.CreatedAt,
		ins.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrInstructorAlreadyExists
		}
		return fmt.Errorf("failed to create instructor: %w", err)
	}
	return nil
}

// GetByAPIKeyID returns the instructor owning the given key ID.
func (r *InstructorRepository) GetByAPIKeyID(ctx context.Context, keyID string) (*instructor.Instructor, error) {
	query := `SELECT ` + instructorColumns + ` FROM instructors WHERE api_key_id = $1`
	return r.scanInstructor(r.conn.QueryRow(ctx, query, keyID))
}

// GetByEmail returns the instructor with the given email.
func (r *InstructorRepository) GetByEmail(ctx context.Context, email string) (*instructor.Instructor, error) {
	query := `SELECT ` + instructorColumns + ` FROM instructors WHERE email = $1`
	return r.scanInstructor(r.conn.QueryRow(ctx, query, email))
}

// Count returns the number of instructor accounts.
func (r *InstructorRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM instructors`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count instructors: %w", err)
	}
	return count, nil
}

func (r *InstructorRepository) scanInstructor(row pgx.Row) (*instructor.Instructor, error) {
	var ins instructor.Instructor

	err := row.Scan(
		&ins.ID,
		&ins.Email,
		&ins.DisplayName,
		&ins.APIKeyID,
		&ins.APIKeyHash,
		&ins.Admin,
		&ins.CreatedAt,
		&ins.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrInstructorNotFound
		}
		return nil, fmt.Errorf("failed to scan instructor: %w", err)
	}

	return &ins, nil
}
