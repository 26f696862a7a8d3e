package instructor

import "context"

// Repository is the persistence contract for instructor accounts.
type Repository interface {
	// Create stores a new instructor.
	// Returns shared.ErrInstructorAlreadyExists on email or key-ID conflict.
	Create(ctx context.Context, ins *Instructor) error

	// GetByAPIKeyID returns the instructor owning the given key ID.
	// Returns shared.ErrInstructorNotFound when absent.
	GetByAPIKeyID(ctx context.Context, keyID string) (*Instructor, error)

	// GetByEmail returns the instructor with the given email.
	// Returns shared.ErrInstructorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*Instructor, error)

	// Count returns the number of instructor accounts.
	Count(ctx context.Context) (int, error)
}
