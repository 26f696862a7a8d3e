// Package instructor contains the instructor account model used to
// authenticate access to the gradebook API.
package instructor

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// APIKeySeparator splits the key ID from the secret in a presented API key.
const APIKeySeparator = "."

// Instructor is an account that may import rosters and read analytics.
// The API key secret is stored only as a bcrypt hash.
type Instructor struct {
	ID          string
	Email       string
	DisplayName string

	// APIKeyID is the public half of the API key ("<id>.<secret>").
	APIKeyID string

	// APIKeyHash is the bcrypt hash of the secret half.
	APIKeyHash string

	// Admin accounts may create other instructors.
	Admin bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an instructor with a hashed API key secret.
func New(id, email, displayName, apiKeyID, secret string, admin bool) (*Instructor, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, shared.NewDomainError("instructor", "New", shared.ErrEmptyValue, "email cannot be empty")
	}
	if apiKeyID == "" || secret == "" {
		return nil, shared.NewDomainError("instructor", "New", shared.ErrEmptyValue, "API key parts cannot be empty")
	}

	hash, err := hashSecret(secret)
	if err != nil {
		return nil, shared.WrapError("instructor", "New", shared.ErrValidation, "failed to hash API key", err)
	}

	now := time.Now().UTC()
	return &Instructor{
		ID:          id,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		APIKeyID:    apiKeyID,
		APIKeyHash:  hash,
		Admin:       admin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// VerifySecret checks a presented API key secret against the stored hash.
func (i *Instructor) VerifySecret(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(i.APIKeyHash), []byte(secret)) == nil
}

// RotateKey replaces the API key secret with a new one.
func (i *Instructor) RotateKey(secret string) error {
	hash, err := hashSecret(secret)
	if err != nil {
		return shared.WrapError("instructor", "RotateKey", shared.ErrValidation, "failed to hash API key", err)
	}
	i.APIKeyHash = hash
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func hashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// SplitAPIKey parses a presented "<id>.<secret>" key into its halves.
func SplitAPIKey(key string) (keyID, secret string, err error) {
	parts := strings.SplitN(key, APIKeySeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", shared.ErrInvalidAPIKey
	}
	return parts[0], parts[1], nil
}
