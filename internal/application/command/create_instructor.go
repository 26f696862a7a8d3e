package command

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/academ-hub/gradebook-analytics/internal/domain/instructor"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// CreateInstructorCommand provisions an instructor account with a fresh
// API key. The plaintext key appears only in the result and is never stored.
type CreateInstructorCommand struct {
	Email       string
	DisplayName string
	Admin       bool
}

// Validate validates the command.
func (c CreateInstructorCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return shared.NewDomainError("instructor", "Create", shared.ErrEmptyValue, "email is required")
	}
	return nil
}

// CreateInstructorResult carries the new account and its one-time API key.
type CreateInstructorResult struct {
	InstructorID string `json:"instructor_id"`
	Email        string `json:"email"`

	// APIKey is the full "<id>.<secret>" key, shown exactly once.
	APIKey string `json:"api_key"`
}

// CreateInstructorHandler handles CreateInstructorCommand.
type CreateInstructorHandler struct {
	repo   instructor.Repository
	logger *slog.Logger
}

// NewCreateInstructorHandler creates a CreateInstructorHandler.
func NewCreateInstructorHandler(repo instructor.Repository, logger *slog.Logger) *CreateInstructorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateInstructorHandler{repo: repo, logger: logger}
}

// Handle creates the account, hashing the generated secret with bcrypt.
func (h *CreateInstructorHandler) Handle(ctx context.Context, cmd CreateInstructorCommand) (*CreateInstructorResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("create instructor: %w", err)
	}
	keyID := uuid.NewString()

	ins, err := instructor.New(uuid.NewString(), cmd.Email, cmd.DisplayName, keyID, secret, cmd.Admin)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, ins); err != nil {
		return nil, fmt.Errorf("create instructor: %w", err)
	}

	h.logger.Info("instructor created",
		slog.String("instructor_id", ins.ID),
		slog.String("email", ins.Email),
		slog.Bool("admin", ins.Admin))

	return &CreateInstructorResult{
		InstructorID: ins.ID,
		Email:        ins.Email,
		APIKey:       keyID + instructor.APIKeySeparator + secret,
	}, nil
}

// generateSecret returns 32 hex characters of cryptographic randomness.
func generateSecret() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
