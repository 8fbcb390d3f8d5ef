package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/storage"
)

// Service is the per-user profile document store. Documents are created
// exactly once, at registration, and thereafter only mutated via partial
// updates.
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new profile service
func New(store storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		logger:  logger.With(slog.String("component", "profile")),
	}
}

// Create stores the initial profile document for an identity. It fails with
// ErrProfileExists if a document already exists, keeping creation exactly-once.
func (s *Service) Create(ctx context.Context, id model.UserID, p *model.Profile) error {
	exists, err := s.storage.ProfileExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check profile existence: %w", err)
	}
	if exists {
		return model.ErrProfileExists
	}

	p.UserID = id
	if err := s.storage.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("profile created", slog.String("user_id", string(id)))
	return nil
}

// Get fetches the profile document for an identity
func (s *Service) Get(ctx context.Context, id model.UserID) (*model.Profile, error) {
	return s.storage.GetProfile(ctx, id)
}

// Update applies a shallow field-level merge to the stored document.
// Fields absent from the patch are preserved.
func (s *Service) Update(ctx context.Context, id model.UserID, patch model.ProfilePatch) error {
	current, err := s.storage.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return model.ErrProfileNotFound
		}
		return fmt.Errorf("load profile for update: %w", err)
	}

	current.Apply(patch)
	if err := s.storage.SaveProfile(ctx, current); err != nil {
		return fmt.Errorf("persist profile update: %w", err)
	}
	return nil
}
