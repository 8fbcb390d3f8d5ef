package storage

import (
	"context"

	"github.com/mcarden/authgate/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.UserID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	DeleteAccount(ctx context.Context, id model.UserID) error

	// Profile operations
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error)
	ProfileExists(ctx context.Context, id model.UserID) (bool, error)
	DeleteProfile(ctx context.Context, id model.UserID) error
}
