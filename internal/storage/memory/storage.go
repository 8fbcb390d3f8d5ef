package memory

import (
	"context"
	"sync"

	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts   map[model.UserID]*model.Account
	emailIndex map[string]model.UserID
	profiles   map[model.UserID]*model.Profile
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:   make(map[model.UserID]*model.Account),
		emailIndex: make(map[string]model.UserID),
		profiles:   make(map[model.UserID]*model.Profile),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.UserID] = account
	s.emailIndex[account.Email] = account.UserID
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.UserID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account, nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[id]; ok {
		delete(s.emailIndex, account.Email)
		delete(s.accounts, id)
	}
	return nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile.Clone()
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return profile.Clone(), nil
}

func (s *Storage) ProfileExists(ctx context.Context, id model.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.profiles[id]
	return ok, nil
}

func (s *Storage) DeleteProfile(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, id)
	return nil
}
