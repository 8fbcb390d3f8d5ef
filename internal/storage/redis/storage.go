package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, accountKey(account.UserID), data, 0) // No TTL
	pipe.Set(ctx, emailIndexKey(account.Email), string(account.UserID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, id model.UserID) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	// Look up user ID from email index
	idStr, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	return s.GetAccount(ctx, model.UserID(idStr))
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.UserID) error {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, accountKey(id))
	pipe.Del(ctx, emailIndexKey(account.Email))
	_, err = pipe.Exec(ctx)
	return err
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, profileKey(profile.UserID), data, s.cfg.ProfileTTL).Err()
}

func (s *Storage) GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Storage) ProfileExists(ctx context.Context, id model.UserID) (bool, error) {
	n, err := s.client.Exists(ctx, profileKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) DeleteProfile(ctx context.Context, id model.UserID) error {
	return s.client.Del(ctx, profileKey(id)).Err()
}
