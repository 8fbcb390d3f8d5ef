package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcarden/authgate/internal/api/stream"
	"github.com/mcarden/authgate/internal/cache"
	cachememory "github.com/mcarden/authgate/internal/cache/memory"
	"github.com/mcarden/authgate/internal/cache/sqlite"
	"github.com/mcarden/authgate/internal/dependencies/clock"
	"github.com/mcarden/authgate/internal/dependencies/random"
	"github.com/mcarden/authgate/internal/services/identity"
	"github.com/mcarden/authgate/internal/services/profile"
	"github.com/mcarden/authgate/internal/services/session"
	"github.com/mcarden/authgate/internal/storage"
	"github.com/mcarden/authgate/internal/storage/memory"
	redisstorage "github.com/mcarden/authgate/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Cache type constants
const (
	CacheTypeMemory = "memory"
	CacheTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Backends
	Storage storage.Storage
	Cache   cache.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Identity *identity.Service
	Profiles *profile.Service
	Sessions *session.Service
	Hub      *stream.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// IdentityConfig holds configuration for the identity service (optional)
	// If zero value, defaults to identity.DefaultConfig()
	IdentityConfig identity.Config
	// StorageType selects the account/profile backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// CacheType selects the local cache backend ("memory" or "sqlite")
	// If empty, defaults to "memory"
	CacheType string
	// SQLitePath is the cache database file (required if CacheType is "sqlite")
	SQLitePath string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create the local cache based on type
	var localCache cache.Store
	cacheType := cfg.CacheType
	if cacheType == "" {
		cacheType = CacheTypeMemory
	}

	switch cacheType {
	case CacheTypeMemory:
		localCache = cachememory.New()
	case CacheTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when CacheType is sqlite")
		}
		sqliteCache, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		localCache = sqliteCache
	default:
		return nil, errors.New("invalid CacheType: must be 'memory' or 'sqlite'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default identity config if not provided
	idCfg := cfg.IdentityConfig
	if idCfg.SessionTTL == 0 {
		idCfg = identity.DefaultConfig()
	}

	return newWithDependencies(store, localCache, clk, rnd, idCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, localCache cache.Store, clk clock.Clock, rnd random.Random, idCfg identity.Config, logger *slog.Logger) *App {
	identityService := identity.New(store, clk, rnd, idCfg, logger)
	profileService := profile.New(store, logger)
	sessionService := session.New(identityService, profileService, localCache, logger)
	hub := stream.NewHub(logger)

	return &App{
		Storage:  store,
		Cache:    localCache,
		Clock:    clk,
		Random:   rnd,
		Identity: identityService,
		Profiles: profileService,
		Sessions: sessionService,
		Hub:      hub,
	}
}

// Close releases backend resources held by the App
func (a *App) Close() error {
	var errs []error
	if closer, ok := a.Storage.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
