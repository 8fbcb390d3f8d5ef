package cache

import "context"

// Keys used by the reconciliation core. The flag is a best-effort hint read
// before the identity provider resolves on a cold start; it is never
// authoritative and is repaired whenever it disagrees with the provider.
const (
	KeyAuthenticated = "user_authenticated"
	KeySnapshot      = "user_snapshot"
)

// FlagTrue is the stored value of KeyAuthenticated when set
const FlagTrue = "true"

// Store is a durable key/value store surviving process restarts
type Store interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
