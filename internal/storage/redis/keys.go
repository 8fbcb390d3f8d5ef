package redis

import (
	"fmt"

	"github.com/mcarden/authgate/internal/model"
)

// Key prefix for all auth-related data
const keyPrefix = "authgate"

// accountKey returns the Redis key for an Account
func accountKey(id model.UserID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// profileKey returns the Redis key for a Profile document
func profileKey(id model.UserID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, id)
}
