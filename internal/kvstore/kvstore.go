package kvstore

import "context"

// Store is the durable key-value capability the session layer persists into.
// Get reports found=false for missing keys; Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
