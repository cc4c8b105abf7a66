// Package kvstoretest holds the behaviour every kvstore.Store must share.
package kvstoretest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/egobogo/trellosync/internal/kvstore"
)

// Run exercises get/set/remove semantics against a fresh, empty store.
func Run(t *testing.T, store kvstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, found, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		require.False(t, found)
		require.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "auth.token", "tok-1"))
		v, found, err := store.Get(ctx, "auth.token")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "tok-1", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "auth.token", "tok-2"))
		v, _, err := store.Get(ctx, "auth.token")
		require.NoError(t, err)
		require.Equal(t, "tok-2", v)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "auth.user", `{"id":"m1"}`))
		require.NoError(t, store.Remove(ctx, "auth.user"))
		v, found, err := store.Get(ctx, "auth.token")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "tok-2", v)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, "auth.token"))
		require.NoError(t, store.Remove(ctx, "auth.token"))
		_, found, err := store.Get(ctx, "auth.token")
		require.NoError(t, err)
		require.False(t, found)
	})
}
