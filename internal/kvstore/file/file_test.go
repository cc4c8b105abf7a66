package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egobogo/trellosync/internal/kvstore/kvstoretest"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestFileStore(t *testing.T) {
	kvstoretest.Run(t, newTestStore(t))
}

func TestFileStore_SharedBetweenInstances(t *testing.T) {
	ctx := context.Background()
	a := newTestStore(t)
	b, err := NewFileStore(a.Path(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "auth.token", "from-a"))
	v, found, err := b.Get(ctx, "auth.token")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "from-a", v)

	info, err := os.Stat(a.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, k := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			assert.NoError(t, store.Set(ctx, k, "v-"+k))
		}(k)
	}
	wg.Wait()

	for _, k := range keys {
		v, found, err := store.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, found, k)
		assert.Equal(t, "v-"+k, v)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, _, err := store.Get(context.Background(), "auth.token")
	require.Error(t, err)
}

func TestFileStore_Watch(t *testing.T) {
	store := newTestStore(t)
	other, err := NewFileStore(store.Path(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- store.Watch(ctx, func() { changed <- struct{}{} })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, other.Set(context.Background(), "auth.token", "rotated"))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	select {
	case err := <-watchErr:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
