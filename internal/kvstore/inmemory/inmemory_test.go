package inmemory

import (
	"testing"

	"github.com/egobogo/trellosync/internal/kvstore/kvstoretest"
)

func TestInMemoryStore(t *testing.T) {
	kvstoretest.Run(t, NewInMemoryStore())
}
