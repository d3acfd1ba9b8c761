package presence_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxchat/internal/presence"
)

func TestMemoryStoreBasics(t *testing.T) {
	ctx := context.Background()
	store := presence.NewMemoryStore()

	online, err := store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, store.MarkOnline(ctx, "u1"))
	online, err = store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, online)

	ids, err := store.ListOnline(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)

	require.NoError(t, store.MarkOffline(ctx, "u1"))
	online, err = store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)

	// Offline for an unknown user is a no-op.
	require.NoError(t, store.MarkOffline(ctx, "ghost"))
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	store := presence.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", n%10)
			_ = store.MarkOnline(ctx, id)
			_, _ = store.IsOnline(ctx, id)
			if n%2 == 0 {
				_ = store.MarkOffline(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	// Each surviving entry must be one of the ten known IDs.
	ids, err := store.ListOnline(ctx)
	require.NoError(t, err)
	for _, id := range ids {
		assert.Contains(t, id, "user-")
	}
}
