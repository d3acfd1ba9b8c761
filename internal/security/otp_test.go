package security_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxchat/internal/security"
)

func TestGenerateOTP(t *testing.T) {
	code, err := security.GenerateOTP(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}

	// Non-positive length falls back to the default.
	code, err = security.GenerateOTP(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestMemoryOTPStore(t *testing.T) {
	ctx := context.Background()
	store := security.NewMemoryOTPStore(time.Minute)

	require.NoError(t, store.Save(ctx, "u1", "123456"))

	ok, err := store.Verify(ctx, "u1", "000000")
	require.NoError(t, err)
	assert.False(t, ok, "wrong code rejected")

	ok, err = store.Verify(ctx, "u1", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	// The code is consumed on success.
	ok, err = store.Verify(ctx, "u1", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryOTPStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := security.NewMemoryOTPStore(-time.Second)

	require.NoError(t, store.Save(ctx, "u1", "123456"))
	ok, err := store.Verify(ctx, "u1", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "expired code rejected")
}
