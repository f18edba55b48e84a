package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asegura/renomail/internal/testutil"
)

func TestRunLock(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	lock := NewRunLock(pool)

	t.Run("second acquire for the same account is refused", func(t *testing.T) {
		release, err := lock.Acquire(ctx, "ops@example.com")
		require.NoError(t, err)

		_, err = lock.Acquire(ctx, "ops@example.com")
		assert.ErrorIs(t, err, ErrSyncAlreadyRunning)

		release()
	})

	t.Run("release makes the lock available again", func(t *testing.T) {
		release, err := lock.Acquire(ctx, "ops@example.com")
		require.NoError(t, err)
		release()

		release, err = lock.Acquire(ctx, "ops@example.com")
		require.NoError(t, err)
		release()
	})

	t.Run("accounts lock independently", func(t *testing.T) {
		releaseA, err := lock.Acquire(ctx, "ops@example.com")
		require.NoError(t, err)

		releaseB, err := lock.Acquire(ctx, "soporte@example.com")
		require.NoError(t, err)

		releaseA()
		releaseB()
	})
}
