package failsafe

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"cleanstreak/internal/storage"
)

func newTestLayer(t *testing.T) (*Layer, *storage.Adapter) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	adapter := storage.NewAdapter(context.Background(), storage.NewMemoryBackend(), log)
	return New(adapter, log), adapter
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLayer(t)

	v, ok := l.Get(ctx)
	require.False(t, ok, "empty layer must report no opinion")
	require.Equal(t, 0, v)

	l.Set(ctx, 12)
	v, ok = l.Get(ctx)
	require.True(t, ok)
	require.Equal(t, 12, v)
}

func TestZeroIsAnOpinion(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLayer(t)

	l.Set(ctx, 0)
	v, ok := l.Get(ctx)
	require.True(t, ok, "explicit zero is a value, not absence")
	require.Equal(t, 0, v)
}

func TestNegativeRejected(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLayer(t)

	l.Set(ctx, 5)
	l.Set(ctx, -1)

	v, ok := l.Get(ctx)
	require.True(t, ok)
	require.Equal(t, 5, v, "negative write must not clobber the stored value")
}

func TestSlotFallbackAfterPrimaryLoss(t *testing.T) {
	ctx := context.Background()
	l, adapter := newTestLayer(t)

	l.Set(ctx, 9)
	l.Forget()

	// Primary slot removed out-of-band: backup must answer.
	adapter.Remove(ctx, storage.KeyFailsafePrimary)
	v, ok := l.Get(ctx)
	require.True(t, ok)
	require.Equal(t, 9, v)

	// Backup gone too: last resort must answer.
	l.Forget()
	adapter.Remove(ctx, storage.KeyFailsafeBackup)
	v, ok = l.Get(ctx)
	require.True(t, ok)
	require.Equal(t, 9, v)

	// All three slots gone, mirror forgotten: no opinion.
	l.Forget()
	adapter.Remove(ctx, storage.KeyFailsafeLastResort)
	_, ok = l.Get(ctx)
	require.False(t, ok)
}

func TestMirrorServesWithoutStorage(t *testing.T) {
	ctx := context.Background()
	l, adapter := newTestLayer(t)

	l.Set(ctx, 30)
	adapter.Remove(ctx, storage.KeyFailsafePrimary)
	adapter.Remove(ctx, storage.KeyFailsafeBackup)
	adapter.Remove(ctx, storage.KeyFailsafeLastResort)

	v, ok := l.Get(ctx)
	require.True(t, ok, "memory mirror answers even with all slots gone")
	require.Equal(t, 30, v)
}
