package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestAdapter(t *testing.T) (*Adapter, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	return NewAdapter(context.Background(), backend, discardLogger()), backend
}

func TestAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t)

	type rec struct {
		Count int    `json:"count"`
		Name  string `json:"name"`
	}
	a.Set(ctx, "some_key", rec{Count: 7, Name: "seven"})

	var got rec
	require.True(t, a.Get(ctx, "some_key", &got))
	require.Equal(t, rec{Count: 7, Name: "seven"}, got)
}

func TestAdapterGetMissingLeavesDefault(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t)

	got := 42
	require.False(t, a.Get(ctx, "absent", &got))
	require.Equal(t, 42, got, "out must be untouched on miss")
}

func TestAdapterShadowRecovery(t *testing.T) {
	ctx := context.Background()
	a, backend := newTestAdapter(t)

	a.Set(ctx, "value", 123)

	// Corrupt the primary copy out-of-band; the shadow must take over.
	require.NoError(t, backend.Put(ctx, primaryKey("value"), []byte("{not json")))

	var got int
	require.True(t, a.Get(ctx, "value", &got))
	require.Equal(t, 123, got)

	// The recovery re-persists the primary, so a direct read works again.
	raw, err := backend.Get(ctx, primaryKey("value"))
	require.NoError(t, err)
	require.JSONEq(t, "123", string(raw))
}

func TestAdapterShadowRecoveryAfterPrimaryDelete(t *testing.T) {
	ctx := context.Background()
	a, backend := newTestAdapter(t)

	a.Set(ctx, "value", 5)
	require.NoError(t, backend.Delete(ctx, primaryKey("value")))

	var got int
	require.True(t, a.Get(ctx, "value", &got))
	require.Equal(t, 5, got)
}

func TestAdapterRemoveDeletesBothCopies(t *testing.T) {
	ctx := context.Background()
	a, backend := newTestAdapter(t)

	a.Set(ctx, "value", "x")
	a.Remove(ctx, "value")

	_, err := backend.Get(ctx, primaryKey("value"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = backend.Get(ctx, shadowKey("value"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	var got string
	require.False(t, a.Get(ctx, "value", &got))
}

func TestAdapterClearPurgesNamespaceOnly(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, "foreign_key", []byte("keep me")))

	a := NewAdapter(ctx, backend, discardLogger())
	a.Set(ctx, "one", 1)
	a.Set(ctx, "two", 2)
	a.Clear(ctx)

	var got int
	require.False(t, a.Get(ctx, "one", &got))
	require.False(t, a.Get(ctx, "two", &got))

	raw, err := backend.Get(ctx, "foreign_key")
	require.NoError(t, err)
	require.Equal(t, "keep me", string(raw))
}

func TestAdapterSchemaMismatchPurges(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	a := NewAdapter(ctx, backend, discardLogger())
	a.Set(ctx, "survivor", "no")

	// Rewrite the marker to a stale version and reconstruct.
	require.NoError(t, backend.Put(ctx, namespace+keySchemaVersion, []byte("0")))
	a2 := NewAdapter(ctx, backend, discardLogger())

	var got string
	require.False(t, a2.Get(ctx, "survivor", &got), "stale-schema data must be purged")

	raw, err := backend.Get(ctx, namespace+keySchemaVersion)
	require.NoError(t, err)
	require.Equal(t, "1", string(raw))
}

func TestAdapterSameSchemaKeepsData(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	a := NewAdapter(ctx, backend, discardLogger())
	a.Set(ctx, "survivor", "yes")

	a2 := NewAdapter(ctx, backend, discardLogger())
	var got string
	require.True(t, a2.Get(ctx, "survivor", &got))
	require.Equal(t, "yes", got)
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")
	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := NewSQLiteBackend(db)

	_, err = b.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, b.Put(ctx, "a/one", []byte("1")))
	require.NoError(t, b.Put(ctx, "a/two", []byte("2")))
	require.NoError(t, b.Put(ctx, "b/three", []byte("3")))
	require.NoError(t, b.Put(ctx, "a/one", []byte("1.1")), "upsert must overwrite")

	v, err := b.Get(ctx, "a/one")
	require.NoError(t, err)
	require.Equal(t, "1.1", string(v))

	keys, err := b.Keys(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/one", "a/two"}, keys)

	require.NoError(t, b.Delete(ctx, "a/one"))
	_, err = b.Get(ctx, "a/one")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBadgerBackend(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, err = b.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, b.Put(ctx, "a/one", []byte("1")))
	require.NoError(t, b.Put(ctx, "b/two", []byte("2")))

	keys, err := b.Keys(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/one"}, keys)

	require.NoError(t, b.Delete(ctx, "a/one"))
	_, err = b.Get(ctx, "a/one")
	require.ErrorIs(t, err, ErrKeyNotFound)
}
