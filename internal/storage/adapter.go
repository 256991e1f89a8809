package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// SchemaVersion is the current on-disk layout version. A mismatch at adapter
// construction purges the whole namespace and rewrites the marker; there is
// deliberately no merge path between layout versions.
const SchemaVersion = 1

// Adapter is the durable store boundary. Every value is serialized to JSON and
// written twice: once under the primary key and once under a shadow backup key,
// so a single corrupted record can be recovered on read. Writes never return an
// error to the caller; failures degrade to a logged warning because persistence
// problems must not crash the code paths that update a user's streak.
type Adapter struct {
	backend Backend
	log     *slog.Logger
}

// NewAdapter wraps the backend and runs the once-per-process schema check.
func NewAdapter(ctx context.Context, backend Backend, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	a := &Adapter{backend: backend, log: log}
	a.checkSchemaVersion(ctx)
	return a
}

func (a *Adapter) checkSchemaVersion(ctx context.Context) {
	raw, err := a.backend.Get(ctx, namespace+keySchemaVersion)
	if err == nil {
		if v, convErr := strconv.Atoi(strings.TrimSpace(string(raw))); convErr == nil && v == SchemaVersion {
			return
		}
		a.log.Warn("storage schema mismatch, purging namespace", "found", string(raw), "want", SchemaVersion)
		a.Clear(ctx)
	} else if !errors.Is(err, ErrKeyNotFound) {
		a.log.Warn("storage schema marker unreadable, purging namespace", "err", err)
		a.Clear(ctx)
	}
	if err := a.backend.Put(ctx, namespace+keySchemaVersion, []byte(strconv.Itoa(SchemaVersion))); err != nil {
		a.log.Warn("storage schema marker write failed", "err", err)
	}
}

func primaryKey(key string) string { return namespace + key }
func shadowKey(key string) string  { return namespace + key + shadowSuffix }

// Set serializes value to JSON and writes the primary and shadow copies.
// A failed primary write does not prevent the shadow write and vice versa.
func (a *Adapter) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		a.log.Warn("storage set: marshal failed", "key", key, "err", err)
		return
	}
	if err := a.backend.Put(ctx, primaryKey(key), data); err != nil {
		a.log.Warn("storage set: primary write failed", "key", key, "err", err)
	}
	if err := a.backend.Put(ctx, shadowKey(key), data); err != nil {
		a.log.Warn("storage set: shadow write failed", "key", key, "err", err)
	}
	a.log.Debug("storage set", "key", key, "bytes", len(data))
}

// Get reads the primary copy into out. On a missing or undecodable primary it
// falls back to the shadow copy and, on success, re-persists it as primary.
// Returns false only when neither copy is readable; out is untouched then, so
// callers pre-fill it with their default.
func (a *Adapter) Get(ctx context.Context, key string, out any) bool {
	if a.tryRead(ctx, primaryKey(key), out) {
		return true
	}
	if a.tryRead(ctx, shadowKey(key), out) {
		a.log.Warn("storage get: primary unreadable, recovered from shadow", "key", key)
		if data, err := json.Marshal(out); err == nil {
			if err := a.backend.Put(ctx, primaryKey(key), data); err != nil {
				a.log.Warn("storage get: primary re-persist failed", "key", key, "err", err)
			}
		}
		return true
	}
	return false
}

func (a *Adapter) tryRead(ctx context.Context, rawKey string, out any) bool {
	data, err := a.backend.Get(ctx, rawKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			a.log.Warn("storage get: read failed", "key", rawKey, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		a.log.Warn("storage get: unmarshal failed", "key", rawKey, "err", err)
		return false
	}
	return true
}

// Remove deletes the primary and shadow copies.
func (a *Adapter) Remove(ctx context.Context, key string) {
	if err := a.backend.Delete(ctx, primaryKey(key)); err != nil {
		a.log.Warn("storage remove: primary delete failed", "key", key, "err", err)
	}
	if err := a.backend.Delete(ctx, shadowKey(key)); err != nil {
		a.log.Warn("storage remove: shadow delete failed", "key", key, "err", err)
	}
}

// Clear deletes every namespaced key, shadow copies included. Used by the
// onboarding fresh-start path and by the destructive schema migration.
func (a *Adapter) Clear(ctx context.Context) {
	keys, err := a.backend.Keys(ctx, namespace)
	if err != nil {
		a.log.Warn("storage clear: key listing failed", "err", err)
		return
	}
	for _, k := range keys {
		if err := a.backend.Delete(ctx, k); err != nil {
			a.log.Warn("storage clear: delete failed", "key", k, "err", err)
		}
	}
	a.log.Info("storage namespace cleared", "keys", len(keys))
}
