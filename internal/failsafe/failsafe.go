// Package failsafe stores the raw streak count in four independent places: a
// process-memory mirror plus three durable store slots. The value is tiny and
// losing it is maximally user-visible, so redundancy wins over storage
// efficiency.
package failsafe

import (
	"context"
	"log/slog"
	"sync"

	"cleanstreak/internal/storage"
)

type Layer struct {
	adapter *storage.Adapter
	log     *slog.Logger

	mu     sync.RWMutex
	mirror *int
}

func New(adapter *storage.Adapter, log *slog.Logger) *Layer {
	if log == nil {
		log = slog.Default()
	}
	return &Layer{adapter: adapter, log: log}
}

var slots = []string{
	storage.KeyFailsafePrimary,
	storage.KeyFailsafeBackup,
	storage.KeyFailsafeLastResort,
}

// Set writes value to the memory mirror first, then to all three durable
// slots. A failing slot never prevents the others; the adapter already
// swallows individual write errors. Negative values are rejected with a log
// line and no write at all.
func (l *Layer) Set(ctx context.Context, value int) {
	if value < 0 {
		l.log.Warn("failsafe set: rejecting negative streak", "value", value)
		return
	}

	l.mu.Lock()
	v := value
	l.mirror = &v
	l.mu.Unlock()

	for _, slot := range slots {
		l.adapter.Set(ctx, slot, value)
	}
}

// Get returns the stored streak count and whether any source had one. The
// memory mirror is consulted first for same-process consistency, then the
// three slots in priority order. A false return means "no opinion", which is
// distinct from zero.
func (l *Layer) Get(ctx context.Context) (int, bool) {
	l.mu.RLock()
	if l.mirror != nil {
		v := *l.mirror
		l.mu.RUnlock()
		return v, true
	}
	l.mu.RUnlock()

	for _, slot := range slots {
		var v int
		if l.adapter.Get(ctx, slot, &v) {
			if v < 0 {
				l.log.Warn("failsafe get: ignoring negative slot value", "slot", slot, "value", v)
				continue
			}
			l.mu.Lock()
			vv := v
			l.mirror = &vv
			l.mu.Unlock()
			return v, true
		}
	}
	return 0, false
}

// Forget drops the memory mirror. Used after a bulk clear so that a stale
// in-process value cannot resurrect purged state.
func (l *Layer) Forget() {
	l.mu.Lock()
	l.mirror = nil
	l.mu.Unlock()
}
