package engine

import (
	"context"
	"time"

	"cleanstreak/internal/storage"
	"cleanstreak/internal/streak"
)

const detachedOpTimeout = 15 * time.Second

// schedulePush upserts the record to the remote replica on a detached
// goroutine. Failures are logged only; the next natural sync retries, never
// the caller.
func (s *Service) schedulePush(userID string, rec streak.Record) {
	if s.remote == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), detachedOpTimeout)
		defer cancel()
		if err := s.remote.Push(ctx, userID, rec); err != nil {
			s.log.Warn("remote push failed", "user", userID, "err", err)
		}
	}()
}

// scheduleReconcile runs one pull/merge pass on a detached goroutine, so the
// local read path never waits on the network.
func (s *Service) scheduleReconcile(userID string) {
	if s.remote == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-s.done:
			return
		default:
		}
		ctx, cancel := context.WithTimeout(context.Background(), detachedOpTimeout)
		defer cancel()
		_ = s.SyncNow(ctx, userID)
	}()
}

// SyncNow pulls the remote replica and reconciles it against the local
// sources synchronously. When the local value wins, the remote is scheduled
// to be overwritten rather than adopted.
func (s *Service) SyncNow(ctx context.Context, userID string) error {
	if s.remote == nil {
		return nil
	}
	fetchStart := s.clock.Now()

	rem, err := s.remote.Pull(ctx, userID)
	if err != nil {
		s.log.Warn("remote pull failed", "user", userID, "err", err)
		return err
	}
	s.applyRemote(ctx, userID, rem, fetchStart)
	return nil
}

// applyRemote merges a pulled replica. The staleness guard: any local write
// timestamped after the fetch started must not be overwritten by this
// fetch's result.
func (s *Service) applyRemote(ctx context.Context, userID string, rem *streak.Record, fetchStart time.Time) {
	now := s.clock.Now()

	var lastWrite time.Time
	stale := s.adapter.Get(ctx, storage.KeyLastLocalWrite, &lastWrite) && lastWrite.After(fetchStart)
	if stale {
		s.log.Info("remote result discarded, local write is newer", "user", userID)
		rem = nil
	}

	replicas := s.localReplicas(ctx)
	replicas = append(replicas, Replica{Source: SourceRemote, Record: rem})
	merged, src := Resolve(replicas, now)

	if src == SourceRemote {
		s.log.Info("adopting remote replica", "user", userID, "count", merged.Count)
		s.failsafe.Set(ctx, merged.Count)
		s.adapter.Set(ctx, storage.KeyStreakRecord, merged)
		s.adapter.Set(ctx, storage.KeyLastLocalWrite, now)
		return
	}
	if src != SourceNone {
		// Local wins; bring the lagging remote up to date.
		s.schedulePush(userID, merged)
	}
}

// StartReconcileLoop begins the periodic local/remote agreement check. Torn
// down by Close.
func (s *Service) StartReconcileLoop(userID string, interval time.Duration) {
	if s.remote == nil || interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), detachedOpTimeout)
				_ = s.SyncNow(ctx, userID)
				cancel()
			}
		}
	}()
}

// scheduleRecheck arms the deferred zero-clobber guard after a nonzero write.
func (s *Service) scheduleRecheck(userID string, intended streak.Record, wroteAt time.Time) {
	if s.recheckDelay <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-s.done:
			return
		case <-time.After(s.recheckDelay):
		}
		ctx, cancel := context.WithTimeout(context.Background(), detachedOpTimeout)
		defer cancel()
		s.recheck(ctx, userID, intended, wroteAt)
	}()
}

// recheck re-reads the record shortly after a nonzero write. Observing a zero
// that no fresh intentional-reset marker explains means a lagging concurrent
// writer clobbered the value; the intended record is restored.
func (s *Service) recheck(ctx context.Context, userID string, intended streak.Record, wroteAt time.Time) {
	if intended.Count == 0 {
		return
	}
	var observed streak.Record
	if !s.adapter.Get(ctx, storage.KeyStreakRecord, &observed) || observed.Count != 0 {
		return
	}

	var marker streak.ResetMarker
	if s.adapter.Get(ctx, storage.KeyIntentionalReset, &marker) && !marker.At.Before(wroteAt) {
		// A legitimate reset landed after our write; leave it alone.
		return
	}

	s.log.Warn("zero clobbered a fresh nonzero write, restoring",
		"user", userID, "restored", intended.Count)
	s.failsafe.Set(ctx, intended.Count)
	s.adapter.Set(ctx, storage.KeyStreakRecord, intended)
	s.adapter.Set(ctx, storage.KeyLastLocalWrite, s.clock.Now())
	s.schedulePush(userID, intended)
}
