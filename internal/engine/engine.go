// Package engine owns the authoritative streak state. Reads merge the
// failsafe slots, the durable record, the calendar derivation and the remote
// replica into one decision; writes fan out to all of them. Nothing here may
// silently reset a legitimate streak to zero.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cleanstreak/internal/calendar"
	"cleanstreak/internal/failsafe"
	"cleanstreak/internal/remote"
	"cleanstreak/internal/storage"
	"cleanstreak/internal/streak"
)

// Options wires the engine's collaborators. Adapter, Failsafe and History are
// required; Remote may be nil for offline use.
type Options struct {
	Adapter  *storage.Adapter
	Failsafe *failsafe.Layer
	History  *calendar.Model
	Remote   remote.Client
	Clock    Clock
	Logger   *slog.Logger
	Notifier Notifier
	Anomaly  AnomalyConfig

	// RecheckDelay is how long after a write the deferred zero-clobber
	// re-check runs. Zero disables the timer; tests drive recheck directly.
	RecheckDelay time.Duration
}

type Service struct {
	adapter  *storage.Adapter
	failsafe *failsafe.Layer
	history  *calendar.Model
	remote   remote.Client
	clock    Clock
	log      *slog.Logger
	notify   Notifier
	anomaly  AnomalyConfig

	recheckDelay time.Duration

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

func NewService(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Anomaly == (AnomalyConfig{}) {
		opts.Anomaly = DefaultAnomalyConfig()
	}
	return &Service{
		adapter:      opts.Adapter,
		failsafe:     opts.Failsafe,
		history:      opts.History,
		remote:       opts.Remote,
		clock:        opts.Clock,
		log:          opts.Logger,
		notify:       opts.Notifier,
		anomaly:      opts.Anomaly,
		recheckDelay: opts.RecheckDelay,
		done:         make(chan struct{}),
	}
}

// History exposes the calendar model for the calendar UI.
func (s *Service) History() *calendar.Model { return s.history }

// Close tears down background work and waits for in-flight detached tasks.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// localReplicas assembles the local candidates in precedence order: the
// failsafe slots (an explicit user-facing assignment, trusted above all),
// the durable record, then the calendar derivation.
func (s *Service) localReplicas(ctx context.Context) []Replica {
	now := s.clock.Now()
	today := calendar.DayOf(now)

	var durable *streak.Record
	var rec streak.Record
	if s.adapter.Get(ctx, storage.KeyStreakRecord, &rec) {
		if rec.Count < 0 {
			s.log.Warn("durable record had negative count, coercing to 0", "count", rec.Count)
			rec.Count = 0
			s.adapter.Set(ctx, storage.KeyStreakRecord, rec)
		}
		durable = &rec
	}

	var fs *streak.Record
	if v, ok := s.failsafe.Get(ctx); ok {
		fr := streak.Record{Count: v}
		if durable != nil {
			fr.StartDate = durable.StartDate
			fr.LastCheckIn = durable.LastCheckIn
		}
		if v > 0 && (durable == nil || durable.Count != v) {
			fr.StartDate = today.AddDate(0, 0, -(v - 1))
		}
		fs = &fr
	}

	var cal *streak.Record
	if start, ok := s.history.StartDate(ctx); ok {
		n := calendar.Derive(s.history.History(ctx), start, now)
		cal = &streak.Record{Count: n, StartDate: calendar.DayOf(start)}
	}

	return []Replica{
		{Source: SourceFailsafe, Record: fs, ManuallySet: true},
		{Source: SourceDurable, Record: durable},
		{Source: SourceCalendar, Record: cal},
	}
}

// LoadStreak resolves the current record from the local sources, kicks off a
// detached remote reconcile, and runs the anomaly detector on the result.
// When nothing is loadable from any source the zero record is returned with
// SourceNone; the UI renders that as a fresh state.
func (s *Service) LoadStreak(ctx context.Context, userID string) (streak.Record, Source) {
	rec, src := Resolve(s.localReplicas(ctx), s.clock.Now())
	s.scheduleReconcile(userID)

	if healed, ok := s.checkAnomalies(ctx, rec, userID); ok {
		return healed, SourceDurable
	}
	return rec, src
}

// UpdateStreak is the single write path. It validates, computes an effective
// start date that agrees with the requested count, writes the failsafe slots
// and the durable record in order, then detaches the remote push and the
// zero-clobber re-check. A zero count additionally records the intentional
// reset marker so recovery never "fixes" a legitimate relapse.
func (s *Service) UpdateStreak(ctx context.Context, newCount int, userID string, explicitStart *time.Time) error {
	now := s.clock.Now()
	today := calendar.DayOf(now)

	if newCount < 0 {
		err := ValidationError{Op: "update streak", Reason: "count must be non-negative"}
		s.log.Warn("update streak rejected", "count", newCount, "err", err)
		return err
	}

	var start time.Time
	switch {
	case explicitStart != nil:
		d := calendar.DayOf(*explicitStart)
		if d.After(today) {
			err := ValidationError{Op: "update streak", Reason: "start date is in the future"}
			s.log.Warn("update streak rejected", "start", d, "err", err)
			return err
		}
		start = d
	case newCount == 0:
		start = now
	default:
		start = today.AddDate(0, 0, -(newCount - 1))
	}

	// Cross-check: the count implied by the start date must agree with the
	// requested count within one day (calendar rounding). When it does not,
	// the requested count wins and the start date is recomputed to match.
	if newCount > 0 {
		derived := calendar.DaysBetween(start, today) + 1
		if diff := derived - newCount; diff > 1 || diff < -1 {
			s.log.Info("start date disagrees with count, recomputing",
				"derived", derived, "requested", newCount)
			start = today.AddDate(0, 0, -(newCount - 1))
		}
	}

	prior, _ := Resolve(s.localReplicas(ctx), now)

	rec := streak.Record{Count: newCount, StartDate: start, LastCheckIn: now}
	s.failsafe.Set(ctx, newCount)
	s.adapter.Set(ctx, storage.KeyStreakRecord, rec)
	s.adapter.Set(ctx, storage.KeyLastLocalWrite, now)

	if newCount == 0 {
		s.adapter.Set(ctx, storage.KeyIntentionalReset, streak.ResetMarker{At: now, PriorCount: prior.Count})
	}

	s.schedulePush(userID, rec)
	if newCount > 0 {
		s.scheduleRecheck(userID, rec, now)
	}

	s.checkAnomalies(ctx, rec, userID)
	return nil
}

// PerformCheckIn applies the daily state machine: same calendar day is a
// no-op, the next day increments, a longer gap restarts at one, and the very
// first check-in starts at one. The write goes through UpdateStreak and the
// calendar log is kept in agreement.
func (s *Service) PerformCheckIn(ctx context.Context, userID string) (streak.Record, error) {
	rec, _ := s.LoadStreak(ctx, userID)
	now := s.clock.Now()

	if !rec.LastCheckIn.IsZero() && calendar.SameDay(rec.LastCheckIn, now) {
		return rec, nil
	}

	var newCount int
	switch {
	case rec.LastCheckIn.IsZero() && rec.Count == 0:
		newCount = 1
	case rec.LastCheckIn.IsZero():
		// Count recovered without a check-in timestamp; give the user the
		// benefit of the doubt and continue the streak.
		newCount = rec.Count + 1
	default:
		gap := calendar.DaysBetween(rec.LastCheckIn, now)
		switch {
		case gap == 1:
			newCount = rec.Count + 1
		case gap > 1:
			newCount = 1
		default:
			return rec, nil
		}
	}

	start := calendar.DayOf(now).AddDate(0, 0, -(newCount - 1))
	if _, err := s.history.RecordStart(ctx, start); err != nil {
		s.log.Warn("check-in: calendar backfill failed", "err", err)
	}
	if err := s.UpdateStreak(ctx, newCount, userID, &start); err != nil {
		return rec, err
	}
	got, _ := s.LoadStreak(ctx, userID)
	return got, nil
}

// RecordRelapse writes the relapse into the calendar log and resets the
// scalar record to zero through the normal write path.
func (s *Service) RecordRelapse(ctx context.Context, userID string, date time.Time) error {
	if err := s.history.RecordRelapse(ctx, date); err != nil {
		return err
	}
	startAfter, ok := s.history.StartDate(ctx)
	remaining := 0
	if ok {
		remaining = calendar.Derive(s.history.History(ctx), startAfter, s.clock.Now())
	}
	return s.UpdateStreak(ctx, remaining, userID, nil)
}

// Reset is the onboarding fresh start: clears every namespaced key and
// establishes the zero baseline.
func (s *Service) Reset(ctx context.Context, userID string) error {
	s.adapter.Clear(ctx)
	s.failsafe.Forget()
	today := calendar.DayOf(s.clock.Now())
	return s.UpdateStreak(ctx, 0, userID, &today)
}

// checkAnomalies runs the detector and, on a hit, routes the remediation
// through the normal write path so every invariant is re-established. Returns
// the healed record when a repair ran.
func (s *Service) checkAnomalies(ctx context.Context, rec streak.Record, userID string) (streak.Record, bool) {
	now := s.clock.Now()
	sig := s.anomaly.Detect(rec, now)
	if sig == AnomalyNone {
		return rec, false
	}

	today := calendar.DayOf(now)
	s.log.Warn("corruption signature detected, resetting to a one-day streak",
		"signature", string(sig), "count", rec.Count, "start", rec.StartDate)

	if _, err := s.history.RecordStart(ctx, today); err != nil {
		s.log.Warn("anomaly repair: calendar confirmation failed", "err", err)
	}
	if err := s.UpdateStreak(ctx, 1, userID, &today); err != nil {
		s.log.Warn("anomaly repair failed", "err", err)
		return rec, false
	}
	if sig == AnomalyRunaway {
		s.notify.Notify("Your streak data looked corrupted and was reset to 1 day. Sorry about that.")
	}
	return streak.Record{Count: 1, StartDate: today, LastCheckIn: now}, true
}
