// Package calendar keeps the day-by-day event log a streak can be re-derived
// from. It is the independent second opinion: the engine's scalar record and
// this model must agree, and when they do not, the derivation here is the one
// that can be recomputed from first principles.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cleanstreak/internal/storage"
)

type DayStatus string

const (
	StatusClean   DayStatus = "clean"
	StatusRelapse DayStatus = "relapse"
)

// History maps a civil date key ("2006-01-02") to the status recorded for
// that day. At most one status per day; relapse is sticky (see RecordRelapse).
type History map[string]DayStatus

const dateLayout = "2006-01-02"

// DayOf normalizes t to the midnight of its calendar date, expressed in UTC so
// day arithmetic stays exact across DST transitions.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey renders the calendar date of t as a history key.
func DateKey(t time.Time) string {
	return DayOf(t).Format(dateLayout)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// DaysBetween returns the whole calendar days from a to b (negative when b is
// before a). Both are day-normalized first.
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)).Hours() / 24)
}

// Derive computes the streak length from the event log. A zero or future
// startDate yields 0. Otherwise the closed interval [startDate, today] is
// scanned for the most recent relapse: the streak is the number of days
// strictly after it through today, or the full interval when none exists.
// Idempotent, and bounded by today-startDate iterations.
func Derive(history History, startDate, today time.Time) int {
	start := DayOf(startDate)
	today = DayOf(today)
	if startDate.IsZero() || start.After(today) {
		return 0
	}

	lastRelapse := time.Time{}
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		if history[day.Format(dateLayout)] == StatusRelapse {
			lastRelapse = day
		}
	}
	if lastRelapse.IsZero() {
		return DaysBetween(start, today) + 1
	}
	return DaysBetween(lastRelapse, today)
}

// Model persists the history map and streak-start marker through the durable
// store adapter.
type Model struct {
	adapter *storage.Adapter
	log     *slog.Logger
	now     func() time.Time
}

func NewModel(adapter *storage.Adapter, log *slog.Logger, now func() time.Time) *Model {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Model{adapter: adapter, log: log, now: now}
}

// History loads the persisted event log; an unreadable or absent log is an
// empty one.
func (m *Model) History(ctx context.Context) History {
	h := History{}
	m.adapter.Get(ctx, storage.KeyCalendarHistory, &h)
	return h
}

// StartDate loads the streak-start marker.
func (m *Model) StartDate(ctx context.Context) (time.Time, bool) {
	var raw string
	if !m.adapter.Get(ctx, storage.KeyStreakStartDate, &raw) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		m.log.Warn("calendar: unparseable start date marker", "raw", raw, "err", err)
		return time.Time{}, false
	}
	return t, true
}

func (m *Model) setStartDate(ctx context.Context, day time.Time) {
	m.adapter.Set(ctx, storage.KeyStreakStartDate, day.Format(dateLayout))
}

// RecordStart backfills the streak beginning at date: every day from date
// through today is marked clean unless a relapse is already recorded there,
// and the start marker is moved to date. Returns the re-derived streak length.
func (m *Model) RecordStart(ctx context.Context, date time.Time) (int, error) {
	today := DayOf(m.now())
	day := DayOf(date)
	if day.After(today) {
		m.log.Warn("calendar: rejecting future start date", "date", day.Format(dateLayout))
		return 0, fmt.Errorf("start date %s is in the future", day.Format(dateLayout))
	}

	h := m.History(ctx)
	for d := day; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		if h[key] != StatusRelapse {
			h[key] = StatusClean
		}
	}
	m.adapter.Set(ctx, storage.KeyCalendarHistory, h)
	m.setStartDate(ctx, day)

	return Derive(h, day, today), nil
}

// RecordRelapse marks date as a relapse day. Relapse always wins over a
// previously recorded clean entry for the same day. The streak-start marker
// moves to the day after the relapse; when that day has not happened yet the
// marker is cleared, meaning the next streak has not started.
func (m *Model) RecordRelapse(ctx context.Context, date time.Time) error {
	today := DayOf(m.now())
	day := DayOf(date)
	if day.After(today) {
		m.log.Warn("calendar: rejecting future relapse date", "date", day.Format(dateLayout))
		return fmt.Errorf("relapse date %s is in the future", day.Format(dateLayout))
	}

	h := m.History(ctx)
	h[day.Format(dateLayout)] = StatusRelapse
	m.adapter.Set(ctx, storage.KeyCalendarHistory, h)

	cur, ok := m.StartDate(ctx)
	if !ok || !day.Before(DayOf(cur)) {
		newStart := day.AddDate(0, 0, 1)
		if newStart.After(today) {
			m.adapter.Remove(ctx, storage.KeyStreakStartDate)
		} else {
			m.setStartDate(ctx, newStart)
		}
	}
	return nil
}

// CurrentStreak re-derives the streak length from the persisted log.
func (m *Model) CurrentStreak(ctx context.Context) int {
	start, ok := m.StartDate(ctx)
	if !ok {
		return 0
	}
	return Derive(m.History(ctx), start, m.now())
}
