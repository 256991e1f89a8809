package calendar

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"cleanstreak/internal/storage"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestModel(t *testing.T, today string) *Model {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	adapter := storage.NewAdapter(context.Background(), storage.NewMemoryBackend(), log)
	return NewModel(adapter, log, func() time.Time { return day(today) })
}

func TestDeriveNoRelapse(t *testing.T) {
	h := History{}
	if got := Derive(h, day("2026-08-01"), day("2026-08-10")); got != 10 {
		t.Fatalf("Derive=%d, want 10", got)
	}
	if got := Derive(h, day("2026-08-10"), day("2026-08-10")); got != 1 {
		t.Fatalf("Derive same-day=%d, want 1", got)
	}
}

func TestDeriveNilOrFutureStart(t *testing.T) {
	h := History{}
	if got := Derive(h, time.Time{}, day("2026-08-10")); got != 0 {
		t.Fatalf("Derive zero start=%d, want 0", got)
	}
	if got := Derive(h, day("2026-08-11"), day("2026-08-10")); got != 0 {
		t.Fatalf("Derive future start=%d, want 0", got)
	}
}

func TestDeriveCountsAfterMostRecentRelapse(t *testing.T) {
	h := History{
		"2026-08-03": StatusRelapse,
		"2026-08-06": StatusRelapse,
	}
	// Days strictly after 08-06 through 08-10: 4.
	if got := Derive(h, day("2026-08-01"), day("2026-08-10")); got != 4 {
		t.Fatalf("Derive=%d, want 4", got)
	}
	// Relapse today: streak is 0.
	h["2026-08-10"] = StatusRelapse
	if got := Derive(h, day("2026-08-01"), day("2026-08-10")); got != 0 {
		t.Fatalf("Derive relapse today=%d, want 0", got)
	}
}

func TestRecordStartBackfillsClean(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	n, err := m.RecordStart(ctx, day("2026-08-06"))
	if err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if n != 5 {
		t.Fatalf("RecordStart streak=%d, want 5", n)
	}

	h := m.History(ctx)
	for _, k := range []string{"2026-08-06", "2026-08-07", "2026-08-08", "2026-08-09", "2026-08-10"} {
		if h[k] != StatusClean {
			t.Fatalf("day %s = %q, want clean", k, h[k])
		}
	}
	start, ok := m.StartDate(ctx)
	if !ok || !start.Equal(day("2026-08-06")) {
		t.Fatalf("start date = %v (%v), want 2026-08-06", start, ok)
	}
}

func TestRecordStartIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	n1, err := m.RecordStart(ctx, day("2026-08-06"))
	if err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	h1 := m.History(ctx)

	n2, err := m.RecordStart(ctx, day("2026-08-06"))
	if err != nil {
		t.Fatalf("RecordStart again: %v", err)
	}
	h2 := m.History(ctx)

	if n1 != n2 {
		t.Fatalf("derived streak changed across identical calls: %d vs %d", n1, n2)
	}
	if len(h1) != len(h2) {
		t.Fatalf("history changed across identical calls: %d vs %d entries", len(h1), len(h2))
	}
	for k, v := range h1 {
		if h2[k] != v {
			t.Fatalf("history[%s] changed: %q vs %q", k, v, h2[k])
		}
	}
}

func TestRecordStartDoesNotOverwriteRelapse(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	if err := m.RecordRelapse(ctx, day("2026-08-08")); err != nil {
		t.Fatalf("RecordRelapse: %v", err)
	}
	n, err := m.RecordStart(ctx, day("2026-08-06"))
	if err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	// Relapse on 08-08 survives the backfill; streak counts 08-09..08-10.
	if n != 2 {
		t.Fatalf("RecordStart streak=%d, want 2", n)
	}
	if got := m.History(ctx)["2026-08-08"]; got != StatusRelapse {
		t.Fatalf("day 2026-08-08 = %q, want relapse", got)
	}
}

func TestRecordStartRejectsFuture(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	if _, err := m.RecordStart(ctx, day("2026-08-11")); err == nil {
		t.Fatalf("expected error for future start date")
	}
	if len(m.History(ctx)) != 0 {
		t.Fatalf("future start must not mutate history")
	}
}

func TestRelapseWinsOverClean(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	if _, err := m.RecordStart(ctx, day("2026-08-05")); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := m.RecordRelapse(ctx, day("2026-08-07")); err != nil {
		t.Fatalf("RecordRelapse: %v", err)
	}
	if got := m.History(ctx)["2026-08-07"]; got != StatusRelapse {
		t.Fatalf("day 2026-08-07 = %q, want relapse", got)
	}
}

func TestRelapseMovesStartToNextDay(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	if _, err := m.RecordStart(ctx, day("2026-08-01")); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := m.RecordRelapse(ctx, day("2026-08-07")); err != nil {
		t.Fatalf("RecordRelapse: %v", err)
	}
	start, ok := m.StartDate(ctx)
	if !ok || !start.Equal(day("2026-08-08")) {
		t.Fatalf("start date = %v (%v), want 2026-08-08", start, ok)
	}
	if got := m.CurrentStreak(ctx); got != 3 {
		t.Fatalf("CurrentStreak=%d, want 3", got)
	}
}

func TestRelapseTodayClearsStartMarker(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	if _, err := m.RecordStart(ctx, day("2026-08-01")); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := m.RecordRelapse(ctx, day("2026-08-10")); err != nil {
		t.Fatalf("RecordRelapse: %v", err)
	}
	if _, ok := m.StartDate(ctx); ok {
		t.Fatalf("start marker should be cleared when next day is in the future")
	}
	if got := m.CurrentStreak(ctx); got != 0 {
		t.Fatalf("CurrentStreak=%d, want 0", got)
	}
}

func TestRelapseBeforeExistingStartKeepsMarker(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	if _, err := m.RecordStart(ctx, day("2026-08-05")); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	// Historical relapse before the current streak began.
	if err := m.RecordRelapse(ctx, day("2026-08-02")); err != nil {
		t.Fatalf("RecordRelapse: %v", err)
	}
	start, ok := m.StartDate(ctx)
	if !ok || !start.Equal(day("2026-08-05")) {
		t.Fatalf("start date = %v (%v), want unchanged 2026-08-05", start, ok)
	}
}

func TestRecordRelapseRejectsFuture(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, "2026-08-10")

	if err := m.RecordRelapse(ctx, day("2026-08-11")); err == nil {
		t.Fatalf("expected error for future relapse date")
	}
}
