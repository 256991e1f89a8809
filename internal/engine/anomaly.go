package engine

import (
	"time"

	"cleanstreak/internal/streak"
)

// Anomaly names a recognized corruption signature.
type Anomaly string

const (
	AnomalyNone Anomaly = ""

	// AnomalyRunaway is a streak count at or above an implausible magnitude,
	// the footprint of a duplicated or overflowed accumulation. Remediation
	// is user-notified because the visible number changes drastically.
	AnomalyRunaway Anomaly = "runaway_magnitude"

	// AnomalyFutureStart is a mid-range count paired with a start date after
	// now, the footprint of a start-date computation error. Remediated
	// silently; no user data was involved.
	AnomalyFutureStart Anomaly = "future_start_date"
)

// AnomalyConfig carries the signature thresholds. The values mirror the
// corruption shapes observed in the field rather than any derived bound, so
// they are configuration, not constants.
type AnomalyConfig struct {
	// RunawayThreshold is the count at or above which a streak is treated as
	// a runaway accumulation. Default 730: two years of daily check-ins is
	// beyond any record this tracker has legitimately produced.
	RunawayThreshold int `yaml:"runaway_threshold"`

	// FutureStartMinCount is the lowest count the future-start signature
	// fires for. Small counts with a future start are handled by ordinary
	// validation; the signature targets the mid-range corruption shape.
	FutureStartMinCount int `yaml:"future_start_min_count"`
}

func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		RunawayThreshold:    730,
		FutureStartMinCount: 30,
	}
}

// Detect inspects a resolved record for the known corruption signatures.
func (c AnomalyConfig) Detect(rec streak.Record, now time.Time) Anomaly {
	if c.RunawayThreshold > 0 && rec.Count >= c.RunawayThreshold {
		return AnomalyRunaway
	}
	if rec.Count >= c.FutureStartMinCount && rec.Count < c.RunawayThreshold &&
		!rec.StartDate.IsZero() && rec.StartDate.After(now) {
		return AnomalyFutureStart
	}
	return AnomalyNone
}

// Notifier surfaces remediation messages to the user. The CLI prints them;
// tests capture them.
type Notifier interface {
	Notify(message string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}
