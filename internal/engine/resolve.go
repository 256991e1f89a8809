package engine

import (
	"time"

	"cleanstreak/internal/streak"
)

// Source names where a resolved streak value came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceFailsafe Source = "failsafe"
	SourceDurable  Source = "durable"
	SourceCalendar Source = "calendar"
	SourceRemote   Source = "remote"
)

// Replica is one candidate copy of the streak record. ManuallySet marks a
// value that represents an explicit user-facing assignment (the failsafe
// layer), which a remote copy may never regress below.
type Replica struct {
	Source      Source
	Record      *streak.Record
	ManuallySet bool
}

// Resolve merges an ordered candidate list into one record. The first
// non-remote replica with data is the local base; it is trusted outright. A
// remote replica is adopted only when strictly newer by LastCheckIn and not a
// count regression against a manually set base. Equal timestamps go to the
// higher count, giving the user the benefit of the doubt. Absent everything,
// the zero record is returned.
func Resolve(replicas []Replica, now time.Time) (streak.Record, Source) {
	var base *streak.Record
	baseSrc := SourceNone
	baseManual := false
	var remote *streak.Record

	for i := range replicas {
		r := &replicas[i]
		if r.Record == nil {
			continue
		}
		if r.Source == SourceRemote {
			if remote == nil {
				remote = r.Record
			}
			continue
		}
		if base == nil {
			rec := *r.Record
			if rec.Count < 0 {
				rec.Count = 0
			}
			base = &rec
			baseSrc = r.Source
			baseManual = r.ManuallySet
		}
	}

	if remote != nil && remote.Count < 0 {
		remote = nil
	}

	if base == nil {
		if remote != nil {
			return *remote, SourceRemote
		}
		return streak.Record{}, SourceNone
	}

	if remote != nil {
		newer := remote.LastCheckIn.After(base.LastCheckIn)
		tied := remote.LastCheckIn.Equal(base.LastCheckIn)
		regression := baseManual && remote.Count < base.Count
		if (newer && !regression) || (tied && remote.Count > base.Count) {
			return *remote, SourceRemote
		}
	}
	return *base, baseSrc
}
