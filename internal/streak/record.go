// Package streak defines the authoritative streak record shared by the local
// engine and the remote replica.
package streak

import "time"

// Record is the scalar streak state for one user: consecutive clean days, the
// instant the streak began (day-normalized), and the instant of the most
// recent write. Count == 0 attaches no meaning to StartDate beyond "now".
type Record struct {
	Count       int       `json:"streakCount"`
	StartDate   time.Time `json:"startDate"`
	LastCheckIn time.Time `json:"lastCheckIn"`
}

// ResetMarker records a deliberate reset to zero (relapse or fresh
// onboarding), so recovery paths can tell "user relapsed" apart from "storage
// lost the value".
type ResetMarker struct {
	At         time.Time `json:"at"`
	PriorCount int       `json:"priorCount"`
}
