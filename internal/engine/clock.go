package engine

import "time"

// Clock abstracts time.Now so check-in day boundaries and the deferred
// re-check are testable without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
