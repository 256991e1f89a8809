package engine

import "fmt"

// ValidationError indicates malformed input to a streak mutation. The call it
// came from was a no-op; nothing was partially applied.
type ValidationError struct {
	Op     string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
