package checkout

import "fmt"

// State is a step of a single checkout attempt.
type State string

const (
	StateValidating           State = "Validating"
	StateReservingStock       State = "ReservingStock"
	StateRecordingPreferences State = "RecordingPreferences"
	StateRecordingOrder       State = "RecordingOrder"
	StateClearingCart         State = "ClearingCart"
	StateComplete             State = "Complete"
	StateFailed               State = "Failed"
)

var transitions = map[State]State{
	StateValidating:           StateReservingStock,
	StateReservingStock:       StateRecordingPreferences,
	StateRecordingPreferences: StateRecordingOrder,
	StateRecordingOrder:       StateClearingCart,
	StateClearingCart:         StateComplete,
}

// CanTransitionTo allows the next forward step, or Failed from any
// non-terminal state.
func (s State) CanTransitionTo(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	return transitions[s] == next
}

func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

type IllegalTransitionError struct {
	From State
	To   State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal checkout transition %s -> %s", e.From, e.To)
}
