package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_CanTransitionTo(t *testing.T) {
	path := []State{StateValidating, StateReservingStock, StateRecordingPreferences, StateRecordingOrder, StateClearingCart, StateComplete}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, path[i].CanTransitionTo(path[i+1]), "%s -> %s", path[i], path[i+1])
		assert.True(t, path[i].CanTransitionTo(StateFailed), "%s -> Failed", path[i])
		assert.False(t, path[i+1].CanTransitionTo(path[i]), "%s -> %s", path[i+1], path[i])
	}

	assert.False(t, StateValidating.CanTransitionTo(StateRecordingOrder))
	assert.False(t, StateComplete.CanTransitionTo(StateFailed))
	assert.False(t, StateFailed.CanTransitionTo(StateValidating))
}
