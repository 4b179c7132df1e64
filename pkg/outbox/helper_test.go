package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("habit", 7, "habit.checked_in", map[string]any{"habit_id": 7, "day": "2026-10-18"})
	require.NoError(t, err)
	assert.Equal(t, "habit", ev.AggregateType)
	require.NotNil(t, ev.AggregateID)
	assert.Equal(t, int64(7), *ev.AggregateID)
	assert.Equal(t, "habit.checked_in", ev.RoutingKey)
	assert.Equal(t, StatusPending, ev.Status)
	assert.JSONEq(t, `{"habit_id":7,"day":"2026-10-18"}`, string(ev.Payload))

	_, err = NewEvent("habit", 7, "habit.checked_in", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "habit.checked_in")
}
