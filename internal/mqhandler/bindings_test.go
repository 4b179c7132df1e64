package mqhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	mqcontracts "sampleapps/contracts/mq"
)

func TestBindings(t *testing.T) {
	bs := Bindings(
		NewActivityHandler(&memActivity{}, nil, zap.NewNop()),
		NewHabitStatsHandler(&recordingInvalidator{}, zap.NewNop()),
		NewBudgetHandler(fakeTotals{}, fakeBudgets{}, &memActivity{}, nil, zap.NewNop()),
	)

	queues := map[string]bool{}
	perKey := map[string]int{}
	for _, b := range bs {
		assert.False(t, queues[b.Queue], "duplicate queue %s", b.Queue)
		queues[b.Queue] = true
		perKey[b.RoutingKey]++
		assert.NotNil(t, b.Handler)
	}

	assert.Equal(t, map[string]int{
		mqcontracts.RoutingHabitCheckedIn:      2,
		mqcontracts.RoutingHabitCheckInRemoved: 2,
		mqcontracts.RoutingCardReviewed:        1,
		mqcontracts.RoutingExpenseCreated:      2,
		mqcontracts.RoutingPlantWatered:        1,
	}, perKey)
}
