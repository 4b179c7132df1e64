package mqhandler

import (
	mqcontracts "sampleapps/contracts/mq"
	"sampleapps/pkg/mq"
)

// Binding ties one queue to one routing key on the events exchange.
type Binding struct {
	Queue      string
	RoutingKey string
	Handler    mq.MessageHandler
}

// Bindings lists every queue the worker consumes. Each handler gets its own
// queue so a failure in one never blocks the others.
func Bindings(activity *ActivityHandler, stats *HabitStatsHandler, budget *BudgetHandler) []Binding {
	var out []Binding
	for _, rk := range []string{
		mqcontracts.RoutingHabitCheckedIn,
		mqcontracts.RoutingHabitCheckInRemoved,
		mqcontracts.RoutingCardReviewed,
		mqcontracts.RoutingExpenseCreated,
		mqcontracts.RoutingPlantWatered,
	} {
		out = append(out, Binding{Queue: "activity." + rk, RoutingKey: rk, Handler: activity.For(rk)})
	}

	out = append(out,
		Binding{Queue: "habit-stats." + mqcontracts.RoutingHabitCheckedIn, RoutingKey: mqcontracts.RoutingHabitCheckedIn, Handler: stats.Handle},
		Binding{Queue: "habit-stats." + mqcontracts.RoutingHabitCheckInRemoved, RoutingKey: mqcontracts.RoutingHabitCheckInRemoved, Handler: stats.Handle},
		Binding{Queue: "budget." + mqcontracts.RoutingExpenseCreated, RoutingKey: mqcontracts.RoutingExpenseCreated, Handler: budget.Handle},
	)
	return out
}
