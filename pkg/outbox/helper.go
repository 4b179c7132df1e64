package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// NewEvent builds a pending event for one aggregate.
func NewEvent(aggregateType string, aggregateID int64, routingKey string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", routingKey, err)
	}
	return &Event{
		AggregateType: aggregateType,
		AggregateID:   &aggregateID,
		RoutingKey:    routingKey,
		Payload:       raw,
		Status:        StatusPending,
	}, nil
}

// InsertEventInTx 在业务事务里写 outbox，事务提交后由 dispatcher 发布
func InsertEventInTx(ctx context.Context, tx pgx.Tx, repo *Repository, aggregateType string, aggregateID int64, routingKey string, payload any) error {
	event, err := NewEvent(aggregateType, aggregateID, routingKey, payload)
	if err != nil {
		return err
	}
	return repo.InsertEvent(ctx, tx, event)
}
