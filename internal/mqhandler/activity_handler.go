package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "sampleapps/contracts/mq"
	"sampleapps/internal/model"
	"sampleapps/pkg/logger"
	"sampleapps/pkg/metrics"
	"sampleapps/pkg/mq"
	"sampleapps/pkg/util"
)

// ActivityHandler 把领域事件写入 activity_log
type ActivityHandler struct {
	repo    ActivityWriter
	deduper Deduper
	logger  *zap.Logger
}

func NewActivityHandler(repo ActivityWriter, deduper Deduper, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

// For returns the consumer callback bound to one routing key.
func (h *ActivityHandler) For(routingKey string) mq.MessageHandler {
	return func(ctx context.Context, raw json.RawMessage) error {
		return h.handle(ctx, routingKey, raw)
	}
}

func (h *ActivityHandler) handle(ctx context.Context, routingKey string, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger).With(zap.String("routing_key", routingKey))

	meta, message, err := describe(routingKey, raw)
	if err != nil {
		log.Error("Failed to decode event", zap.Error(err))
		return err
	}
	if meta.UserID <= 0 {
		log.Error("Invalid user_id in event", zap.Int("user_id", meta.UserID))
		return fmt.Errorf("%w: invalid user_id %d", util.ErrPermanent, meta.UserID)
	}

	dedupName := "activity:" + routingKey
	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, dedupName, meta.EventID) {
		log.Info("Duplicate event skipped", zap.String("event_id", meta.EventID))
		return nil
	}

	a := &model.Activity{
		UserID:  meta.UserID,
		Kind:    routingKey,
		Message: message,
		EventID: meta.EventID,
	}
	if err := h.repo.Insert(ctx, a); err != nil {
		if h.deduper != nil {
			h.deduper.Release(ctx, dedupName, meta.EventID)
		}
		log.Error("Failed to record activity",
			zap.String("event_id", meta.EventID),
			zap.Int("user_id", meta.UserID),
			zap.Error(err),
		)
		return err
	}

	metrics.IncrementDomainAction("activity_recorded")
	log.Info("Activity recorded",
		zap.Int("activity_id", a.ID),
		zap.Int("user_id", a.UserID),
	)
	return nil
}

// describe decodes the payload for routingKey into its meta and a feed message.
func describe(routingKey string, raw json.RawMessage) (mqcontracts.EventMeta, string, error) {
	switch routingKey {
	case mqcontracts.RoutingHabitCheckedIn, mqcontracts.RoutingHabitCheckInRemoved:
		var p mqcontracts.HabitCheckInPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return p.EventMeta, "", err
		}
		if routingKey == mqcontracts.RoutingHabitCheckedIn {
			return p.EventMeta, fmt.Sprintf("Checked in %q for %s", p.HabitName, p.CheckedOn), nil
		}
		return p.EventMeta, fmt.Sprintf("Removed check-in of %q for %s", p.HabitName, p.CheckedOn), nil

	case mqcontracts.RoutingCardReviewed:
		var p mqcontracts.CardReviewedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return p.EventMeta, "", err
		}
		return p.EventMeta, fmt.Sprintf("Reviewed %s (quality %d), next review in %d days",
			p.Character, p.Quality, p.IntervalDays), nil

	case mqcontracts.RoutingExpenseCreated:
		var p mqcontracts.ExpenseCreatedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return p.EventMeta, "", err
		}
		return p.EventMeta, fmt.Sprintf("Spent %s on %s", formatCents(p.AmountCents), p.Category), nil

	case mqcontracts.RoutingPlantWatered:
		var p mqcontracts.PlantWateredPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return p.EventMeta, "", err
		}
		return p.EventMeta, fmt.Sprintf("Watered %q", p.Name), nil
	}
	return mqcontracts.EventMeta{}, "", fmt.Errorf("%w: unknown routing key %q", util.ErrPermanent, routingKey)
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
