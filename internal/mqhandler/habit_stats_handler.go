package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	mqcontracts "sampleapps/contracts/mq"
	"sampleapps/pkg/logger"
)

type StatsInvalidator interface {
	Invalidate(ctx context.Context, habitID int) error
}

// HabitStatsHandler 打卡变化后删除该 habit 的统计缓存
type HabitStatsHandler struct {
	cache  StatsInvalidator
	logger *zap.Logger
}

func NewHabitStatsHandler(cache StatsInvalidator, logger *zap.Logger) *HabitStatsHandler {
	return &HabitStatsHandler{cache: cache, logger: logger}
}

// Handle is idempotent, so no dedup.
func (h *HabitStatsHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p mqcontracts.HabitCheckInPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal HabitCheckInPayload", zap.Error(err))
		return err
	}

	if err := h.cache.Invalidate(ctx, p.HabitID); err != nil {
		log.Error("Failed to invalidate habit stats",
			zap.Int("habit_id", p.HabitID),
			zap.Error(err),
		)
		return err
	}

	log.Info("Habit stats invalidated",
		zap.Int("habit_id", p.HabitID),
		zap.String("checked_on", p.CheckedOn),
	)
	return nil
}
