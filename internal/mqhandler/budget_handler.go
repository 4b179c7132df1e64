package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "sampleapps/contracts/mq"
	"sampleapps/internal/model"
	"sampleapps/internal/repository"
	"sampleapps/internal/service/expense"
	"sampleapps/pkg/logger"
	"sampleapps/pkg/metrics"
)

const KindOverBudget = "over_budget"

type CategoryTotaler interface {
	CategoryTotals(ctx context.Context, userID int, month string) ([]model.CategorySpend, error)
}

type BudgetFinder interface {
	Find(ctx context.Context, userID int, category, month string) (*model.Budget, error)
}

// BudgetHandler checks the month's total after every expense.created.
type BudgetHandler struct {
	expenses CategoryTotaler
	budgets  BudgetFinder
	activity ActivityWriter
	deduper  Deduper
	logger   *zap.Logger
}

func NewBudgetHandler(expenses CategoryTotaler, budgets BudgetFinder, activity ActivityWriter, deduper Deduper, logger *zap.Logger) *BudgetHandler {
	return &BudgetHandler{
		expenses: expenses,
		budgets:  budgets,
		activity: activity,
		deduper:  deduper,
		logger:   logger,
	}
}

func (h *BudgetHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p mqcontracts.ExpenseCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal ExpenseCreatedPayload", zap.Error(err))
		return err
	}
	log = log.With(
		zap.Int("user_id", p.UserID),
		zap.String("category", p.Category),
		zap.String("month", p.Month),
	)

	budget, err := h.budgets.Find(ctx, p.UserID, p.Category, p.Month)
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug("No budget for category")
		return nil
	}
	if err != nil {
		log.Error("Failed to load budget", zap.Error(err))
		return err
	}

	totals, err := h.expenses.CategoryTotals(ctx, p.UserID, p.Month)
	if err != nil {
		log.Error("Failed to load category totals", zap.Error(err))
		return err
	}
	var spent int64
	for _, t := range totals {
		if t.Category == p.Category {
			spent = t.SpentCents
			break
		}
	}

	if !expense.OverBudget(spent, budget.LimitCents) {
		return nil
	}

	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, "budget", p.EventID) {
		log.Info("Duplicate expense event skipped", zap.String("event_id", p.EventID))
		return nil
	}

	a := &model.Activity{
		UserID: p.UserID,
		Kind:   KindOverBudget,
		Message: fmt.Sprintf("%s is over budget for %s: spent %s of %s",
			p.Category, p.Month, formatCents(spent), formatCents(budget.LimitCents)),
		EventID: p.EventID,
	}
	if err := h.activity.Insert(ctx, a); err != nil {
		if h.deduper != nil {
			h.deduper.Release(ctx, "budget", p.EventID)
		}
		log.Error("Failed to record over-budget activity", zap.Error(err))
		return err
	}

	metrics.IncrementDomainAction("budget_exceeded")
	log.Warn("Budget exceeded",
		zap.Int64("spent_cents", spent),
		zap.Int64("limit_cents", budget.LimitCents),
	)
	return nil
}
