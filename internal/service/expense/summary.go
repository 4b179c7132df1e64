// Package expense aggregates expenses against monthly budgets.
package expense

import (
	"slices"
	"strings"

	"sampleapps/internal/model"
)

// BuildSummary joins per-category spending with the month's budgets.
// Categories with spending but no budget get a zero limit; budgets without spending are kept.
func BuildSummary(month string, spends []model.CategorySpend, budgets []model.Budget) model.MonthlySummary {
	byCategory := make(map[string]*model.CategorySummary)
	get := func(category string) *model.CategorySummary {
		if c, ok := byCategory[category]; ok {
			return c
		}
		c := &model.CategorySummary{Category: category}
		byCategory[category] = c
		return c
	}

	for _, s := range spends {
		get(s.Category).SpentCents += s.SpentCents
	}
	for _, b := range budgets {
		if b.Month != "" && b.Month != month {
			continue
		}
		get(b.Category).LimitCents += b.LimitCents
	}

	summary := model.MonthlySummary{Month: month, Categories: make([]model.CategorySummary, 0, len(byCategory))}
	for _, c := range byCategory {
		c.RemainingCents = c.LimitCents - c.SpentCents
		// 没有预算的分类不算超支
		c.OverBudget = OverBudget(c.SpentCents, c.LimitCents)
		summary.SpentCents += c.SpentCents
		summary.LimitCents += c.LimitCents
		summary.Categories = append(summary.Categories, *c)
	}
	slices.SortFunc(summary.Categories, func(a, b model.CategorySummary) int {
		return strings.Compare(a.Category, b.Category)
	})
	return summary
}

// OverBudget reports whether spent exceeds a positive limit.
func OverBudget(spentCents, limitCents int64) bool {
	return limitCents > 0 && spentCents > limitCents
}
