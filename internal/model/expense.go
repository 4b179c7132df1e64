package model

import "time"

type Expense struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	SpentOn     time.Time `json:"spent_on"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ExpensePatch struct {
	AmountCents *int64  `json:"amount_cents" binding:"omitnil,gt=0"`
	Category    *string `json:"category" binding:"omitnil,notblank,max=50"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	SpentOn     *string `json:"spent_on" binding:"omitnil,datetime=2006-01-02"`
}

type ExpenseFilter struct {
	Month    string
	Category string
}

type Budget struct {
	ID         int    `json:"id"`
	UserID     int    `json:"user_id"`
	Category   string `json:"category"`
	Month      string `json:"month"`
	LimitCents int64  `json:"limit_cents"`
}

// CategorySpend is one row of an aggregate over expenses.
type CategorySpend struct {
	Category   string `json:"category"`
	SpentCents int64  `json:"spent_cents"`
}

type CategorySummary struct {
	Category       string `json:"category"`
	SpentCents     int64  `json:"spent_cents"`
	LimitCents     int64  `json:"limit_cents"`
	RemainingCents int64  `json:"remaining_cents"`
	OverBudget     bool   `json:"over_budget"`
}

type MonthlySummary struct {
	Month      string            `json:"month"`
	SpentCents int64             `json:"spent_cents"`
	LimitCents int64             `json:"limit_cents"`
	Categories []CategorySummary `json:"categories"`
}
