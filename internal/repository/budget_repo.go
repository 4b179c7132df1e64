package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sampleapps/internal/model"
)

const budgetColumns = `id, user_id, category, month, limit_cents`

type BudgetRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBudgetRepository(db *pgxpool.Pool, logger *zap.Logger) *BudgetRepository {
	return &BudgetRepository{db: db, logger: logger}
}

func scanBudget(row pgx.Row) (*model.Budget, error) {
	var b model.Budget
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Month, &b.LimitCents); err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

// Upsert sets the limit for (user, category, month), creating the row if needed.
func (r *BudgetRepository) Upsert(ctx context.Context, b *model.Budget) error {
	defer observe("upsert", "budgets", time.Now())
	r.logger.Debug("Upserting budget",
		zap.Int("user_id", b.UserID),
		zap.String("category", b.Category),
		zap.String("month", b.Month),
	)

	saved, err := scanBudget(r.db.QueryRow(ctx, `
        INSERT INTO budgets (user_id, category, month, limit_cents)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, category, month)
        DO UPDATE SET limit_cents = EXCLUDED.limit_cents
        RETURNING `+budgetColumns,
		b.UserID, b.Category, b.Month, b.LimitCents,
	))
	if err != nil {
		r.logger.Error("Failed to upsert budget", zap.Error(err))
		return fmt.Errorf("upsert budget: %w", err)
	}
	*b = *saved
	return nil
}

// List returns budgets for month, or every budget when month is empty.
func (r *BudgetRepository) List(ctx context.Context, userID int, month string) ([]model.Budget, error) {
	defer observe("select", "budgets", time.Now())
	rows, err := r.db.Query(ctx, `
        SELECT `+budgetColumns+`
        FROM budgets
        WHERE user_id = $1 AND ($2::text = '' OR month = $2)
        ORDER BY month DESC, category
    `, userID, month)
	if err != nil {
		r.logger.Error("Failed to list budgets", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *BudgetRepository) Find(ctx context.Context, userID int, category, month string) (*model.Budget, error) {
	defer observe("select", "budgets", time.Now())
	b, err := scanBudget(r.db.QueryRow(ctx, `
        SELECT `+budgetColumns+`
        FROM budgets
        WHERE user_id = $1 AND category = $2 AND month = $3
    `, userID, category, month))
	if err != nil {
		return nil, fmt.Errorf("find budget %s/%s: %w", category, month, err)
	}
	return b, nil
}

func (r *BudgetRepository) Delete(ctx context.Context, userID, id int) error {
	defer observe("delete", "budgets", time.Now())
	tag, err := r.db.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}
