package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "sampleapps/contracts/mq"
	"sampleapps/internal/model"
	"sampleapps/pkg/outbox"
)

const expenseColumns = `id, user_id, amount_cents, category, description, spent_on, created_at, updated_at`

type ExpenseRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewExpenseRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var e model.Expense
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.AmountCents,
		&e.Category,
		&e.Description,
		&e.SpentOn,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

// Create inserts the expense and its expense.created event in one transaction.
func (r *ExpenseRepository) Create(ctx context.Context, e *model.Expense) error {
	defer observe("insert", "expenses", time.Now())
	r.logger.Debug("Inserting expense",
		zap.Int("user_id", e.UserID),
		zap.String("category", e.Category),
		zap.Int64("amount_cents", e.AmountCents),
	)

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		created, err := scanExpense(tx.QueryRow(ctx, `
            INSERT INTO expenses (user_id, amount_cents, category, description, spent_on)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING `+expenseColumns,
			e.UserID, e.AmountCents, e.Category, e.Description, e.SpentOn,
		))
		if err != nil {
			return err
		}
		*e = *created

		payload := mqcontracts.ExpenseCreatedPayload{
			EventMeta:   mqcontracts.NewEventMeta(ctx, e.UserID, e.CreatedAt),
			ExpenseID:   e.ID,
			Category:    e.Category,
			AmountCents: e.AmountCents,
			Month:       e.SpentOn.Format(model.MonthLayout),
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, "expense", int64(e.ID), mqcontracts.RoutingExpenseCreated, payload)
	})
	if err != nil {
		r.logger.Error("Failed to insert expense", zap.Error(err))
		return fmt.Errorf("insert expense: %w", err)
	}

	r.logger.Info("Expense inserted successfully",
		zap.Int("id", e.ID),
		zap.Int("user_id", e.UserID),
	)
	return nil
}

// List returns expenses newest first. Empty filter fields match everything.
func (r *ExpenseRepository) List(ctx context.Context, userID int, f model.ExpenseFilter) ([]model.Expense, error) {
	defer observe("select", "expenses", time.Now())

	var from, to *time.Time
	if f.Month != "" {
		start, end, err := model.MonthRange(f.Month)
		if err != nil {
			return nil, fmt.Errorf("invalid month %q: %w", f.Month, err)
		}
		from, to = &start, &end
	}

	rows, err := r.db.Query(ctx, `
        SELECT `+expenseColumns+`
        FROM expenses
        WHERE user_id = $1
          AND ($2::date IS NULL OR spent_on >= $2)
          AND ($3::date IS NULL OR spent_on < $3)
          AND ($4::text = '' OR category = $4)
        ORDER BY spent_on DESC, id DESC
    `, userID, from, to, f.Category)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			r.logger.Error("Failed to scan expense", zap.Error(err))
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *ExpenseRepository) Get(ctx context.Context, userID, id int) (*model.Expense, error) {
	defer observe("select", "expenses", time.Now())
	e, err := scanExpense(r.db.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func expenseUpdate(p model.ExpensePatch) (*updateBuilder, error) {
	b := &updateBuilder{}
	setIfPresent(b, "amount_cents", p.AmountCents)
	setIfPresent(b, "category", p.Category)
	setIfPresent(b, "description", p.Description)
	if p.SpentOn != nil {
		day, err := model.ParseDay(*p.SpentOn)
		if err != nil {
			return nil, err
		}
		b.set("spent_on", day)
	}
	return b, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, userID, id int, p model.ExpensePatch) (*model.Expense, error) {
	b, err := expenseUpdate(p)
	if err != nil {
		return nil, err
	}
	if b.empty() {
		return r.Get(ctx, userID, id)
	}
	defer observe("update", "expenses", time.Now())

	query, args := b.build("expenses", id, userID, expenseColumns)
	e, err := scanExpense(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		r.logger.Error("Failed to update expense", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("update expense %d: %w", id, err)
	}
	return e, nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, userID, id int) error {
	defer observe("delete", "expenses", time.Now())
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error("Failed to delete expense", zap.Int("id", id), zap.Error(err))
		return err
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

// CategoryTotals sums the month's expenses per category.
func (r *ExpenseRepository) CategoryTotals(ctx context.Context, userID int, month string) ([]model.CategorySpend, error) {
	defer observe("select", "expenses", time.Now())
	start, end, err := model.MonthRange(month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}

	rows, err := r.db.Query(ctx, `
        SELECT category, SUM(amount_cents)::bigint
        FROM expenses
        WHERE user_id = $1 AND spent_on >= $2 AND spent_on < $3
        GROUP BY category
        ORDER BY category
    `, userID, start, end)
	if err != nil {
		r.logger.Error("Failed to aggregate expenses", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.CategorySpend{}
	for rows.Next() {
		var s model.CategorySpend
		if err := rows.Scan(&s.Category, &s.SpentCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
