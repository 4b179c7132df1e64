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

const habitColumns = `id, user_id, name, description, color, target_per_week, is_active, created_at, updated_at`

type HabitRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitRepository(db *pgxpool.Pool, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{
		db:     db,
		logger: logger,
	}
}

func scanHabit(row pgx.Row) (*model.Habit, error) {
	var h model.Habit
	if err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Description,
		&h.Color,
		&h.TargetPerWeek,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &h, nil
}

func (r *HabitRepository) Create(ctx context.Context, h *model.Habit) error {
	defer observe("insert", "habits", time.Now())
	r.logger.Debug("Inserting habit",
		zap.Int("user_id", h.UserID),
		zap.String("name", h.Name),
	)

	query := `
        INSERT INTO habits (user_id, name, description, color, target_per_week, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + habitColumns
	created, err := scanHabit(r.db.QueryRow(ctx, query,
		h.UserID,
		h.Name,
		h.Description,
		h.Color,
		h.TargetPerWeek,
		h.IsActive,
	))
	if err != nil {
		r.logger.Error("Failed to insert habit", zap.Error(err))
		return fmt.Errorf("insert habit: %w", err)
	}
	*h = *created

	r.logger.Info("Habit inserted successfully",
		zap.Int("id", h.ID),
		zap.Int("user_id", h.UserID),
	)
	return nil
}

// ListByUser returns the user's habits, newest first.
func (r *HabitRepository) ListByUser(ctx context.Context, userID int) ([]model.Habit, error) {
	defer observe("select", "habits", time.Now())
	r.logger.Debug("Listing habits for user", zap.Int("user_id", userID))

	query := `
        SELECT ` + habitColumns + `
        FROM habits
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			r.logger.Error("Failed to scan habit", zap.Error(err))
			return nil, err
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug("Listed habits",
		zap.Int("user_id", userID),
		zap.Int("count", len(habits)),
	)
	return habits, nil
}

func (r *HabitRepository) Get(ctx context.Context, userID, id int) (*model.Habit, error) {
	defer observe("select", "habits", time.Now())
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND user_id = $2`
	h, err := scanHabit(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, fmt.Errorf("get habit %d: %w", id, err)
	}
	return h, nil
}

func habitUpdate(p model.HabitPatch) *updateBuilder {
	b := &updateBuilder{}
	setIfPresent(b, "name", p.Name)
	setIfPresent(b, "description", p.Description)
	setIfPresent(b, "color", p.Color)
	setIfPresent(b, "target_per_week", p.TargetPerWeek)
	setIfPresent(b, "is_active", p.IsActive)
	return b
}

// Update applies the non-nil fields of p. An empty patch returns the stored row unchanged.
func (r *HabitRepository) Update(ctx context.Context, userID, id int, p model.HabitPatch) (*model.Habit, error) {
	b := habitUpdate(p)
	if b.empty() {
		return r.Get(ctx, userID, id)
	}
	defer observe("update", "habits", time.Now())

	query, args := b.build("habits", id, userID, habitColumns)
	h, err := scanHabit(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		r.logger.Error("Failed to update habit", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("update habit %d: %w", id, err)
	}
	r.logger.Info("Habit updated", zap.Int("id", id))
	return h, nil
}

// Delete removes the habit; check-ins go with it via ON DELETE CASCADE.
func (r *HabitRepository) Delete(ctx context.Context, userID, id int) error {
	defer observe("delete", "habits", time.Now())
	tag, err := r.db.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error("Failed to delete habit", zap.Int("id", id), zap.Error(err))
		return err
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("delete habit %d: %w", id, err)
	}
	r.logger.Info("Habit deleted", zap.Int("id", id))
	return nil
}
