package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sampleapps/internal/model"
)

type ActivityRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewActivityRepository(db *pgxpool.Pool, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

func (r *ActivityRepository) Insert(ctx context.Context, a *model.Activity) error {
	defer observe("insert", "activity_log", time.Now())
	err := r.db.QueryRow(ctx, `
        INSERT INTO activity_log (user_id, kind, message, event_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, a.UserID, a.Kind, a.Message, a.EventID).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert activity", zap.String("kind", a.Kind), zap.Error(err))
		return err
	}
	return nil
}

// ListByUser returns the newest entries first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.Activity, error) {
	defer observe("select", "activity_log", time.Now())
	rows, err := r.db.Query(ctx, `
        SELECT id, user_id, kind, message, event_id, created_at
        FROM activity_log
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		r.logger.Error("Failed to list activity", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Kind, &a.Message, &a.EventID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
