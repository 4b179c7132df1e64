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

const assessmentColumns = `id, user_id, answers, total, score, level, created_at`

type AssessmentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAssessmentRepository(db *pgxpool.Pool, logger *zap.Logger) *AssessmentRepository {
	return &AssessmentRepository{db: db, logger: logger}
}

func scanAssessment(row pgx.Row) (*model.Assessment, error) {
	var a model.Assessment
	if err := row.Scan(&a.ID, &a.UserID, &a.Answers, &a.Total, &a.Score, &a.Level, &a.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	defer observe("insert", "conspiracy_assessments", time.Now())
	r.logger.Debug("Inserting assessment",
		zap.Int("user_id", a.UserID),
		zap.Int("score", a.Score),
	)

	created, err := scanAssessment(r.db.QueryRow(ctx, `
        INSERT INTO conspiracy_assessments (user_id, answers, total, score, level)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+assessmentColumns,
		a.UserID, a.Answers, a.Total, a.Score, a.Level,
	))
	if err != nil {
		r.logger.Error("Failed to insert assessment", zap.Error(err))
		return fmt.Errorf("insert assessment: %w", err)
	}
	*a = *created
	r.logger.Info("Assessment stored", zap.Int("id", a.ID), zap.String("level", a.Level))
	return nil
}

func (r *AssessmentRepository) List(ctx context.Context, userID int) ([]model.Assessment, error) {
	defer observe("select", "conspiracy_assessments", time.Now())
	rows, err := r.db.Query(ctx, `
        SELECT `+assessmentColumns+`
        FROM conspiracy_assessments
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
    `, userID)
	if err != nil {
		r.logger.Error("Failed to list assessments", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AssessmentRepository) Get(ctx context.Context, userID, id int) (*model.Assessment, error) {
	defer observe("select", "conspiracy_assessments", time.Now())
	a, err := scanAssessment(r.db.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM conspiracy_assessments WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("get assessment %d: %w", id, err)
	}
	return a, nil
}

func (r *AssessmentRepository) Delete(ctx context.Context, userID, id int) error {
	defer observe("delete", "conspiracy_assessments", time.Now())
	tag, err := r.db.Exec(ctx, `DELETE FROM conspiracy_assessments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("delete assessment %d: %w", id, err)
	}
	return nil
}
