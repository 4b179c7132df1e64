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

const checkInColumns = `id, habit_id, checked_on, note, created_at`

type CheckInRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewCheckInRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *CheckInRepository {
	return &CheckInRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

func scanCheckIn(row pgx.Row) (*model.CheckIn, error) {
	var c model.CheckIn
	if err := row.Scan(&c.ID, &c.HabitID, &c.CheckedOn, &c.Note, &c.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// Create records a check-in and its habit.checked_in event in one transaction.
// A second check-in for the same day fails with ErrConflict.
func (r *CheckInRepository) Create(ctx context.Context, habit *model.Habit, c *model.CheckIn) error {
	defer observe("insert", "habit_check_ins", time.Now())
	r.logger.Debug("Inserting check-in",
		zap.Int("habit_id", habit.ID),
		zap.Time("checked_on", c.CheckedOn),
	)

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
            INSERT INTO habit_check_ins (habit_id, checked_on, note)
            VALUES ($1, $2, $3)
            RETURNING ` + checkInColumns
		created, err := scanCheckIn(tx.QueryRow(ctx, query, habit.ID, c.CheckedOn, c.Note))
		if err != nil {
			return err
		}
		*c = *created

		payload := mqcontracts.HabitCheckInPayload{
			EventMeta: mqcontracts.NewEventMeta(ctx, habit.UserID, time.Now()),
			HabitID:   habit.ID,
			HabitName: habit.Name,
			CheckedOn: c.CheckedOn.Format(model.DateLayout),
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, "habit", int64(habit.ID), mqcontracts.RoutingHabitCheckedIn, payload)
	})
	if err != nil {
		r.logger.Error("Failed to insert check-in", zap.Int("habit_id", habit.ID), zap.Error(err))
		return fmt.Errorf("check in habit %d: %w", habit.ID, err)
	}

	r.logger.Info("Check-in recorded",
		zap.Int("id", c.ID),
		zap.Int("habit_id", habit.ID),
	)
	return nil
}

// Delete removes the check-in for day and emits habit.check_in_removed.
func (r *CheckInRepository) Delete(ctx context.Context, habit *model.Habit, day time.Time) error {
	defer observe("delete", "habit_check_ins", time.Now())

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM habit_check_ins WHERE habit_id = $1 AND checked_on = $2`, habit.ID, day)
		if err != nil {
			return err
		}
		if err := affected(tag); err != nil {
			return err
		}

		payload := mqcontracts.HabitCheckInPayload{
			EventMeta: mqcontracts.NewEventMeta(ctx, habit.UserID, time.Now()),
			HabitID:   habit.ID,
			HabitName: habit.Name,
			CheckedOn: day.Format(model.DateLayout),
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, "habit", int64(habit.ID), mqcontracts.RoutingHabitCheckInRemoved, payload)
	})
	if err != nil {
		r.logger.Error("Failed to delete check-in", zap.Int("habit_id", habit.ID), zap.Error(err))
		return fmt.Errorf("undo check-in for habit %d: %w", habit.ID, err)
	}
	r.logger.Info("Check-in removed", zap.Int("habit_id", habit.ID), zap.Time("checked_on", day))
	return nil
}

// ListByHabit returns check-ins newest first, optionally bounded by inclusive days.
func (r *CheckInRepository) ListByHabit(ctx context.Context, habitID int, from, to *time.Time) ([]model.CheckIn, error) {
	defer observe("select", "habit_check_ins", time.Now())
	query := `
        SELECT ` + checkInColumns + `
        FROM habit_check_ins
        WHERE habit_id = $1
          AND ($2::date IS NULL OR checked_on >= $2)
          AND ($3::date IS NULL OR checked_on <= $3)
        ORDER BY checked_on DESC
    `
	rows, err := r.db.Query(ctx, query, habitID, from, to)
	if err != nil {
		r.logger.Error("Failed to list check-ins", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.CheckIn{}
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DaysByHabits loads every check-in day for the given habits in one query.
func (r *CheckInRepository) DaysByHabits(ctx context.Context, habitIDs []int) (map[int][]time.Time, error) {
	defer observe("select", "habit_check_ins", time.Now())
	out := make(map[int][]time.Time, len(habitIDs))
	if len(habitIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT habit_id, checked_on FROM habit_check_ins WHERE habit_id = ANY($1) ORDER BY checked_on DESC`,
		habitIDs,
	)
	if err != nil {
		r.logger.Error("Failed to load check-in days", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int
			day time.Time
		)
		if err := rows.Scan(&id, &day); err != nil {
			return nil, err
		}
		out[id] = append(out[id], day)
	}
	return out, rows.Err()
}

func (r *CheckInRepository) Days(ctx context.Context, habitID int) ([]time.Time, error) {
	m, err := r.DaysByHabits(ctx, []int{habitID})
	if err != nil {
		return nil, err
	}
	return m[habitID], nil
}
