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

const plantColumns = `id, user_id, name, species, location, watering_interval_days,
       last_watered_at, notes, created_at, updated_at`

type PlantRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewPlantRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *PlantRepository {
	return &PlantRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

func scanPlant(row pgx.Row) (*model.Plant, error) {
	var p model.Plant
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Species,
		&p.Location,
		&p.WateringIntervalDays,
		&p.LastWateredAt,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *PlantRepository) Create(ctx context.Context, p *model.Plant) error {
	defer observe("insert", "plants", time.Now())
	r.logger.Debug("Inserting plant",
		zap.Int("user_id", p.UserID),
		zap.String("name", p.Name),
	)

	created, err := scanPlant(r.db.QueryRow(ctx, `
        INSERT INTO plants (user_id, name, species, location, watering_interval_days, last_watered_at, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+plantColumns,
		p.UserID, p.Name, p.Species, p.Location, p.WateringIntervalDays, p.LastWateredAt, p.Notes,
	))
	if err != nil {
		r.logger.Error("Failed to insert plant", zap.Error(err))
		return fmt.Errorf("insert plant: %w", err)
	}
	*p = *created
	r.logger.Info("Plant inserted successfully", zap.Int("id", p.ID))
	return nil
}

func (r *PlantRepository) List(ctx context.Context, userID int) ([]model.Plant, error) {
	defer observe("select", "plants", time.Now())
	rows, err := r.db.Query(ctx, `
        SELECT `+plantColumns+`
        FROM plants
        WHERE user_id = $1
        ORDER BY name, id
    `, userID)
	if err != nil {
		r.logger.Error("Failed to list plants", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.Plant{}
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PlantRepository) Get(ctx context.Context, userID, id int) (*model.Plant, error) {
	defer observe("select", "plants", time.Now())
	p, err := scanPlant(r.db.QueryRow(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("get plant %d: %w", id, err)
	}
	return p, nil
}

func plantUpdate(p model.PlantPatch) *updateBuilder {
	b := &updateBuilder{}
	setIfPresent(b, "name", p.Name)
	setIfPresent(b, "species", p.Species)
	setIfPresent(b, "location", p.Location)
	setIfPresent(b, "watering_interval_days", p.WateringIntervalDays)
	setIfPresent(b, "notes", p.Notes)
	return b
}

func (r *PlantRepository) Update(ctx context.Context, userID, id int, p model.PlantPatch) (*model.Plant, error) {
	b := plantUpdate(p)
	if b.empty() {
		return r.Get(ctx, userID, id)
	}
	defer observe("update", "plants", time.Now())

	query, args := b.build("plants", id, userID, plantColumns)
	plant, err := scanPlant(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		r.logger.Error("Failed to update plant", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("update plant %d: %w", id, err)
	}
	return plant, nil
}

func (r *PlantRepository) Delete(ctx context.Context, userID, id int) error {
	defer observe("delete", "plants", time.Now())
	tag, err := r.db.Exec(ctx, `DELETE FROM plants WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("delete plant %d: %w", id, err)
	}
	return nil
}

// Water sets last_watered_at and emits plant.watered in one transaction.
func (r *PlantRepository) Water(ctx context.Context, userID, id int, at time.Time) (*model.Plant, error) {
	defer observe("update", "plants", time.Now())

	var plant *model.Plant
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		plant, err = scanPlant(tx.QueryRow(ctx, `
            UPDATE plants
            SET last_watered_at = $1, updated_at = NOW()
            WHERE id = $2 AND user_id = $3
            RETURNING `+plantColumns,
			at, id, userID,
		))
		if err != nil {
			return err
		}

		payload := mqcontracts.PlantWateredPayload{
			EventMeta: mqcontracts.NewEventMeta(ctx, userID, at),
			PlantID:   plant.ID,
			Name:      plant.Name,
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, "plant", int64(plant.ID), mqcontracts.RoutingPlantWatered, payload)
	})
	if err != nil {
		r.logger.Error("Failed to water plant", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("water plant %d: %w", id, err)
	}

	r.logger.Info("Plant watered", zap.Int("id", id))
	return plant, nil
}
