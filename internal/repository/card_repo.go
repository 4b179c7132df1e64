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

const cardColumns = `id, user_id, character, meaning, onyomi, kunyomi, jlpt_level,
       ease_factor, interval_days, repetitions, next_review_at, created_at, updated_at`

type CardRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewCardRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *CardRepository {
	return &CardRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Character,
		&c.Meaning,
		&c.Onyomi,
		&c.Kunyomi,
		&c.JLPTLevel,
		&c.EaseFactor,
		&c.IntervalDays,
		&c.Repetitions,
		&c.NextReviewAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *CardRepository) queryCards(ctx context.Context, query string, args ...any) ([]model.Card, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query cards", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	cards := []model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			r.logger.Error("Failed to scan card", zap.Error(err))
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func (r *CardRepository) Create(ctx context.Context, c *model.Card) error {
	defer observe("insert", "kanji_cards", time.Now())
	r.logger.Debug("Inserting card",
		zap.Int("user_id", c.UserID),
		zap.String("character", c.Character),
	)

	query := `
        INSERT INTO kanji_cards (user_id, character, meaning, onyomi, kunyomi, jlpt_level,
                                 ease_factor, interval_days, repetitions, next_review_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + cardColumns
	created, err := scanCard(r.db.QueryRow(ctx, query,
		c.UserID,
		c.Character,
		c.Meaning,
		c.Onyomi,
		c.Kunyomi,
		c.JLPTLevel,
		c.EaseFactor,
		c.IntervalDays,
		c.Repetitions,
		c.NextReviewAt,
	))
	if err != nil {
		r.logger.Error("Failed to insert card", zap.Error(err))
		return fmt.Errorf("insert card: %w", err)
	}
	*c = *created

	r.logger.Info("Card inserted successfully", zap.Int("id", c.ID))
	return nil
}

// List returns the user's cards, optionally filtered by JLPT level.
func (r *CardRepository) List(ctx context.Context, userID int, level *int) ([]model.Card, error) {
	defer observe("select", "kanji_cards", time.Now())
	query := `
        SELECT ` + cardColumns + `
        FROM kanji_cards
        WHERE user_id = $1 AND ($2::int IS NULL OR jlpt_level = $2)
        ORDER BY created_at DESC, id DESC
    `
	return r.queryCards(ctx, query, userID, level)
}

// ListDue returns cards whose next review is at or before now, oldest first.
func (r *CardRepository) ListDue(ctx context.Context, userID int, now time.Time, limit int) ([]model.Card, error) {
	defer observe("select", "kanji_cards", time.Now())
	query := `
        SELECT ` + cardColumns + `
        FROM kanji_cards
        WHERE user_id = $1 AND next_review_at <= $2
        ORDER BY next_review_at ASC, id ASC
        LIMIT $3
    `
	return r.queryCards(ctx, query, userID, now, limit)
}

func (r *CardRepository) Get(ctx context.Context, userID, id int) (*model.Card, error) {
	defer observe("select", "kanji_cards", time.Now())
	c, err := scanCard(r.db.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM kanji_cards WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", id, err)
	}
	return c, nil
}

func cardUpdate(p model.CardPatch) *updateBuilder {
	b := &updateBuilder{}
	setIfPresent(b, "character", p.Character)
	setIfPresent(b, "meaning", p.Meaning)
	setIfPresent(b, "onyomi", p.Onyomi)
	setIfPresent(b, "kunyomi", p.Kunyomi)
	setIfPresent(b, "jlpt_level", p.JLPTLevel)
	return b
}

// Update changes content fields only; scheduling state moves through ApplyReview.
func (r *CardRepository) Update(ctx context.Context, userID, id int, p model.CardPatch) (*model.Card, error) {
	b := cardUpdate(p)
	if b.empty() {
		return r.Get(ctx, userID, id)
	}
	defer observe("update", "kanji_cards", time.Now())

	query, args := b.build("kanji_cards", id, userID, cardColumns)
	c, err := scanCard(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		r.logger.Error("Failed to update card", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("update card %d: %w", id, err)
	}
	return c, nil
}

func (r *CardRepository) Delete(ctx context.Context, userID, id int) error {
	defer observe("delete", "kanji_cards", time.Now())
	tag, err := r.db.Exec(ctx, `DELETE FROM kanji_cards WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error("Failed to delete card", zap.Int("id", id), zap.Error(err))
		return err
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("delete card %d: %w", id, err)
	}
	return nil
}

// ApplyReview persists the card's new schedule, appends rev and emits card.reviewed,
// all in one transaction. card must already carry the post-review state.
func (r *CardRepository) ApplyReview(ctx context.Context, card *model.Card, rev *model.Review) error {
	defer observe("update", "kanji_cards", time.Now())
	r.logger.Debug("Applying review",
		zap.Int("card_id", card.ID),
		zap.Int("quality", rev.Quality),
	)

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE kanji_cards
            SET ease_factor = $1, interval_days = $2, repetitions = $3, next_review_at = $4, updated_at = NOW()
            WHERE id = $5 AND user_id = $6
        `, card.EaseFactor, card.IntervalDays, card.Repetitions, card.NextReviewAt, card.ID, card.UserID)
		if err != nil {
			return err
		}
		if err := affected(tag); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
            INSERT INTO kanji_reviews (card_id, quality, interval_days, ease_factor, reviewed_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id
        `, card.ID, rev.Quality, rev.IntervalDays, rev.EaseFactor, rev.ReviewedAt).Scan(&rev.ID)
		if err != nil {
			return err
		}
		rev.CardID = card.ID

		payload := mqcontracts.CardReviewedPayload{
			EventMeta:    mqcontracts.NewEventMeta(ctx, card.UserID, rev.ReviewedAt),
			CardID:       card.ID,
			Character:    card.Character,
			Quality:      rev.Quality,
			IntervalDays: rev.IntervalDays,
			EaseFactor:   rev.EaseFactor,
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, "kanji_card", int64(card.ID), mqcontracts.RoutingCardReviewed, payload)
	})
	if err != nil {
		r.logger.Error("Failed to apply review", zap.Int("card_id", card.ID), zap.Error(err))
		return fmt.Errorf("review card %d: %w", card.ID, err)
	}

	r.logger.Info("Card reviewed",
		zap.Int("card_id", card.ID),
		zap.Int("interval_days", card.IntervalDays),
		zap.Float64("ease_factor", card.EaseFactor),
	)
	return nil
}

// Reviews returns the review history of a card, newest first.
func (r *CardRepository) Reviews(ctx context.Context, cardID int) ([]model.Review, error) {
	defer observe("select", "kanji_reviews", time.Now())
	rows, err := r.db.Query(ctx, `
        SELECT id, card_id, quality, interval_days, ease_factor, reviewed_at
        FROM kanji_reviews
        WHERE card_id = $1
        ORDER BY reviewed_at DESC, id DESC
    `, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.CardID, &rv.Quality, &rv.IntervalDays, &rv.EaseFactor, &rv.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
