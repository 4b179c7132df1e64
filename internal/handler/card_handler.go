package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sampleapps/internal/model"
	"sampleapps/internal/service/flashcard"
	"sampleapps/pkg/metrics"
)

type CardStore interface {
	Create(ctx context.Context, c *model.Card) error
	List(ctx context.Context, userID int, level *int) ([]model.Card, error)
	ListDue(ctx context.Context, userID int, now time.Time, limit int) ([]model.Card, error)
	Get(ctx context.Context, userID, id int) (*model.Card, error)
	Update(ctx context.Context, userID, id int, p model.CardPatch) (*model.Card, error)
	Delete(ctx context.Context, userID, id int) error
	ApplyReview(ctx context.Context, card *model.Card, rev *model.Review) error
	Reviews(ctx context.Context, cardID int) ([]model.Review, error)
}

type CardHandler struct {
	cards  CardStore
	now    Clock
	logger *zap.Logger
}

func NewCardHandler(cards CardStore, logger *zap.Logger) *CardHandler {
	return &CardHandler{cards: cards, now: time.Now, logger: logger}
}

type createCardRequest struct {
	Character string `json:"character" binding:"required,notblank,max=8"`
	Meaning   string `json:"meaning" binding:"required,notblank,max=200"`
	Onyomi    string `json:"onyomi" binding:"max=100"`
	Kunyomi   string `json:"kunyomi" binding:"max=100"`
	JLPTLevel *int   `json:"jlpt_level" binding:"omitnil,min=1,max=5"`
}

// Create handles POST /cards
func (h *CardHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createCardRequest
	if !bindJSON(c, &req) {
		return
	}

	initial := flashcard.Initial()
	card := &model.Card{
		UserID:       userID,
		Character:    req.Character,
		Meaning:      req.Meaning,
		Onyomi:       req.Onyomi,
		Kunyomi:      req.Kunyomi,
		JLPTLevel:    req.JLPTLevel,
		EaseFactor:   initial.EaseFactor,
		IntervalDays: initial.IntervalDays,
		Repetitions:  initial.Repetitions,
		NextReviewAt: h.now().UTC(),
	}
	if err := h.cards.Create(c.Request.Context(), card); err != nil {
		respondError(c, h.logger, "create card", err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

// List handles GET /cards?level=N
func (h *CardHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var level *int
	if s := c.Query("level"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l < 1 || l > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "level must be between 1 and 5"})
			return
		}
		level = &l
	}

	cards, err := h.cards.List(c.Request.Context(), userID, level)
	if err != nil {
		respondError(c, h.logger, "list cards", err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// Due handles GET /cards/due?limit=N
func (h *CardHandler) Due(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 20, 100)

	cards, err := h.cards.ListDue(c.Request.Context(), userID, h.now(), limit)
	if err != nil {
		respondError(c, h.logger, "list due cards", err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// Get handles GET /cards/:id
func (h *CardHandler) Get(c *gin.Context) {
	card, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, card)
}

// Update handles PATCH /cards/:id
func (h *CardHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var patch model.CardPatch
	if !bindJSON(c, &patch) {
		return
	}

	card, err := h.cards.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "update card", err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// Delete handles DELETE /cards/:id
func (h *CardHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.cards.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "delete card", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reviewRequest struct {
	Quality *int `json:"quality" binding:"required,min=0,max=5"`
}

// Review handles POST /cards/:id/review
func (h *CardHandler) Review(c *gin.Context) {
	card, ok := h.load(c)
	if !ok {
		return
	}
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}

	next, err := flashcard.Next(flashcard.Schedule{
		EaseFactor:   card.EaseFactor,
		IntervalDays: card.IntervalDays,
		Repetitions:  card.Repetitions,
	}, *req.Quality)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewedAt := h.now().UTC()
	card.EaseFactor = next.EaseFactor
	card.IntervalDays = next.IntervalDays
	card.Repetitions = next.Repetitions
	card.NextReviewAt = flashcard.DueAt(reviewedAt, next)

	rev := &model.Review{
		CardID:       card.ID,
		Quality:      *req.Quality,
		IntervalDays: next.IntervalDays,
		EaseFactor:   next.EaseFactor,
		ReviewedAt:   reviewedAt,
	}
	if err := h.cards.ApplyReview(c.Request.Context(), card, rev); err != nil {
		respondError(c, h.logger, "review card", err)
		return
	}
	metrics.IncrementDomainAction("card_review")

	c.JSON(http.StatusOK, gin.H{
		"card":   card,
		"review": rev,
	})
}

// Reviews handles GET /cards/:id/reviews
func (h *CardHandler) Reviews(c *gin.Context) {
	card, ok := h.load(c)
	if !ok {
		return
	}
	list, err := h.cards.Reviews(c.Request.Context(), card.ID)
	if err != nil {
		respondError(c, h.logger, "list reviews", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CardHandler) load(c *gin.Context) (*model.Card, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	card, err := h.cards.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "load card", err)
		return nil, false
	}
	return card, true
}
