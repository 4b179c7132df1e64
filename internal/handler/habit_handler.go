package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sampleapps/internal/model"
	"sampleapps/internal/repository"
	"sampleapps/internal/service/habit"
	"sampleapps/pkg/metrics"
)

type HabitStore interface {
	Create(ctx context.Context, h *model.Habit) error
	ListByUser(ctx context.Context, userID int) ([]model.Habit, error)
	Get(ctx context.Context, userID, id int) (*model.Habit, error)
	Update(ctx context.Context, userID, id int, p model.HabitPatch) (*model.Habit, error)
	Delete(ctx context.Context, userID, id int) error
}

type CheckInStore interface {
	Create(ctx context.Context, h *model.Habit, c *model.CheckIn) error
	Delete(ctx context.Context, h *model.Habit, day time.Time) error
	ListByHabit(ctx context.Context, habitID int, from, to *time.Time) ([]model.CheckIn, error)
	DaysByHabits(ctx context.Context, habitIDs []int) (map[int][]time.Time, error)
	Days(ctx context.Context, habitID int) ([]time.Time, error)
}

// StatsCache is satisfied by *cache.StatsCache.
type StatsCache interface {
	Get(ctx context.Context, habitID int, today time.Time) (*model.HabitStats, error)
	Set(ctx context.Context, stats model.HabitStats, today time.Time)
}

type HabitHandler struct {
	habits   HabitStore
	checkIns CheckInStore
	cache    StatsCache
	loc      *time.Location
	now      Clock
	logger   *zap.Logger
}

func NewHabitHandler(habits HabitStore, checkIns CheckInStore, cache StatsCache, loc *time.Location, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{
		habits:   habits,
		checkIns: checkIns,
		cache:    cache,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (h *HabitHandler) today() time.Time {
	return model.Day(h.now(), h.loc)
}

type createHabitRequest struct {
	Name          string `json:"name" binding:"required,notblank,max=100"`
	Description   string `json:"description" binding:"max=500"`
	Color         string `json:"color" binding:"omitempty,hexcolor,len=7"`
	TargetPerWeek *int   `json:"target_per_week" binding:"omitnil,min=1,max=7"`
}

// Create handles POST /habits
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createHabitRequest
	if !bindJSON(c, &req) {
		return
	}

	hb := &model.Habit{
		UserID:        userID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Color:         req.Color,
		TargetPerWeek: 7,
		IsActive:      true,
	}
	if req.TargetPerWeek != nil {
		hb.TargetPerWeek = *req.TargetPerWeek
	}

	if err := h.habits.Create(c.Request.Context(), hb); err != nil {
		respondError(c, h.logger, "create habit", err)
		return
	}
	c.JSON(http.StatusCreated, hb)
}

// List handles GET /habits; every habit carries its stats.
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	habits, err := h.habits.ListByUser(ctx, userID)
	if err != nil {
		respondError(c, h.logger, "list habits", err)
		return
	}

	ids := make([]int, len(habits))
	for i, hb := range habits {
		ids[i] = hb.ID
	}
	days, err := h.checkIns.DaysByHabits(ctx, ids)
	if err != nil {
		respondError(c, h.logger, "list habits", err)
		return
	}

	today := h.today()
	out := make([]model.HabitWithStats, 0, len(habits))
	for _, hb := range habits {
		out = append(out, model.HabitWithStats{
			Habit: hb,
			Stats: habit.Compute(hb.ID, days[hb.ID], today),
		})
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /habits/:id
func (h *HabitHandler) Get(c *gin.Context) {
	hb, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, hb)
}

// Update handles PATCH /habits/:id
func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var patch model.HabitPatch
	if !bindJSON(c, &patch) {
		return
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}

	hb, err := h.habits.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "update habit", err)
		return
	}
	c.JSON(http.StatusOK, hb)
}

// Delete handles DELETE /habits/:id
func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.habits.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "delete habit", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type checkInRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Note string `json:"note" binding:"max=500"`
}

// CheckIn handles POST /habits/:id/check-ins
func (h *HabitHandler) CheckIn(c *gin.Context) {
	hb, ok := h.load(c)
	if !ok {
		return
	}
	var req checkInRequest
	// 空 body 表示今天打卡（含 chunked 的空 body）
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": validationDetails(err),
		})
		return
	}

	today := h.today()
	day := today
	if req.Date != "" {
		parsed, err := model.ParseDay(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	if day.After(today) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date cannot be in the future"})
		return
	}

	ci := &model.CheckIn{HabitID: hb.ID, CheckedOn: day, Note: req.Note}
	if err := h.checkIns.Create(c.Request.Context(), hb, ci); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "already checked in for this day"})
			return
		}
		respondError(c, h.logger, "check in", err)
		return
	}
	metrics.IncrementDomainAction("habit_check_in")
	c.JSON(http.StatusCreated, ci)
}

// UndoCheckIn handles DELETE /habits/:id/check-ins/:date
func (h *HabitHandler) UndoCheckIn(c *gin.Context) {
	hb, ok := h.load(c)
	if !ok {
		return
	}
	day, err := model.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	if err := h.checkIns.Delete(c.Request.Context(), hb, day); err != nil {
		respondError(c, h.logger, "undo check-in", err)
		return
	}
	metrics.IncrementDomainAction("habit_check_in_undo")
	c.Status(http.StatusNoContent)
}

// ListCheckIns handles GET /habits/:id/check-ins?from=&to=
func (h *HabitHandler) ListCheckIns(c *gin.Context) {
	hb, ok := h.load(c)
	if !ok {
		return
	}
	from, ok := optionalDay(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDay(c, "to")
	if !ok {
		return
	}

	list, err := h.checkIns.ListByHabit(c.Request.Context(), hb.ID, from, to)
	if err != nil {
		respondError(c, h.logger, "list check-ins", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Stats handles GET /habits/:id/stats
func (h *HabitHandler) Stats(c *gin.Context) {
	hb, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	today := h.today()

	if cached, _ := h.cache.Get(ctx, hb.ID, today); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	days, err := h.checkIns.Days(ctx, hb.ID)
	if err != nil {
		respondError(c, h.logger, "load stats", err)
		return
	}
	stats := habit.Compute(hb.ID, days, today)
	h.cache.Set(ctx, stats, today)
	c.JSON(http.StatusOK, stats)
}

// load resolves :id to a habit owned by the caller.
func (h *HabitHandler) load(c *gin.Context) (*model.Habit, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	hb, err := h.habits.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "load habit", err)
		return nil, false
	}
	return hb, true
}

func optionalDay(c *gin.Context, name string) (*time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	d, err := model.ParseDay(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be YYYY-MM-DD"})
		return nil, false
	}
	return &d, true
}
