package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sampleapps/internal/model"
	"sampleapps/internal/repository"
)

var fixedNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

// newEngine authenticates every request as the user in the X-Test-User header (default 1).
func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		uid := 1
		if c.GetHeader("X-Test-User") == "2" {
			uid = 2
		}
		c.Set(ContextUserID, uid)
		c.Next()
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, user ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(user) > 0 {
		req.Header.Set("X-Test-User", user[0])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func nopLogger() *zap.Logger { return zap.NewNop() }

// ---- habits ----

type memHabits struct {
	mu     sync.Mutex
	rows   map[int]model.Habit
	nextID int
}

func newMemHabits() *memHabits { return &memHabits{rows: map[int]model.Habit{}} }

func (m *memHabits) Create(_ context.Context, h *model.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	h.ID = m.nextID
	h.CreatedAt = fixedNow
	h.UpdatedAt = fixedNow
	m.rows[h.ID] = *h
	return nil
}

func (m *memHabits) ListByUser(_ context.Context, userID int) ([]model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Habit{}
	for id := m.nextID; id > 0; id-- {
		if h, ok := m.rows[id]; ok && h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHabits) Get(_ context.Context, userID, id int) (*model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.rows[id]
	if !ok || h.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &h, nil
}

func (m *memHabits) Update(ctx context.Context, userID, id int, p model.HabitPatch) (*model.Habit, error) {
	h, err := m.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.TargetPerWeek != nil {
		h.TargetPerWeek = *p.TargetPerWeek
	}
	if p.IsActive != nil {
		h.IsActive = *p.IsActive
	}
	m.mu.Lock()
	m.rows[id] = *h
	m.mu.Unlock()
	return h, nil
}

func (m *memHabits) Delete(ctx context.Context, userID, id int) error {
	if _, err := m.Get(ctx, userID, id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.rows, id)
	m.mu.Unlock()
	return nil
}

type memCheckIns struct {
	mu     sync.Mutex
	rows   []model.CheckIn
	nextID int
}

func (m *memCheckIns) Create(_ context.Context, h *model.Habit, c *model.CheckIn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.HabitID == h.ID && r.CheckedOn.Equal(c.CheckedOn) {
			return repository.ErrConflict
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.HabitID = h.ID
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memCheckIns) Delete(_ context.Context, h *model.Habit, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.HabitID == h.ID && r.CheckedOn.Equal(day) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memCheckIns) ListByHabit(_ context.Context, habitID int, from, to *time.Time) ([]model.CheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.CheckIn{}
	for _, r := range m.rows {
		if r.HabitID != habitID {
			continue
		}
		if from != nil && r.CheckedOn.Before(*from) {
			continue
		}
		if to != nil && r.CheckedOn.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memCheckIns) DaysByHabits(_ context.Context, ids []int) (map[int][]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int][]time.Time{}
	for _, r := range m.rows {
		out[r.HabitID] = append(out[r.HabitID], r.CheckedOn)
	}
	return out, nil
}

func (m *memCheckIns) Days(ctx context.Context, habitID int) ([]time.Time, error) {
	all, _ := m.DaysByHabits(ctx, []int{habitID})
	return all[habitID], nil
}

type memStatsCache struct {
	data map[int]model.HabitStats
	hits int
}

func (m *memStatsCache) Get(_ context.Context, habitID int, _ time.Time) (*model.HabitStats, error) {
	if s, ok := m.data[habitID]; ok {
		m.hits++
		return &s, nil
	}
	return nil, nil
}

func (m *memStatsCache) Set(_ context.Context, s model.HabitStats, _ time.Time) {
	if m.data == nil {
		m.data = map[int]model.HabitStats{}
	}
	m.data[s.HabitID] = s
}
