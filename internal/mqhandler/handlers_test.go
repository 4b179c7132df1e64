package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "sampleapps/contracts/mq"
	"sampleapps/internal/model"
	"sampleapps/internal/repository"
	"sampleapps/pkg/util"
)

type memActivity struct {
	rows []model.Activity
	err  error
}

func (m *memActivity) Insert(_ context.Context, a *model.Activity) error {
	if m.err != nil {
		return m.err
	}
	a.ID = len(m.rows) + 1
	m.rows = append(m.rows, *a)
	return nil
}

type memDeduper struct{ seen map[string]bool }

func newMemDeduper() *memDeduper { return &memDeduper{seen: map[string]bool{}} }

func (d *memDeduper) AcquireOnce(_ context.Context, handler, eventID string) bool {
	k := handler + "/" + eventID
	if d.seen[k] {
		return false
	}
	d.seen[k] = true
	return true
}

func (d *memDeduper) Release(_ context.Context, handler, eventID string) {
	delete(d.seen, handler+"/"+eventID)
}

func meta(id string) mqcontracts.EventMeta {
	return mqcontracts.EventMeta{EventID: id, UserID: 7, OccurredAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestActivityHandlerMessages(t *testing.T) {
	cases := []struct {
		key     string
		payload any
		want    string
	}{
		{mqcontracts.RoutingHabitCheckedIn, mqcontracts.HabitCheckInPayload{EventMeta: meta("e1"), HabitID: 1, HabitName: "Read", CheckedOn: "2026-10-18"}, `Checked in "Read" for 2026-10-18`},
		{mqcontracts.RoutingHabitCheckInRemoved, mqcontracts.HabitCheckInPayload{EventMeta: meta("e2"), HabitID: 1, HabitName: "Read", CheckedOn: "2026-10-17"}, `Removed check-in of "Read" for 2026-10-17`},
		{mqcontracts.RoutingCardReviewed, mqcontracts.CardReviewedPayload{EventMeta: meta("e3"), CardID: 2, Character: "水", Quality: 4, IntervalDays: 6}, "Reviewed 水 (quality 4), next review in 6 days"},
		{mqcontracts.RoutingExpenseCreated, mqcontracts.ExpenseCreatedPayload{EventMeta: meta("e4"), ExpenseID: 3, Category: "food", AmountCents: 1205, Month: "2026-10"}, "Spent 12.05 on food"},
		{mqcontracts.RoutingPlantWatered, mqcontracts.PlantWateredPayload{EventMeta: meta("e5"), PlantID: 4, Name: "Fern"}, `Watered "Fern"`},
	}

	repo := &memActivity{}
	h := NewActivityHandler(repo, newMemDeduper(), zap.NewNop())
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			require.NoError(t, h.For(tc.key)(context.Background(), mustJSON(t, tc.payload)))
			last := repo.rows[len(repo.rows)-1]
			assert.Equal(t, tc.want, last.Message)
			assert.Equal(t, tc.key, last.Kind)
			assert.Equal(t, 7, last.UserID)
		})
	}
	assert.Len(t, repo.rows, len(cases))
}

func TestActivityHandlerDedup(t *testing.T) {
	repo := &memActivity{}
	d := newMemDeduper()
	h := NewActivityHandler(repo, d, zap.NewNop())
	raw := mustJSON(t, mqcontracts.PlantWateredPayload{EventMeta: meta("dup"), PlantID: 1, Name: "Fern"})

	require.NoError(t, h.For(mqcontracts.RoutingPlantWatered)(context.Background(), raw))
	require.NoError(t, h.For(mqcontracts.RoutingPlantWatered)(context.Background(), raw))
	assert.Len(t, repo.rows, 1)
}

func TestActivityHandlerReleasesOnFailure(t *testing.T) {
	repo := &memActivity{err: errors.New("db down")}
	d := newMemDeduper()
	h := NewActivityHandler(repo, d, zap.NewNop())
	raw := mustJSON(t, mqcontracts.PlantWateredPayload{EventMeta: meta("retry"), PlantID: 1, Name: "Fern"})

	require.Error(t, h.For(mqcontracts.RoutingPlantWatered)(context.Background(), raw))
	assert.Empty(t, d.seen)

	repo.err = nil
	require.NoError(t, h.For(mqcontracts.RoutingPlantWatered)(context.Background(), raw))
	assert.Len(t, repo.rows, 1)
}

func TestActivityHandlerPermanentErrors(t *testing.T) {
	h := NewActivityHandler(&memActivity{}, nil, zap.NewNop())

	err := h.For("nope.unknown")(context.Background(), json.RawMessage(`{}`))
	retryable, _ := util.IsRetryableError(err)
	assert.False(t, retryable)

	err = h.For(mqcontracts.RoutingPlantWatered)(context.Background(), json.RawMessage(`{"plant_id":1}`))
	assert.ErrorIs(t, err, util.ErrPermanent)

	err = h.For(mqcontracts.RoutingPlantWatered)(context.Background(), json.RawMessage(`{not json`))
	retryable, kind := util.IsRetryableError(err)
	assert.False(t, retryable)
	assert.Equal(t, "json_decode_error", kind)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.05", formatCents(5))
	assert.Equal(t, "100.00", formatCents(10000))
	assert.Equal(t, "-1.50", formatCents(-150))
}

type recordingInvalidator struct {
	ids []int
	err error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, habitID int) error {
	r.ids = append(r.ids, habitID)
	return r.err
}

func TestHabitStatsHandler(t *testing.T) {
	inv := &recordingInvalidator{}
	h := NewHabitStatsHandler(inv, zap.NewNop())
	raw := mustJSON(t, mqcontracts.HabitCheckInPayload{EventMeta: meta("x"), HabitID: 42, CheckedOn: "2026-10-18"})

	require.NoError(t, h.Handle(context.Background(), raw))
	require.NoError(t, h.Handle(context.Background(), raw))
	assert.Equal(t, []int{42, 42}, inv.ids)

	inv.err = errors.New("redis down")
	assert.Error(t, h.Handle(context.Background(), raw))
}

type fakeTotals []model.CategorySpend

func (f fakeTotals) CategoryTotals(context.Context, int, string) ([]model.CategorySpend, error) {
	return f, nil
}

type fakeBudgets map[string]int64

func (f fakeBudgets) Find(_ context.Context, userID int, category, month string) (*model.Budget, error) {
	limit, ok := f[category+"@"+month]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.Budget{ID: 1, UserID: userID, Category: category, Month: month, LimitCents: limit}, nil
}

func TestBudgetHandler(t *testing.T) {
	totals := fakeTotals{{Category: "food", SpentCents: 15000}, {Category: "rent", SpentCents: 90000}}
	budgets := fakeBudgets{"food@2026-10": 10000, "rent@2026-10": 100000}

	expenseEvent := func(id, category string) json.RawMessage {
		return mustJSON(t, mqcontracts.ExpenseCreatedPayload{EventMeta: meta(id), Category: category, AmountCents: 500, Month: "2026-10"})
	}

	t.Run("over budget records activity once", func(t *testing.T) {
		act := &memActivity{}
		h := NewBudgetHandler(totals, budgets, act, newMemDeduper(), zap.NewNop())
		require.NoError(t, h.Handle(context.Background(), expenseEvent("b1", "food")))
		require.NoError(t, h.Handle(context.Background(), expenseEvent("b1", "food")))
		require.Len(t, act.rows, 1)
		assert.Equal(t, KindOverBudget, act.rows[0].Kind)
		assert.Equal(t, "food is over budget for 2026-10: spent 150.00 of 100.00", act.rows[0].Message)
	})

	t.Run("under budget is quiet", func(t *testing.T) {
		act := &memActivity{}
		h := NewBudgetHandler(totals, budgets, act, nil, zap.NewNop())
		require.NoError(t, h.Handle(context.Background(), expenseEvent("b2", "rent")))
		assert.Empty(t, act.rows)
	})

	t.Run("no budget", func(t *testing.T) {
		act := &memActivity{}
		h := NewBudgetHandler(totals, budgets, act, nil, zap.NewNop())
		require.NoError(t, h.Handle(context.Background(), expenseEvent("b3", "travel")))
		assert.Empty(t, act.rows)
	})
}
