package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"sampleapps/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUpdateBuilder_OnlySuppliedFields(t *testing.T) {
	p := model.HabitPatch{
		Name:          strPtr("Read"),
		TargetPerWeek: intPtr(3),
	}
	b := habitUpdate(p)
	assert.False(t, b.empty())

	query, args := b.build("habits", 9, 4, "id")
	assert.Equal(t,
		"UPDATE habits SET name = $1, target_per_week = $2, updated_at = NOW() WHERE id = $3 AND user_id = $4 RETURNING id",
		query)
	assert.Equal(t, []any{"Read", 3, 9, 4}, args)
}

func TestUpdateBuilder_Empty(t *testing.T) {
	assert.True(t, habitUpdate(model.HabitPatch{}).empty())
	assert.True(t, plantUpdate(model.PlantPatch{}).empty())
	assert.True(t, cardUpdate(model.CardPatch{}).empty())
}

func TestUpdateBuilder_ZeroValuesAreStillSet(t *testing.T) {
	active := false
	b := habitUpdate(model.HabitPatch{IsActive: &active, Description: strPtr("")})
	_, args := b.build("habits", 1, 1, "id")
	assert.Equal(t, []any{"", false, 1, 1}, args)
}

func TestExpenseUpdate_ParsesDate(t *testing.T) {
	b, err := expenseUpdate(model.ExpensePatch{SpentOn: strPtr("2026-10-02")})
	assert.NoError(t, err)
	query, args := b.build("expenses", 1, 2, "id")
	assert.Contains(t, query, "spent_on = $1")
	assert.Len(t, args, 3)

	_, err = expenseUpdate(model.ExpensePatch{SpentOn: strPtr("02/10/2026")})
	assert.Error(t, err)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))

	err := mapError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	err = mapError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "budgets_user_id_category_month_key"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "budgets_user_id_category_month_key")

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}

func TestAffected(t *testing.T) {
	assert.ErrorIs(t, affected(pgconn.NewCommandTag("DELETE 0")), ErrNotFound)
	assert.NoError(t, affected(pgconn.NewCommandTag("DELETE 1")))
}
