package expense

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sampleapps/internal/model"
)

func TestWriteWorkbook(t *testing.T) {
	expenses := []model.Expense{
		{ID: 1, AmountCents: 1250, Category: "food", Description: "ramen", SpentOn: time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)},
		{ID: 2, AmountCents: 4000, Category: "books", SpentOn: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, "2026-10", expenses))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2026-10"}, f.GetSheetList())

	rows, err := f.GetRows("2026-10")
	require.NoError(t, err)
	// header plus one row per expense, no totals
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Date", "Category", "Description", "Amount"}, rows[0])
	assert.Equal(t, []string{"1", "2026-10-03", "food", "ramen", "12.5"}, rows[1])
	assert.Equal(t, "books", rows[2][2])
}

func TestWriteWorkbook_NoRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, "", nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Expenses")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "expenses-2026-10.xlsx", ExportFilename("2026-10"))
	assert.Equal(t, "expenses.xlsx", ExportFilename(""))
}
