package expense

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"sampleapps/internal/model"
)

var exportHeader = []interface{}{"ID", "Date", "Category", "Description", "Amount"}

// WriteWorkbook writes one sheet named after month with a header row and one row per expense.
// Amounts are written as decimal currency units.
func WriteWorkbook(w io.Writer, month string, expenses []model.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := month
	if sheet == "" {
		sheet = "Expenses"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			e.ID,
			e.SpentOn.Format(model.DateLayout),
			e.Category,
			e.Description,
			float64(e.AmountCents) / 100,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportFilename is the attachment name used by the download endpoint.
func ExportFilename(month string) string {
	if month == "" {
		return "expenses.xlsx"
	}
	return fmt.Sprintf("expenses-%s.xlsx", month)
}
