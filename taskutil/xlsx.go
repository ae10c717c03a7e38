package taskutil

import (
	"fmt"
	"io"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Tasks"

// ExportXLSX writes tasks as a single-sheet workbook with the same columns as
// ExportCSV and a bold header row.
func ExportXLSX(w io.Writer, tasks []domain.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, t := range tasks {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			t.Title,
			deref(t.Description),
			deref(t.Deadline),
			string(t.Priority),
			estimateCell(t.TimeEstimate),
			yesNo(t.Completed),
			timestampCell(t.CreatedAt),
			timestampCell(t.UpdatedAt),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "C", "H", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	return f.Write(w)
}
