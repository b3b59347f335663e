package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter renders an application summary as a workbook
type ExcelExporter struct {
	file      *excelize.File
	sheetName string
}

// NewExcelExporter creates a new Excel exporter with one sheet
func NewExcelExporter(sheetName string) *ExcelExporter {
	file := excelize.NewFile()
	file.SetSheetName("Sheet1", sheetName)
	return &ExcelExporter{file: file, sheetName: sheetName}
}

// Write fills the sheet with one row per field
func (e *ExcelExporter) Write(sections []Section) error {
	header := []string{"Section", "Step", "Field", "Value"}

	headerStyle, err := e.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(e.sheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := e.file.SetCellStyle(e.sheetName, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := e.file.SetPanes(e.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	row := 2
	for _, s := range sections {
		for _, f := range s.Fields {
			values := []any{s.Title, string(s.Step), f.Label, f.Value}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := e.file.SetSheetRow(e.sheetName, cell, &values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
	}

	for col, width := range map[string]float64{"A": 24, "B": 22, "C": 28, "D": 60} {
		if err := e.file.SetColWidth(e.sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

// WriteTo writes the workbook to a writer
func (e *ExcelExporter) WriteTo(w io.Writer) error {
	_, err := e.file.WriteTo(w)
	return err
}

// Close closes the underlying workbook
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}
