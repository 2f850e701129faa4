package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders datasets into an Excel workbook with a styled header
// row and typed cells.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces an xlsx workbook for the dataset. Numeric-looking cells are
// written as numbers and date cells as native timestamps so spreadsheet
// consumers can sort and filter them.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := data.Title
	if sheet == "" {
		sheet = "Export"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"008080"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return nil, fmt.Errorf("build date style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, fmt.Errorf("resolve last column: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 25); err != nil {
		return nil, fmt.Errorf("set column widths: %w", err)
	}

	for i, header := range data.Headers {
		axis, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, axis, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for r, row := range data.Rows {
		for c, cell := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("resolve cell: %w", err)
			}
			if err := writeCell(f, sheet, axis, cell, dateStyle); err != nil {
				return nil, err
			}
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCell(f *excelize.File, sheet, axis string, cell Cell, dateStyle int) error {
	switch cell.Kind {
	case KindDate:
		if cell.Time.IsZero() {
			return nil
		}
		if err := f.SetCellValue(sheet, axis, cell.Time); err != nil {
			return fmt.Errorf("write date cell: %w", err)
		}
		if err := f.SetCellStyle(sheet, axis, axis, dateStyle); err != nil {
			return fmt.Errorf("style date cell: %w", err)
		}
		return nil
	case KindAuto:
		if number, err := strconv.ParseFloat(cell.Value, 64); err == nil {
			if err := f.SetCellValue(sheet, axis, number); err != nil {
				return fmt.Errorf("write numeric cell: %w", err)
			}
			return nil
		}
	}
	if err := f.SetCellValue(sheet, axis, StripTags(cell.Value)); err != nil {
		return fmt.Errorf("write text cell: %w", err)
	}
	return nil
}
