package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXRender(t *testing.T) {
	exporter := NewXLSXExporter()
	completed := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	data := Dataset{
		Title:   "Export 2024-03-15",
		Headers: []string{"Student", "Total hours", "Completed on"},
		Rows: [][]Cell{
			{String("Alice Doe"), Auto("2.5"), Date(completed, "15/03/2024")},
			{String("Bob Smith"), Auto("n/a"), String("")},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Export 2024-03-15"}, f.GetSheetList())

	header, err := f.GetCellValue("Export 2024-03-15", "A1")
	require.NoError(t, err)
	require.Equal(t, "Student", header)

	hours, err := f.GetCellValue("Export 2024-03-15", "B2")
	require.NoError(t, err)
	require.Equal(t, "2.5", hours)

	// Auto cells that do not parse as numbers stay text.
	fallback, err := f.GetCellValue("Export 2024-03-15", "B3")
	require.NoError(t, err)
	require.Equal(t, "n/a", fallback)
}

func TestXLSXRenderNoHeaders(t *testing.T) {
	exporter := NewXLSXExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}
