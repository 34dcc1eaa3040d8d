package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadTable_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{" Sigla ", "Horario"},
			{"T1", "09:00-18:00"},
			{"", ""},
			{"N1", "22:00-06:00"},
		},
	})

	tbl, err := ReadTable(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sigla", "Horario"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"T1", "09:00-18:00"}, tbl.Rows[0])
	assert.Equal(t, []string{"N1", "22:00-06:00"}, tbl.Rows[1])
}

func TestReadTable_SkipRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Reporte BUK"},
			{"Sigla", "Horario"},
			{"T1", "09:00-18:00"},
		},
	})

	tbl, err := ReadTable(path, XLSXOptions{SkipRows: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sigla", "Horario"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
}

func TestReadTable_SheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Ausencias":  {{"RUT", "Motivo"}},
		"Asistencia": {{"RUT", "Hora Entrada"}, {"1-9", "09:00"}},
	})

	tbl, err := ReadTable(path, XLSXOptions{SheetName: "Asistencia"})
	require.NoError(t, err)
	assert.Equal(t, []string{"RUT", "Hora Entrada"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)

	_, err = ReadTable(path, XLSXOptions{SheetName: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Nope" not found`)
}

func TestReadTable_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"A"}},
	})

	_, err := ReadTable(path, XLSXOptions{SheetIndex: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadTable_MissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "missing.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}

func TestSheetNames(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Only": {{"A"}},
	})

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, names)
}
