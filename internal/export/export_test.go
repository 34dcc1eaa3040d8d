package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andes-hr/asistencia-cli/internal/model"
	"github.com/andes-hr/asistencia-cli/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	entry := time.Date(2024, 3, 1, 9, 7, 0, 0, time.UTC)
	cat := model.NewCatalog([]model.CatalogEntry{
		{
			Code:      "T1",
			NormCode:  "T1",
			RangeText: "09:00-18:00",
			Range: &model.ShiftRange{
				Start: model.ClockTime{Hour: 9},
				End:   model.ClockTime{Hour: 18},
			},
		},
		{Code: "LIB", NormCode: "LIB", RangeText: "Libre"},
	})
	return &pipeline.Result{
		Catalog: cat,
		Incidents: []model.Incident{
			{
				Worker:         "1-9",
				Date:           day,
				RawToken:       "T1",
				ExpectedEntry:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
				ExpectedExit:   time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
				ActualEntry:    &entry,
				Kind:           model.KindLateEntry,
				Classification: model.ClassUndefined,
			},
		},
		Summary: pipeline.Summary{
			ByType:  []pipeline.KindCount{{Kind: model.KindLateEntry, Count: 1}},
			Marking: pipeline.MarkingReport{Records: 3, WithEntry: 2, WithExit: 1},
			Compliance: []pipeline.WorkerCompliance{
				{Worker: "1-9", Shifts: 2, CleanShifts: 1, FlaggedShifts: 1, Pct: 0.5},
			},
			Absenteeism: []pipeline.WorkerAbsenteeism{
				{Worker: "1-9", Shifts: 2, MissingEntry: 1, Pct: 0.5},
			},
			Daily: []pipeline.DailyAttendance{
				{Date: day, Shifts: 2, WithEntry: 1, Pct: 0.5},
			},
		},
	}
}

func TestWriteFileSheetsAndIncidentRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	w := New(model.DefaultLabels())
	require.NoError(t, w.WriteFile(path, sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{
		SheetIncidents, SheetByType, SheetMarking, SheetCompliance,
		SheetAbsenteeism, SheetDaily, SheetCatalog,
	}, f.GetSheetList())

	rows, err := f.GetRows(SheetIncidents)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, incidentHeaders, rows[0])
	assert.Equal(t, []string{
		"1-9", "01-03-2024", "T1",
		"2024-03-01 09:00:00", "2024-03-01 18:00:00",
		"2024-03-01 09:07:00", "",
		"Entrada tardía", "Indefinido",
	}, rows[1])
}

func TestClassificationDropdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	w := New(model.DefaultLabels())
	require.NoError(t, w.WriteFile(path, sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	dvs, err := f.GetDataValidations(SheetIncidents)
	require.NoError(t, err)
	require.Len(t, dvs, 1)
	assert.Equal(t, "I2:I2", dvs[0].Sqref)
}

func TestSummarySheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	w := New(model.DefaultLabels())
	require.NoError(t, w.WriteFile(path, sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetByType)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Entrada tardía", "1"}, rows[1])

	rows, err = f.GetRows(SheetMarking)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"3", "2", "1"}, rows[1])

	rows, err = f.GetRows(SheetCompliance)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1-9", "2", "1", "1", "0.5"}, rows[1])

	rows, err = f.GetRows(SheetDaily)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "01-03-2024", rows[1][0])
}

func TestCatalogSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	w := New(model.DefaultLabels())
	require.NoError(t, w.WriteFile(path, sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetCatalog)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"T1", "09:00-18:00", "09:00:00", "18:00:00", "FALSE"}, rows[1])
	assert.Equal(t, []string{"LIB", "Libre"}, rows[2])
}

func TestCatalogWorkbook(t *testing.T) {
	w := New(nil)
	f, err := w.CatalogWorkbook(sampleResult().Catalog)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetCatalog}, f.GetSheetList())
	rows, err := f.GetRows(SheetCatalog)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWriteBufferEmptyResult(t *testing.T) {
	w := New(model.DefaultLabels())
	buf, err := w.WriteBuffer(&pipeline.Result{Catalog: model.NewCatalog(nil)})
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetIncidents)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, incidentHeaders, rows[0])
}
