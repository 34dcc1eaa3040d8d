// Package export writes the consolidated report workbook: the incident sheet
// the reviewer edits and re-uploads, the aggregate tables, and the normalized
// shift catalog.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/andes-hr/asistencia-cli/internal/model"
	"github.com/andes-hr/asistencia-cli/internal/pipeline"
)

// Sheet names are part of the output contract.
const (
	SheetIncidents   = "Incidencias"
	SheetByType      = "Incidencias_por_tipo"
	SheetMarking     = "Marcaje"
	SheetCompliance  = "Cumplimiento_trabajador"
	SheetAbsenteeism = "Ausentismo_trabajador"
	SheetDaily       = "Asistencia_diaria"
	SheetCatalog     = "CatalogoTurnos"
)

const (
	dateFormat      = "02-01-2006"
	timestampFormat = "2006-01-02 15:04:05"
)

// incidentHeaders is the exact column order of the incident sheet. The
// classification column stays last so the reviewer dropdown sits at the edge.
var incidentHeaders = []string{
	"RUT", "Fecha", "TurnoOriginal", "EntradaEsperada", "SalidaEsperada",
	"EntradaRealDT", "SalidaRealDT", "Tipo Incidencia", "Comprobación Incidencia",
}

// Writer builds report workbooks. labels is the closed classification set
// offered by the incident-sheet dropdown.
type Writer struct {
	labels []string
}

// New creates a Writer.
func New(labels []string) *Writer {
	return &Writer{labels: labels}
}

// WriteFile writes the full report workbook to path.
func (w *Writer) WriteFile(path string, res *pipeline.Result) error {
	f, err := w.Workbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "export: failed to save report %s", path)
	}
	return nil
}

// WriteBuffer renders the full report workbook into memory, for the HTTP
// surface.
func (w *Writer) WriteBuffer(res *pipeline.Result) (*bytes.Buffer, error) {
	f, err := w.Workbook(res)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, eris.Wrap(err, "export: failed to render report")
	}
	return buf, nil
}

// Workbook assembles all report sheets. The caller owns the returned file.
func (w *Writer) Workbook(res *pipeline.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := w.writeIncidents(f, res.Incidents); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, res.Summary); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeCatalog(f, res.Catalog); err != nil {
		f.Close()
		return nil, err
	}

	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetIncidents); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// CatalogWorkbook builds a workbook holding only the normalized catalog, the
// `catalog` command's output.
func (w *Writer) CatalogWorkbook(cat *model.Catalog) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeCatalog(f, cat); err != nil {
		f.Close()
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetCatalog); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

func (w *Writer) writeIncidents(f *excelize.File, incidents []model.Incident) error {
	rows := make([][]any, 0, len(incidents))
	for _, inc := range incidents {
		rows = append(rows, []any{
			inc.Worker,
			inc.Date.Format(dateFormat),
			inc.RawToken,
			formatTime(&inc.ExpectedEntry),
			formatTime(&inc.ExpectedExit),
			formatTime(inc.ActualEntry),
			formatTime(inc.ActualExit),
			string(inc.Kind),
			inc.Classification,
		})
	}
	if err := writeSheet(f, SheetIncidents, incidentHeaders, rows); err != nil {
		return err
	}
	f.SetColWidth(SheetIncidents, "A", "A", 14)
	f.SetColWidth(SheetIncidents, "B", "B", 12)
	f.SetColWidth(SheetIncidents, "C", "G", 20)
	f.SetColWidth(SheetIncidents, "H", "I", 24)
	return w.addClassificationDropdown(f, len(rows))
}

// addClassificationDropdown restricts the reviewer column to the configured
// label set. Skipped when there is nothing to classify.
func (w *Writer) addClassificationDropdown(f *excelize.File, rows int) error {
	if rows == 0 || len(w.labels) == 0 {
		return nil
	}
	dv := excelize.NewDataValidation(true)
	dv.SetSqref(fmt.Sprintf("I2:I%d", rows+1))
	if err := dv.SetDropList(w.labels); err != nil {
		return eris.Wrap(err, "export: invalid classification label set")
	}
	if err := f.AddDataValidation(SheetIncidents, dv); err != nil {
		return eris.Wrap(err, "export: failed to add classification dropdown")
	}
	return nil
}

func writeSummary(f *excelize.File, sum pipeline.Summary) error {
	byType := make([][]any, 0, len(sum.ByType))
	for _, kc := range sum.ByType {
		byType = append(byType, []any{string(kc.Kind), kc.Count})
	}
	if err := writeSheet(f, SheetByType, []string{"Tipo Incidencia", "Q"}, byType); err != nil {
		return err
	}

	marking := [][]any{{
		sum.Marking.Records, sum.Marking.WithEntry, sum.Marking.WithExit,
	}}
	if err := writeSheet(f, SheetMarking,
		[]string{"Registros", "Con_Entrada_Real", "Con_Salida_Real"}, marking); err != nil {
		return err
	}

	compliance := make([][]any, 0, len(sum.Compliance))
	for _, wc := range sum.Compliance {
		compliance = append(compliance, []any{
			wc.Worker, wc.Shifts, wc.CleanShifts, wc.FlaggedShifts, wc.Pct,
		})
	}
	if err := writeSheet(f, SheetCompliance, []string{
		"RUT", "Turnos", "Turnos_sin_incidencias_procede",
		"Turnos_con_incidencias_procede", "Pct_Cumplimiento",
	}, compliance); err != nil {
		return err
	}

	absenteeism := make([][]any, 0, len(sum.Absenteeism))
	for _, wa := range sum.Absenteeism {
		absenteeism = append(absenteeism, []any{wa.Worker, wa.Shifts, wa.MissingEntry, wa.Pct})
	}
	if err := writeSheet(f, SheetAbsenteeism,
		[]string{"RUT", "Turnos", "Sin_Entrada", "Pct_Ausentismo"}, absenteeism); err != nil {
		return err
	}

	daily := make([][]any, 0, len(sum.Daily))
	for _, da := range sum.Daily {
		daily = append(daily, []any{da.Date.Format(dateFormat), da.Shifts, da.WithEntry, da.Pct})
	}
	return writeSheet(f, SheetDaily,
		[]string{"Fecha", "Turnos", "Con_Entrada", "Pct_Asistencia"}, daily)
}

func writeCatalog(f *excelize.File, cat *model.Catalog) error {
	if cat == nil {
		return writeSheet(f, SheetCatalog,
			[]string{"Sigla", "Horario", "Entrada", "Salida", "Cruza_Medianoche"}, nil)
	}
	rows := make([][]any, 0, cat.Len())
	for _, e := range cat.Entries() {
		row := []any{e.Code, e.RangeText, "", "", ""}
		if e.Range != nil {
			row[2] = e.Range.Start.String()
			row[3] = e.Range.End.String()
			row[4] = e.Range.CrossesMidnight
		}
		rows = append(rows, row)
	}
	return writeSheet(f, SheetCatalog,
		[]string{"Sigla", "Horario", "Entrada", "Salida", "Cruza_Medianoche"}, rows)
}

// writeSheet renders one table: styled header row, frozen top pane, data rows.
func writeSheet(f *excelize.File, name string, headers []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return eris.Wrapf(err, "export: failed to create sheet %s", name)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return eris.Wrap(err, "export: failed to build header style")
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return eris.Wrapf(err, "export: failed to write header of %s", name)
		}
	}
	if len(headers) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 1)
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(name, first, last, headerStyle)
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(name, cell, v); err != nil {
				return eris.Wrapf(err, "export: failed to write row %d of %s", r+2, name)
			}
		}
	}

	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timestampFormat)
}
