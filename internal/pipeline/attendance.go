package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/andes-hr/asistencia-cli/internal/fetcher"
	"github.com/andes-hr/asistencia-cli/internal/model"
	"github.com/andes-hr/asistencia-cli/internal/schema"
)

// dateLayouts accepted for attendance date cells. The BUK/PBI exports are not
// consistent about this, so several layouts are tried in order.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// combine builds a timestamp from separate date and time cells. Either side
// missing or unparseable yields nil.
func combine(dateCell, timeCell string) *time.Time {
	d, ok := parseDate(dateCell)
	if !ok {
		return nil
	}
	c, ok := model.ParseClock(strings.TrimSpace(timeCell))
	if !ok {
		return nil
	}
	ts := c.At(d)
	return &ts
}

// NormalizeAttendance parses the raw attendance sheet into AttendanceRecords:
// a derived base date (entry date preferred, generic day column as fallback),
// combined entry/exit timestamps, and the declared shift resolved against the
// catalog for cross-checking. Rows without a worker id are dropped; a missing
// worker-id column is fatal.
func NormalizeAttendance(t *fetcher.Table, m schema.Mapping, cat *model.Catalog) ([]model.AttendanceRecord, error) {
	if !m.Has(schema.ColWorkerID) {
		return nil, eris.Errorf("attendance table %s: no worker identifier column (RUT)", t.Source)
	}

	records := make([]model.AttendanceRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		worker := schema.NormalizeWorkerID(m.Cell(row, schema.ColWorkerID))
		if worker == "" {
			continue
		}

		rec := model.AttendanceRecord{Worker: worker}

		if d, ok := parseDate(m.Cell(row, schema.ColEntryDate)); ok {
			rec.Date = &d
		} else if d, ok := parseDate(m.Cell(row, schema.ColDay)); ok {
			rec.Date = &d
		}

		rec.Entry = combine(m.Cell(row, schema.ColEntryDate), m.Cell(row, schema.ColEntryTime))
		rec.Exit = combine(m.Cell(row, schema.ColExitDate), m.Cell(row, schema.ColExitTime))

		if tok := m.Cell(row, schema.ColDeclaredShift); tok != "" {
			rec.DeclaredToken = tok
			rec.DeclaredRange, rec.DeclaredCode = ResolveToken(cat, tok)
		}

		if raw := m.Cell(row, schema.ColShiftDelta); raw != "" {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
				rec.ShiftDelta = &v
			}
		}

		records = append(records, rec)
	}

	return records, nil
}
