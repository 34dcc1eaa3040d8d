package pipeline

import (
	"regexp"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andes-hr/asistencia-cli/internal/fetcher"
	"github.com/andes-hr/asistencia-cli/internal/model"
	"github.com/andes-hr/asistencia-cli/internal/schema"
)

const rosterDateLayout = "02-01-2006"

var dateHeaderRe = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// IsDateColumn reports whether a roster header is a DD-MM-YYYY date column.
// Anything else is treated as identity/metadata.
func IsDateColumn(header string) bool {
	return dateHeaderRe.MatchString(header)
}

type dateColumn struct {
	index int
	date  time.Time
}

// ExpandRoster converts the wide roster (one column per date) into one
// ScheduledShift per worker per day, resolving each cell against the catalog.
// Each worker's history starts at their first day with a resolved shift;
// earlier all-empty days are dropped so no obligations are invented for days
// before the roster was established. Workers with no resolvable day at all
// contribute nothing. When areaFilter is non-empty, rows from other areas are
// skipped before expansion.
func ExpandRoster(t *fetcher.Table, m schema.Mapping, cat *model.Catalog, areaFilter string) ([]model.ScheduledShift, error) {
	var dateCols []dateColumn
	for i, h := range t.Headers {
		if !IsDateColumn(h) {
			continue
		}
		d, err := time.ParseInLocation(rosterDateLayout, h, time.UTC)
		if err != nil {
			// matched the pattern but not a real date, e.g. "99-99-2024"
			zap.L().Warn("roster: skipping invalid date column", zap.String("header", h))
			continue
		}
		dateCols = append(dateCols, dateColumn{index: i, date: d})
	}
	if len(dateCols) == 0 {
		return nil, eris.Errorf("roster table %s: no DD-MM-YYYY date columns found", t.Source)
	}
	sort.Slice(dateCols, func(i, j int) bool { return dateCols[i].date.Before(dateCols[j].date) })

	idKey := schema.ColWorkerID
	if !m.Has(idKey) {
		// older exports carry only the name column
		if !m.Has(schema.ColWorkerName) {
			return nil, eris.Errorf("roster table %s: no worker identifier column (RUT or Nombre del Colaborador)", t.Source)
		}
		idKey = schema.ColWorkerName
	}

	wantArea := schema.Fold(areaFilter)

	var shifts []model.ScheduledShift
	firstValid := make(map[string]time.Time)

	for _, row := range t.Rows {
		worker := schema.NormalizeWorkerID(m.Cell(row, idKey))
		if worker == "" {
			continue
		}
		area := m.Cell(row, schema.ColArea)
		if wantArea != "" && schema.Fold(area) != wantArea {
			continue
		}

		for _, dc := range dateCols {
			var token string
			if dc.index < len(row) {
				token = row[dc.index]
			}
			rng, code := ResolveToken(cat, token)

			shifts = append(shifts, model.ScheduledShift{
				Worker:     worker,
				WorkerName: m.Cell(row, schema.ColWorkerName),
				Area:       area,
				Supervisor: m.Cell(row, schema.ColSupervisor),
				Date:       dc.date,
				RawToken:   token,
				Code:       code,
				Range:      rng,
			})

			if rng != nil {
				if min, ok := firstValid[worker]; !ok || dc.date.Before(min) {
					firstValid[worker] = dc.date
				}
			}
		}
	}

	out := shifts[:0]
	for _, s := range shifts {
		min, ok := firstValid[s.Worker]
		if !ok || s.Date.Before(min) {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Worker != out[j].Worker {
			return out[i].Worker < out[j].Worker
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}
