package pipeline

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/andes-hr/asistencia-cli/internal/fetcher"
	"github.com/andes-hr/asistencia-cli/internal/model"
	"github.com/andes-hr/asistencia-cli/internal/schema"
)

// DetectOptions tunes the incident rules.
type DetectOptions struct {
	// Tolerance applied on both sides: an entry is late only when it is more
	// than Tolerance after the expected entry, an exit early only when more
	// than Tolerance before the expected exit.
	Tolerance time.Duration
	// ShiftDeltaHours, when positive, turns the reported shift-delta hours
	// into an extra incident kind once |delta| exceeds it. Zero disables the
	// rule (the source variants disagree on whether it applies).
	ShiftDeltaHours float64
}

type attendanceKey struct {
	worker string
	date   time.Time
}

type marking struct {
	entry      *time.Time
	exit       *time.Time
	shiftDelta *float64
	declared   string // declared catalog code, for the cross-check log
}

// indexAttendance collapses attendance rows onto (worker, base date) keys.
// When a worker has several rows on one date the merge is deterministic:
// earliest entry wins, latest exit wins, largest |shift delta| wins.
func indexAttendance(records []model.AttendanceRecord) map[attendanceKey]*marking {
	idx := make(map[attendanceKey]*marking)
	for _, r := range records {
		if r.Date == nil {
			continue
		}
		key := attendanceKey{worker: r.Worker, date: *r.Date}
		mk, ok := idx[key]
		if !ok {
			mk = &marking{}
			idx[key] = mk
		}

		if r.Entry != nil && (mk.entry == nil || r.Entry.Before(*mk.entry)) {
			mk.entry = r.Entry
		}
		if r.Exit != nil && (mk.exit == nil || r.Exit.After(*mk.exit)) {
			mk.exit = r.Exit
		}
		if r.ShiftDelta != nil && (mk.shiftDelta == nil || math.Abs(*r.ShiftDelta) > math.Abs(*mk.shiftDelta)) {
			mk.shiftDelta = r.ShiftDelta
		}
		if mk.declared == "" {
			mk.declared = r.DeclaredCode
		}
	}
	return idx
}

// DetectIncidents joins the expanded schedule against the attendance markings
// on (worker, shift start date) and classifies deviations. Entry and exit are
// evaluated independently, so one day can emit several incidents. Every
// incident starts classified ClassUndefined. Manual incidents, if any, are
// appended before the final sort.
func DetectIncidents(shifts []model.ScheduledShift, records []model.AttendanceRecord, manual []model.Incident, opts DetectOptions) []model.Incident {
	idx := indexAttendance(records)

	var incidents []model.Incident
	for _, s := range shifts {
		expectedEntry, ok := s.ExpectedEntry()
		if !ok {
			continue
		}
		expectedExit, _ := s.ExpectedExit()

		mk := idx[attendanceKey{worker: s.Worker, date: s.Date}]

		var kinds []model.IncidentKind
		var actualEntry, actualExit *time.Time
		var delta *float64
		if mk != nil {
			actualEntry, actualExit, delta = mk.entry, mk.exit, mk.shiftDelta

			if mk.declared != "" && s.Code != "" && mk.declared != s.Code {
				zap.L().Debug("detect: declared shift differs from scheduled",
					zap.String("worker", s.Worker),
					zap.Time("date", s.Date),
					zap.String("scheduled", s.Code),
					zap.String("declared", mk.declared),
				)
			}
		}

		if actualEntry == nil {
			kinds = append(kinds, model.KindMissingEntry)
		} else if actualEntry.After(expectedEntry.Add(opts.Tolerance)) {
			kinds = append(kinds, model.KindLateEntry)
		}

		if actualExit == nil {
			kinds = append(kinds, model.KindMissingExit)
		} else if actualExit.Before(expectedExit.Add(-opts.Tolerance)) {
			kinds = append(kinds, model.KindEarlyExit)
		}

		if opts.ShiftDeltaHours > 0 && delta != nil && math.Abs(*delta) > opts.ShiftDeltaHours {
			kinds = append(kinds, model.KindShiftDelta)
		}

		for _, kind := range kinds {
			incidents = append(incidents, model.Incident{
				Worker:         s.Worker,
				Date:           s.Date,
				RawToken:       s.RawToken,
				ExpectedEntry:  expectedEntry,
				ExpectedExit:   expectedExit,
				ActualEntry:    actualEntry,
				ActualExit:     actualExit,
				Kind:           kind,
				Classification: model.ClassUndefined,
			})
		}
	}

	incidents = append(incidents, manual...)
	sortIncidents(incidents)
	return incidents
}

func sortIncidents(incidents []model.Incident) {
	sort.SliceStable(incidents, func(i, j int) bool {
		a, b := incidents[i], incidents[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Worker != b.Worker {
			return a.Worker < b.Worker
		}
		return a.Kind < b.Kind
	})
}

// ParseManualIncidents maps a caller-supplied manual incident table onto
// Incident rows. Values are taken as-is without validation, matching the
// source behavior; unmappable cells come through empty and a missing
// classification defaults to ClassUndefined.
func ParseManualIncidents(t *fetcher.Table, m schema.Mapping) []model.Incident {
	incidents := make([]model.Incident, 0, len(t.Rows))
	for _, row := range t.Rows {
		inc := model.Incident{
			Worker:         schema.NormalizeWorkerID(m.Cell(row, schema.ColWorkerID)),
			Kind:           model.IncidentKind(m.Cell(row, schema.ColIncidentKind)),
			Classification: m.Cell(row, schema.ColClassification),
		}
		if d, ok := parseDate(m.Cell(row, schema.ColDay)); ok {
			inc.Date = d
		}
		if inc.Classification == "" {
			inc.Classification = model.ClassUndefined
		}
		incidents = append(incidents, inc)
	}
	return incidents
}

// ApplyClassifications copies reviewer-edited classification labels from a
// re-uploaded incident sheet onto matching incidents, keyed by (worker, date,
// kind). Labels outside the allowed set fall back to ClassUndefined. This is
// the single external mutation between detection and aggregation.
func ApplyClassifications(incidents []model.Incident, t *fetcher.Table, m schema.Mapping, labels []string) int {
	allowed := make(map[string]bool, len(labels))
	for _, l := range labels {
		allowed[l] = true
	}

	type editKey struct {
		worker string
		date   time.Time
		kind   model.IncidentKind
	}
	edits := make(map[editKey]string, len(t.Rows))
	for _, row := range t.Rows {
		d, ok := parseDate(m.Cell(row, schema.ColDay))
		if !ok {
			continue
		}
		key := editKey{
			worker: schema.NormalizeWorkerID(m.Cell(row, schema.ColWorkerID)),
			date:   d,
			kind:   model.IncidentKind(m.Cell(row, schema.ColIncidentKind)),
		}
		edits[key] = m.Cell(row, schema.ColClassification)
	}

	applied := 0
	for i := range incidents {
		label, ok := edits[editKey{worker: incidents[i].Worker, date: incidents[i].Date, kind: incidents[i].Kind}]
		if !ok {
			continue
		}
		if !allowed[label] {
			label = model.ClassUndefined
		}
		incidents[i].Classification = label
		applied++
	}
	return applied
}
