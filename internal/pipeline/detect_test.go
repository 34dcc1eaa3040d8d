package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-hr/asistencia-cli/internal/model"
)

const tol = 5 * time.Minute

func scheduled(worker string, d int, rangeText string) model.ScheduledShift {
	return model.ScheduledShift{
		Worker:   worker,
		Date:     day(d),
		RawToken: rangeText,
		Range:    ParseShiftRange(rangeText),
	}
}

func attended(worker string, d int, entry, exit *time.Time) model.AttendanceRecord {
	date := day(d)
	return model.AttendanceRecord{Worker: worker, Date: &date, Entry: entry, Exit: exit}
}

func tp(t time.Time) *time.Time { return &t }

func kinds(incidents []model.Incident) []model.IncidentKind {
	out := make([]model.IncidentKind, len(incidents))
	for i, inc := range incidents {
		out[i] = inc.Kind
	}
	return out
}

func TestDetectLateEntryAndEarlyExit(t *testing.T) {
	t.Parallel()

	// entry 09:07 (7 min late) and exit 17:50 (10 min early) with 5 min tolerance
	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "09:00-18:00")},
		[]model.AttendanceRecord{attended("W1", 1, tp(ts(1, 9, 7)), tp(ts(1, 17, 50)))},
		nil,
		DetectOptions{Tolerance: tol},
	)

	require.Len(t, incidents, 2)
	assert.ElementsMatch(t, []model.IncidentKind{model.KindLateEntry, model.KindEarlyExit}, kinds(incidents))
	for _, inc := range incidents {
		assert.Equal(t, model.ClassUndefined, inc.Classification)
		assert.Equal(t, ts(1, 9, 0), inc.ExpectedEntry)
		assert.Equal(t, ts(1, 18, 0), inc.ExpectedExit)
		require.NotNil(t, inc.ActualEntry)
		assert.Equal(t, ts(1, 9, 7), *inc.ActualEntry)
	}
}

func TestDetectWithinToleranceEmitsNothing(t *testing.T) {
	t.Parallel()

	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "09:00-18:00")},
		[]model.AttendanceRecord{attended("W1", 1, tp(ts(1, 9, 2)), tp(ts(1, 18, 10)))},
		nil,
		DetectOptions{Tolerance: tol},
	)

	assert.Empty(t, incidents)
}

func TestDetectToleranceBoundary(t *testing.T) {
	t.Parallel()

	shifts := []model.ScheduledShift{scheduled("W1", 1, "09:00-18:00")}

	// exactly T after expected entry is on time
	incidents := DetectIncidents(shifts,
		[]model.AttendanceRecord{attended("W1", 1, tp(ts(1, 9, 5)), tp(ts(1, 18, 0)))},
		nil, DetectOptions{Tolerance: tol})
	assert.Empty(t, incidents)

	// one second beyond T is late
	lateEntry := ts(1, 9, 5).Add(time.Second)
	incidents = DetectIncidents(shifts,
		[]model.AttendanceRecord{attended("W1", 1, &lateEntry, tp(ts(1, 18, 0)))},
		nil, DetectOptions{Tolerance: tol})
	require.Len(t, incidents, 1)
	assert.Equal(t, model.KindLateEntry, incidents[0].Kind)

	// exactly T before expected exit is fine, one second more is early
	incidents = DetectIncidents(shifts,
		[]model.AttendanceRecord{attended("W1", 1, tp(ts(1, 9, 0)), tp(ts(1, 17, 55)))},
		nil, DetectOptions{Tolerance: tol})
	assert.Empty(t, incidents)

	earlyExit := ts(1, 17, 55).Add(-time.Second)
	incidents = DetectIncidents(shifts,
		[]model.AttendanceRecord{attended("W1", 1, tp(ts(1, 9, 0)), &earlyExit)},
		nil, DetectOptions{Tolerance: tol})
	require.Len(t, incidents, 1)
	assert.Equal(t, model.KindEarlyExit, incidents[0].Kind)
}

func TestDetectEntryAndExitIndependent(t *testing.T) {
	t.Parallel()

	// late entry, on-time exit: exactly one incident
	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "09:00-18:00")},
		[]model.AttendanceRecord{attended("W1", 1, tp(ts(1, 9, 30)), tp(ts(1, 18, 0)))},
		nil,
		DetectOptions{Tolerance: tol},
	)

	require.Len(t, incidents, 1)
	assert.Equal(t, model.KindLateEntry, incidents[0].Kind)
}

func TestDetectMissingMarkings(t *testing.T) {
	t.Parallel()

	// no attendance row at all
	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "09:00-18:00")},
		nil, nil,
		DetectOptions{Tolerance: tol},
	)

	require.Len(t, incidents, 2)
	assert.ElementsMatch(t, []model.IncidentKind{model.KindMissingEntry, model.KindMissingExit}, kinds(incidents))
}

func TestDetectNightShiftExpectedExitNextDay(t *testing.T) {
	t.Parallel()

	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "22:00-06:00")},
		nil, nil,
		DetectOptions{Tolerance: tol},
	)

	require.Len(t, incidents, 2)
	assert.ElementsMatch(t, []model.IncidentKind{model.KindMissingEntry, model.KindMissingExit}, kinds(incidents))
	for _, inc := range incidents {
		assert.Equal(t, ts(1, 22, 0), inc.ExpectedEntry)
		assert.Equal(t, ts(2, 6, 0), inc.ExpectedExit)
	}
}

func TestDetectSkipsUnscheduledDays(t *testing.T) {
	t.Parallel()

	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "libre")},
		nil, nil,
		DetectOptions{Tolerance: tol},
	)
	assert.Empty(t, incidents)
}

func TestDetectMergesDuplicateAttendanceRows(t *testing.T) {
	t.Parallel()

	// two markings the same day: earliest entry and latest exit win
	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "09:00-18:00")},
		[]model.AttendanceRecord{
			attended("W1", 1, tp(ts(1, 12, 0)), tp(ts(1, 13, 0))),
			attended("W1", 1, tp(ts(1, 9, 1)), tp(ts(1, 18, 2))),
		},
		nil,
		DetectOptions{Tolerance: tol},
	)

	assert.Empty(t, incidents)
}

func TestDetectShiftDeltaRule(t *testing.T) {
	t.Parallel()

	delta := 2.5
	rec := attended("W1", 1, tp(ts(1, 9, 0)), tp(ts(1, 18, 0)))
	rec.ShiftDelta = &delta

	// rule off by default
	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "09:00-18:00")},
		[]model.AttendanceRecord{rec}, nil,
		DetectOptions{Tolerance: tol},
	)
	assert.Empty(t, incidents)

	// rule on
	incidents = DetectIncidents(
		[]model.ScheduledShift{scheduled("W1", 1, "09:00-18:00")},
		[]model.AttendanceRecord{rec}, nil,
		DetectOptions{Tolerance: tol, ShiftDeltaHours: 1},
	)
	require.Len(t, incidents, 1)
	assert.Equal(t, model.KindShiftDelta, incidents[0].Kind)
}

func TestDetectAppendsManualAndSorts(t *testing.T) {
	t.Parallel()

	manual := []model.Incident{{
		Worker:         "A1",
		Date:           day(1),
		Kind:           model.KindLateEntry,
		Classification: model.ClassApplies,
	}}

	incidents := DetectIncidents(
		[]model.ScheduledShift{scheduled("Z9", 1, "09:00-18:00")},
		nil, manual,
		DetectOptions{Tolerance: tol},
	)

	require.Len(t, incidents, 3)
	// sorted by date then worker: the manual A1 row first
	assert.Equal(t, "A1", incidents[0].Worker)
	assert.Equal(t, model.ClassApplies, incidents[0].Classification)
}

func TestApplyClassifications(t *testing.T) {
	t.Parallel()

	incidents := []model.Incident{
		{Worker: "1-9", Date: day(1), Kind: model.KindLateEntry, Classification: model.ClassUndefined},
		{Worker: "1-9", Date: day(1), Kind: model.KindEarlyExit, Classification: model.ClassUndefined},
		{Worker: "2-7", Date: day(2), Kind: model.KindMissingEntry, Classification: model.ClassUndefined},
	}

	tbl, m := table(
		[]string{"RUT", "Fecha", "Tipo Incidencia", "Comprobación Incidencia"},
		[]string{"1-9", "01-03-2024", "Entrada tardía", "Procede"},
		[]string{"2-7", "02-03-2024", "Sin marcaje entrada", "Inventado"},
	)

	applied := ApplyClassifications(incidents, tbl, m, model.DefaultLabels())
	assert.Equal(t, 2, applied)

	assert.Equal(t, model.ClassApplies, incidents[0].Classification)
	assert.Equal(t, model.ClassUndefined, incidents[1].Classification)
	// unknown label falls back to Indefinido
	assert.Equal(t, model.ClassUndefined, incidents[2].Classification)
}

func TestParseManualIncidents(t *testing.T) {
	t.Parallel()

	tbl, m := table(
		[]string{"RUT", "Fecha", "Tipo Incidencia", "Comprobación Incidencia"},
		[]string{"1.9", "01-03-2024", "Entrada tardía", "Procede"},
		[]string{"2-7", "02-03-2024", "Sin marcaje salida", ""},
	)

	manual := ParseManualIncidents(tbl, m)
	require.Len(t, manual, 2)

	assert.Equal(t, "19", manual[0].Worker)
	assert.Equal(t, day(1), manual[0].Date)
	assert.Equal(t, model.KindLateEntry, manual[0].Kind)
	assert.Equal(t, model.ClassApplies, manual[0].Classification)

	assert.Equal(t, model.ClassUndefined, manual[1].Classification)
}
