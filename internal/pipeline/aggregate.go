package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/andes-hr/asistencia-cli/internal/model"
)

// KindCount is one row of the by-type summary.
type KindCount struct {
	Kind  model.IncidentKind
	Count int
}

// MarkingReport holds the simple attendance-record counts.
type MarkingReport struct {
	Records   int
	WithEntry int
	WithExit  int
}

// WorkerCompliance is one row of the per-worker compliance table: scheduled
// days, days with zero confirmed incidents, and the ratio of clean days.
type WorkerCompliance struct {
	Worker        string
	Shifts        int
	CleanShifts   int
	FlaggedShifts int
	Pct           float64
}

// WorkerAbsenteeism counts scheduled days without any real clock-in.
type WorkerAbsenteeism struct {
	Worker       string
	Shifts       int
	MissingEntry int
	Pct          float64
}

// DailyAttendance is one row of the daily KPI table.
type DailyAttendance struct {
	Date      time.Time
	Shifts    int
	WithEntry int
	Pct       float64
}

// Summary bundles the read-only report tables. All of them are pure
// projections over the current inputs and can be recomputed at will.
type Summary struct {
	ByType      []KindCount
	Marking     MarkingReport
	Compliance  []WorkerCompliance
	Absenteeism []WorkerAbsenteeism
	Daily       []DailyAttendance
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// BuildSummary rolls the classified incidents up into the report tables.
// Only incidents carrying appliesLabel (the reviewer's "Procede") count
// against a worker's compliance; the by-type table counts the same subset.
func BuildSummary(shifts []model.ScheduledShift, records []model.AttendanceRecord, incidents []model.Incident, appliesLabel string) Summary {
	var sum Summary

	// by type, confirmed incidents only, descending
	kindCounts := make(map[model.IncidentKind]int)
	confirmed := make(map[attendanceKey]int)
	for _, inc := range incidents {
		if inc.Classification != appliesLabel {
			continue
		}
		kindCounts[inc.Kind]++
		confirmed[attendanceKey{worker: inc.Worker, date: inc.Date}]++
	}
	for kind, n := range kindCounts {
		sum.ByType = append(sum.ByType, KindCount{Kind: kind, Count: n})
	}
	sort.Slice(sum.ByType, func(i, j int) bool {
		if sum.ByType[i].Count != sum.ByType[j].Count {
			return sum.ByType[i].Count > sum.ByType[j].Count
		}
		return sum.ByType[i].Kind < sum.ByType[j].Kind
	})

	// marking counts
	sum.Marking.Records = len(records)
	for _, r := range records {
		if r.Entry != nil {
			sum.Marking.WithEntry++
		}
		if r.Exit != nil {
			sum.Marking.WithExit++
		}
	}

	// per-worker and per-day bases cover only days with a resolvable shift
	idx := indexAttendance(records)
	compliance := make(map[string]*WorkerCompliance)
	absentee := make(map[string]*WorkerAbsenteeism)
	daily := make(map[time.Time]*DailyAttendance)

	for _, s := range shifts {
		if s.Range == nil {
			continue
		}
		key := attendanceKey{worker: s.Worker, date: s.Date}

		wc, ok := compliance[s.Worker]
		if !ok {
			wc = &WorkerCompliance{Worker: s.Worker}
			compliance[s.Worker] = wc
		}
		wc.Shifts++
		if confirmed[key] > 0 {
			wc.FlaggedShifts++
		} else {
			wc.CleanShifts++
		}

		wa, ok := absentee[s.Worker]
		if !ok {
			wa = &WorkerAbsenteeism{Worker: s.Worker}
			absentee[s.Worker] = wa
		}
		wa.Shifts++

		da, ok := daily[s.Date]
		if !ok {
			da = &DailyAttendance{Date: s.Date}
			daily[s.Date] = da
		}
		da.Shifts++

		mk := idx[key]
		if mk != nil && mk.entry != nil {
			da.WithEntry++
		} else {
			wa.MissingEntry++
		}
	}

	for _, wc := range compliance {
		wc.Pct = round4(float64(wc.CleanShifts) / float64(wc.Shifts))
		sum.Compliance = append(sum.Compliance, *wc)
	}
	sort.Slice(sum.Compliance, func(i, j int) bool {
		if sum.Compliance[i].Pct != sum.Compliance[j].Pct {
			return sum.Compliance[i].Pct < sum.Compliance[j].Pct
		}
		return sum.Compliance[i].Worker < sum.Compliance[j].Worker
	})

	for _, wa := range absentee {
		wa.Pct = round4(float64(wa.MissingEntry) / float64(wa.Shifts))
		sum.Absenteeism = append(sum.Absenteeism, *wa)
	}
	sort.Slice(sum.Absenteeism, func(i, j int) bool {
		if sum.Absenteeism[i].Pct != sum.Absenteeism[j].Pct {
			return sum.Absenteeism[i].Pct > sum.Absenteeism[j].Pct
		}
		return sum.Absenteeism[i].Worker < sum.Absenteeism[j].Worker
	})

	for _, da := range daily {
		da.Pct = round4(float64(da.WithEntry) / float64(da.Shifts))
		sum.Daily = append(sum.Daily, *da)
	}
	sort.Slice(sum.Daily, func(i, j int) bool {
		return sum.Daily[i].Date.Before(sum.Daily[j].Date)
	})

	return sum
}
