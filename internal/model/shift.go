package model

import "time"

// ShiftRange is a parsed shift time window. CrossesMidnight is true when the
// end is at or before the start, meaning the shift ends on the next calendar
// day (a range with identical endpoints counts as crossing).
type ShiftRange struct {
	Start           ClockTime
	End             ClockTime
	CrossesMidnight bool
}

// CatalogEntry maps one shift code ("sigla") to its time range. Range is nil
// when the codification row's range text was unparseable or a rest-day marker;
// the code still occupies a catalog slot so lookups report "no resolvable
// shift" instead of falling through to free-text parsing.
type CatalogEntry struct {
	Code      string // original code as written in the codification table
	NormCode  string // trimmed, upper-cased lookup key
	RangeText string
	Range     *ShiftRange
}

// Catalog is the shift-code lookup built once from the codification table.
// Duplicate normalized codes resolve to the first occurrence.
type Catalog struct {
	byCode map[string]CatalogEntry
	order  []CatalogEntry
}

// NewCatalog builds a catalog from entries in table order, keeping the first
// occurrence of each normalized code.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{byCode: make(map[string]CatalogEntry, len(entries))}
	for _, e := range entries {
		if _, dup := c.byCode[e.NormCode]; dup {
			continue
		}
		c.byCode[e.NormCode] = e
		c.order = append(c.order, e)
	}
	return c
}

// Lookup finds an entry by normalized code.
func (c *Catalog) Lookup(normCode string) (CatalogEntry, bool) {
	e, ok := c.byCode[normCode]
	return e, ok
}

// Entries returns the retained entries in table order.
func (c *Catalog) Entries() []CatalogEntry {
	return c.order
}

// Len reports the number of retained entries.
func (c *Catalog) Len() int {
	return len(c.order)
}

// ScheduledShift is one worker-day of the expanded roster.
type ScheduledShift struct {
	Worker     string // normalized worker id, join key
	WorkerName string
	Area       string
	Supervisor string
	Date       time.Time // calendar date the shift starts, midnight UTC
	RawToken   string    // the roster cell as written
	Code       string    // catalog code that resolved the token, if any
	Range      *ShiftRange
}

// ExpectedEntry returns the expected clock-in timestamp, or false when the
// day has no resolvable shift.
func (s ScheduledShift) ExpectedEntry() (time.Time, bool) {
	if s.Range == nil {
		return time.Time{}, false
	}
	return s.Range.Start.At(s.Date), true
}

// ExpectedExit returns the expected clock-out timestamp. Shifts that cross
// midnight end on the day after they start.
func (s ScheduledShift) ExpectedExit() (time.Time, bool) {
	if s.Range == nil {
		return time.Time{}, false
	}
	day := s.Date
	if s.Range.CrossesMidnight {
		day = day.AddDate(0, 0, 1)
	}
	return s.Range.End.At(day), true
}

// AttendanceRecord is one normalized row of the attendance export.
type AttendanceRecord struct {
	Worker        string     // normalized worker id
	Date          *time.Time // base calendar date; nil when no date column resolved
	Entry         *time.Time // actual clock-in
	Exit          *time.Time // actual clock-out
	DeclaredToken string     // declared shift cell, if the column exists
	DeclaredCode  string     // catalog code the declared token resolved to
	DeclaredRange *ShiftRange
	ShiftDelta    *float64 // "Diferencia Turno Real" hours, when present
}
