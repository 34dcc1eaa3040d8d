package model

import (
	"fmt"
	"time"
)

// ClockTime is a time of day with second resolution, independent of any
// calendar date.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

var clockLayouts = []string{"15:04:05", "15:04"}

// ParseClock parses "HH:MM" or "HH:MM:SS" (24-hour clock, single-digit hours
// accepted). Returns false for anything else.
func ParseClock(s string) (ClockTime, bool) {
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, true
		}
	}
	return ClockTime{}, false
}

// At anchors the clock time on the given calendar date.
func (c ClockTime) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, c.Second, 0, date.Location())
}

// Seconds returns the offset from midnight.
func (c ClockTime) Seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}
