package pipeline

import (
	"strings"

	"github.com/andes-hr/asistencia-cli/internal/model"
)

var dashNormalizer = strings.NewReplacer("–", "-", "—", "-")

// noShiftToken reports whether a cell explicitly means "no shift": empty,
// the literal "-", or "libre" in any casing.
func noShiftToken(s string) bool {
	return s == "" || s == "-" || strings.EqualFold(s, "libre")
}

// ParseShiftRange parses a free-text range such as "09:00-18:00" or
// "7:00:00 - 15:00:00" into a ShiftRange. Rest-day markers and anything
// malformed yield nil; malformed input never partially parses.
func ParseShiftRange(raw string) *model.ShiftRange {
	s := strings.TrimSpace(raw)
	if noShiftToken(s) {
		return nil
	}

	s = dashNormalizer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " - ", "-")
	s = strings.ReplaceAll(s, " -", "-")
	s = strings.ReplaceAll(s, "- ", "-")

	a, b, found := strings.Cut(s, "-")
	if !found {
		return nil
	}

	start, ok := model.ParseClock(strings.TrimSpace(a))
	if !ok {
		return nil
	}
	end, ok := model.ParseClock(strings.TrimSpace(b))
	if !ok {
		return nil
	}

	return &model.ShiftRange{
		Start:           start,
		End:             end,
		CrossesMidnight: end.Seconds() <= start.Seconds(),
	}
}

// ResolveToken resolves one roster or attendance cell against the catalog:
// a catalog code wins, otherwise the cell is parsed as a literal range.
// Returns the resolved range (nil for rest days, unknown codes with
// unparseable ranges, and garbage) and the catalog code that matched, if any.
func ResolveToken(cat *model.Catalog, token string) (*model.ShiftRange, string) {
	s := strings.TrimSpace(token)
	if noShiftToken(s) {
		return nil, ""
	}

	if e, ok := cat.Lookup(strings.ToUpper(s)); ok {
		return e.Range, e.Code
	}

	return ParseShiftRange(s), ""
}
